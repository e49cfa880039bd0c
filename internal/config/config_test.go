package config

import (
	"testing"
)

func TestSessionFromEnv_Valid(t *testing.T) {
	t.Setenv(EnvSalt, "42")
	t.Setenv(EnvPPID, "123")

	s := SessionFromEnv()
	if !s.Valid || s.Salt != 42 || s.PPID != 123 {
		t.Errorf("session = %+v, want valid salt=42 ppid=123", s)
	}
}

func TestSessionFromEnv_DegradesOnMissingOrMalformed(t *testing.T) {
	cases := []struct {
		name, salt, ppid string
	}{
		{"both missing", "", ""},
		{"salt missing", "", "123"},
		{"ppid missing", "42", ""},
		{"salt malformed", "forty-two", "123"},
		{"ppid malformed", "42", "abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvSalt, tc.salt)
			t.Setenv(EnvPPID, tc.ppid)
			if s := SessionFromEnv(); s.Valid {
				t.Errorf("session = %+v, want invalid", s)
			}
		})
	}
}

func TestDefaultDBPath_EnvOverride(t *testing.T) {
	t.Setenv(EnvDB, "/custom/path.sqlite")
	if got := DefaultDBPath(); got != "/custom/path.sqlite" {
		t.Errorf("path = %q, want the SDBH_DB override", got)
	}
}

func TestDefaultDBPath_HomeFallback(t *testing.T) {
	t.Setenv(EnvDB, "")
	t.Setenv("HOME", "/home/testuser")
	if got := DefaultDBPath(); got != "/home/testuser/.sdbh.sqlite" {
		t.Errorf("path = %q, want ~/.sdbh.sqlite", got)
	}
}
