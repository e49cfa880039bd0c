package store

import (
	"regexp"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	a := testRow()
	b := testRow()
	if Fingerprint(a) != Fingerprint(b) {
		t.Error("identical rows produced different fingerprints")
	}
}

func TestFingerprint_Shape(t *testing.T) {
	fp := Fingerprint(testRow())
	if !regexp.MustCompile(`^[0-9a-f]{64}$`).MatchString(fp) {
		t.Errorf("fingerprint %q is not 64 lowercase hex chars", fp)
	}
}

func TestFingerprint_SensitiveToEveryField(t *testing.T) {
	base := Fingerprint(testRow())

	cases := []struct {
		field  string
		mutate func(*Row)
	}{
		{"cmd", func(r *Row) { r.Cmd = "echo bye" }},
		{"epoch", func(r *Row) { r.Epoch++ }},
		{"ppid", func(r *Row) { r.PPID++ }},
		{"pwd", func(r *Row) { r.Pwd = "/var" }},
		{"salt", func(r *Row) { r.Salt++ }},
		{"hist_id value", func(r *Row) { r.HistID = HistIDOf(8) }},
		{"hist_id absent", func(r *Row) { r.HistID = nil }},
	}

	for _, tc := range cases {
		row := testRow()
		tc.mutate(&row)
		if Fingerprint(row) == base {
			t.Errorf("changing %s did not change the fingerprint", tc.field)
		}
	}
}
