// Package doctor inspects the environment and database and produces a
// diagnostic report for the doctor subcommand.
package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/highbeam/sdbh/internal/config"
	"github.com/highbeam/sdbh/internal/store"
)

// Report collects everything the doctor command prints.
type Report struct {
	DBPath        string `json:"db_path"`
	DBExists      bool   `json:"db_exists"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	HistoryCount  int64  `json:"history_count"`
	SchemaVersion string `json:"schema_version"`
	Shell         string `json:"shell"`
	OnPath        bool   `json:"on_path"`
	SessionValid  bool   `json:"session_valid"`
	SaltEnv       string `json:"salt_env"`
	PPIDEnv       string `json:"ppid_env"`
}

// Run gathers the report. A missing database is not an error; the report
// simply says so.
func Run(dbPath string) (*Report, error) {
	r := &Report{
		DBPath:  dbPath,
		Shell:   os.Getenv("SHELL"),
		SaltEnv: os.Getenv(config.EnvSalt),
		PPIDEnv: os.Getenv(config.EnvPPID),
	}
	r.SessionValid = config.SessionFromEnv().Valid

	if _, err := exec.LookPath("sdbh"); err == nil {
		r.OnPath = true
	}

	if _, err := os.Stat(dbPath); err != nil {
		return r, nil
	}
	r.DBExists = true

	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	if n, err := s.HistoryCount(); err == nil {
		r.HistoryCount = n
	}
	if v, err := s.SchemaVersion(); err == nil {
		r.SchemaVersion = v
	}
	if sz, err := s.DBSizeBytes(); err == nil {
		r.DBSizeBytes = sz
	}
	return r, nil
}

// Format renders the report as terminal text.
func Format(r *Report) string {
	var b strings.Builder
	b.WriteString("sdbh doctor\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	b.WriteString(fmt.Sprintf("database:       %s\n", r.DBPath))
	if r.DBExists {
		b.WriteString(fmt.Sprintf("  rows:         %d\n", r.HistoryCount))
		b.WriteString(fmt.Sprintf("  size:         %d bytes\n", r.DBSizeBytes))
		b.WriteString(fmt.Sprintf("  schema:       v%s\n", r.SchemaVersion))
	} else {
		b.WriteString("  (not created yet; run `sdbh log` or `sdbh shell`)\n")
	}
	b.WriteString(fmt.Sprintf("shell:          %s\n", orNone(r.Shell)))
	b.WriteString(fmt.Sprintf("sdbh on PATH:   %v\n", r.OnPath))
	if r.SessionValid {
		b.WriteString(fmt.Sprintf("session:        salt=%s ppid=%s\n", r.SaltEnv, r.PPIDEnv))
	} else {
		b.WriteString("session:        not set (queries default to all sessions)\n")
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
