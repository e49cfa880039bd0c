package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/highbeam/sdbh/internal/query"
)

// Environment variables set by the shell integration snippets. The hook
// exports the session identity once per shell; query commands read it back
// here to scope results to "this session".
const (
	EnvDB   = "SDBH_DB"
	EnvSalt = "SDBH_SALT"
	EnvPPID = "SDBH_PPID"
)

// DefaultDBPath returns the default database location (~/.sdbh.sqlite).
// The SDBH_DB environment variable overrides it.
func DefaultDBPath() string {
	if p := os.Getenv(EnvDB); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sdbh.sqlite")
}

// DefaultTemplatesDir returns the default command-template directory
// (~/.sdbh/templates).
func DefaultTemplatesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".sdbh", "templates")
}

// SessionFromEnv reads the hook-exported session identity. Missing or
// malformed values yield an invalid Session, which the query builders treat
// as "no session filter" -- never an error.
func SessionFromEnv() query.Session {
	salt, err := strconv.ParseInt(os.Getenv(EnvSalt), 10, 64)
	if err != nil {
		return query.Session{}
	}
	ppid, err := strconv.ParseInt(os.Getenv(EnvPPID), 10, 64)
	if err != nil {
		return query.Session{}
	}
	return query.Session{Salt: salt, PPID: ppid, Valid: true}
}
