package store

// schemaVersion is the current schema version. Increment when adding migrations.
const schemaVersion = 1

// migrations maps version numbers to SQL statements that bring the schema
// from (version-1) to (version). Version 1 is the initial schema.
var migrations = map[int]string{
	1: `
-- One row per recorded command invocation.
CREATE TABLE IF NOT EXISTS history (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	hist_id INTEGER,
	cmd     TEXT,
	epoch   INTEGER,
	ppid    INTEGER,
	pwd     TEXT,
	salt    INTEGER
);

-- Content fingerprint to first owning row. The primary key on hash is the
-- whole deduplication mechanism; entries are never updated or deleted.
CREATE TABLE IF NOT EXISTS history_hash (
	hash       TEXT PRIMARY KEY,
	history_id INTEGER
);

CREATE INDEX IF NOT EXISTS idx_history_epoch ON history(epoch);
CREATE INDEX IF NOT EXISTS idx_history_session ON history(salt, ppid);
CREATE INDEX IF NOT EXISTS idx_history_pwd ON history(pwd);
CREATE INDEX IF NOT EXISTS idx_history_hash ON history_hash(hash);
`,
}
