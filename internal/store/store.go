package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver.
)

// Store wraps a SQLite database connection holding shell history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dbPath with WAL mode
// and a 5-second busy timeout, then runs any pending migrations.
// It is safe to call on every process start; schema creation is idempotent.
func Open(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Verify the file is actually a database before doing anything else.
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct queries.
// Use sparingly; prefer adding methods to Store.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Insert records one history row and its fingerprint in a single
// transaction. A duplicate fingerprint is not an error: the fingerprint
// table's primary key silently keeps the first owner, which is the whole
// deduplication contract. Returns the assigned row id.
func (s *Store) Insert(row Row) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO history(hist_id, cmd, epoch, ppid, pwd, salt)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		row.HistID, row.Cmd, row.Epoch, row.PPID, row.Pwd, row.Salt,
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert history row: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	_, err = tx.Exec(
		`INSERT OR IGNORE INTO history_hash(hash, history_id) VALUES (?, ?)`,
		Fingerprint(row), id,
	)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("insert fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return id, nil
}

// EnsureIndexes creates the query indexes if they do not exist yet.
// Callable at any time; has no effect beyond index creation.
func (s *Store) EnsureIndexes() error {
	_, err := s.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_history_epoch ON history(epoch);
		CREATE INDEX IF NOT EXISTS idx_history_session ON history(salt, ppid);
		CREATE INDEX IF NOT EXISTS idx_history_pwd ON history(pwd);
		CREATE INDEX IF NOT EXISTS idx_history_hash ON history_hash(hash);
	`)
	if err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}

// HasFingerprint reports whether fp is already recorded. Used by importers
// to dedup before inserting.
func (s *Store) HasFingerprint(fp string) (bool, error) {
	var exists int64
	err := s.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM history_hash WHERE hash = ?)`, fp,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check fingerprint: %w", err)
	}
	return exists == 1, nil
}

// HistoryCount returns the number of history rows recorded.
func (s *Store) HistoryCount() (int64, error) {
	var count int64
	err := s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&count)
	return count, err
}

// SchemaVersion returns the recorded schema version string.
func (s *Store) SchemaVersion() (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&v)
	return v, err
}

// DBSizeBytes returns the database file size in bytes.
// This is an approximation using page_count * page_size.
func (s *Store) DBSizeBytes() (int64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, err
	}
	if err := s.db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, err
	}
	return pageCount * pageSize, nil
}
