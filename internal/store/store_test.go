package store

import (
	"os"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.sqlite")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRow() Row {
	return Row{
		HistID: HistIDOf(7),
		Cmd:    "echo hello",
		Epoch:  1700000000,
		PPID:   123,
		Pwd:    "/tmp",
		Salt:   42,
	}
}

func TestOpen_CreatesSchemaIdempotently(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.sqlite")

	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if _, err := s.Insert(testRow()); err != nil {
		t.Fatalf("insert: %v", err)
	}
	s.Close()

	// Reopening must not disturb existing data.
	s, err = Open(dbPath)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	count, err := s.HistoryCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("history count after reopen = %d, want 1", count)
	}

	version, err := s.SchemaVersion()
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != "1" {
		t.Errorf("schema version = %q, want %q", version, "1")
	}
}

func TestOpen_FailsOnNonDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.sqlite")
	if err := os.WriteFile(path, []byte("this is not a database file, padded to over one page header"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path)
	if err == nil {
		s.Close()
		t.Fatal("expected error opening non-database file")
	}
}

func TestInsert_ReturnsMonotonicIDs(t *testing.T) {
	s := setupTestStore(t)

	row := testRow()
	id1, err := s.Insert(row)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	row.Cmd = "ls"
	id2, err := s.Insert(row)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if id2 <= id1 {
		t.Errorf("ids not increasing: %d then %d", id1, id2)
	}
}

func TestInsert_DuplicateRowKeepsOneFingerprint(t *testing.T) {
	s := setupTestStore(t)

	row := testRow()
	if _, err := s.Insert(row); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	// Same logical event again: not an error, fingerprint not duplicated.
	if _, err := s.Insert(row); err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}

	var hashes int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM history_hash").Scan(&hashes); err != nil {
		t.Fatal(err)
	}
	if hashes != 1 {
		t.Errorf("fingerprint entries = %d, want 1", hashes)
	}

	var rowsN int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM history").Scan(&rowsN); err != nil {
		t.Fatal(err)
	}
	if rowsN != 2 {
		t.Errorf("history rows = %d, want 2 (row uniqueness is not the contract)", rowsN)
	}
}

func TestHasFingerprint(t *testing.T) {
	s := setupTestStore(t)

	row := testRow()
	fp := Fingerprint(row)

	seen, err := s.HasFingerprint(fp)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Error("fingerprint reported present before insert")
	}

	if _, err := s.Insert(row); err != nil {
		t.Fatal(err)
	}

	seen, err = s.HasFingerprint(fp)
	if err != nil {
		t.Fatal(err)
	}
	if !seen {
		t.Error("fingerprint reported absent after insert")
	}
}

func TestEnsureIndexes_Idempotent(t *testing.T) {
	s := setupTestStore(t)

	if err := s.EnsureIndexes(); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if err := s.EnsureIndexes(); err != nil {
		t.Fatalf("second call: %v", err)
	}

	var n int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name LIKE 'idx_history%'`,
	).Scan(&n)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("index count = %d, want 4", n)
	}
}
