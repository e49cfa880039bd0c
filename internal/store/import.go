package store

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ImportResult reports the outcome of one cross-database merge.
// Skipped counts rows dropped for unparseable numeric fields; it is a
// diagnostic, never an error.
type ImportResult struct {
	Considered uint64
	Inserted   uint64
	Skipped    uint64
}

// ImportFrom merges every history row from the database at srcPath into s,
// deduplicating by fingerprint. The source is opened as an independent
// read-only connection; the destination side runs in a single transaction,
// so an interrupted import leaves the destination untouched.
//
// Rows whose epoch, ppid, or salt cannot be coerced to an integer are
// skipped and counted, not fatal. A source without a history table aborts
// the whole import before any row is touched.
func (s *Store) ImportFrom(srcPath string) (ImportResult, error) {
	var res ImportResult

	src, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", srcPath))
	if err != nil {
		return res, fmt.Errorf("open source db %s: %w", srcPath, err)
	}
	defer src.Close()

	var hasTable int64
	err = src.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type='table' AND name='history')`,
	).Scan(&hasTable)
	if err != nil {
		return res, fmt.Errorf("inspect source db %s: %w", srcPath, err)
	}
	if hasTable != 1 {
		return res, fmt.Errorf("source db %s does not have a history table", srcPath)
	}

	// Oldest first, so equal fingerprints from different source rows
	// resolve deterministically to the earliest-originating one.
	rows, err := src.Query(
		`SELECT hist_id, cmd, epoch, ppid, pwd, salt FROM history ORDER BY id ASC`,
	)
	if err != nil {
		return res, fmt.Errorf("read source history: %w", err)
	}
	defer rows.Close()

	tx, err := s.db.Begin()
	if err != nil {
		return res, fmt.Errorf("begin import: %w", err)
	}

	for rows.Next() {
		var histIDv, cmdv, epochv, ppidv, pwdv, saltv any
		if err := rows.Scan(&histIDv, &cmdv, &epochv, &ppidv, &pwdv, &saltv); err != nil {
			_ = tx.Rollback()
			return res, fmt.Errorf("scan source row: %w", err)
		}
		res.Considered++

		epoch, ok := coerceInt64(epochv)
		if !ok {
			res.Skipped++
			continue
		}
		ppid, ok := coerceInt64(ppidv)
		if !ok {
			res.Skipped++
			continue
		}
		salt, ok := coerceInt64(saltv)
		if !ok {
			res.Skipped++
			continue
		}

		row := Row{
			Cmd:   coerceString(cmdv),
			Epoch: epoch,
			PPID:  ppid,
			Pwd:   coerceString(pwdv),
			Salt:  salt,
		}
		// hist_id is informational; an unparseable value degrades to absent.
		if v, ok := coerceInt64(histIDv); ok {
			row.HistID = &v
		}

		fp := Fingerprint(row)

		var exists int64
		err := tx.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM history_hash WHERE hash = ?)`, fp,
		).Scan(&exists)
		if err != nil {
			_ = tx.Rollback()
			return res, fmt.Errorf("check fingerprint: %w", err)
		}
		if exists == 1 {
			continue
		}

		ins, err := tx.Exec(
			`INSERT INTO history(hist_id, cmd, epoch, ppid, pwd, salt)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			row.HistID, row.Cmd, row.Epoch, row.PPID, row.Pwd, row.Salt,
		)
		if err != nil {
			_ = tx.Rollback()
			return res, fmt.Errorf("insert imported row: %w", err)
		}
		id, err := ins.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return res, fmt.Errorf("read inserted id: %w", err)
		}
		_, err = tx.Exec(
			`INSERT OR IGNORE INTO history_hash(hash, history_id) VALUES (?, ?)`,
			fp, id,
		)
		if err != nil {
			_ = tx.Rollback()
			return res, fmt.Errorf("insert fingerprint: %w", err)
		}
		res.Inserted++
	}
	if err := rows.Err(); err != nil {
		_ = tx.Rollback()
		return res, fmt.Errorf("stream source rows: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

// coerceInt64 turns a scanned SQLite value into an integer if at all
// possible. Corrupted history files in the wild hold values like
// "  970* 1571608128 ssh host" where the real integer is the first or
// second whitespace token, possibly with a stray trailing '*'. The
// fallbacks here are deliberately permissive; tighten them only after
// checking the import fixtures.
func coerceInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int64:
		return t, true
	case float64:
		if t == math.Trunc(t) {
			return int64(t), true
		}
		return 0, false
	case string:
		return coerceText(t)
	case []byte:
		return coerceText(string(t))
	default:
		return 0, false
	}
}

func coerceText(s string) (int64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, false
	}
	parseToken := func(tok string) (int64, bool) {
		n, err := strconv.ParseInt(strings.TrimSuffix(tok, "*"), 10, 64)
		return n, err == nil
	}
	if n, ok := parseToken(fields[0]); ok {
		return n, true
	}
	if len(fields) > 1 {
		return parseToken(fields[1])
	}
	return 0, false
}

// coerceString renders a scanned value as text; NULL becomes "".
func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
