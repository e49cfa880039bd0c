// Package render scans query results and formats them for the terminal,
// as aligned text or JSON.
package render

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// HistoryLine is one row from the list/search queries.
type HistoryLine struct {
	ID    int64  `json:"id"`
	Time  string `json:"time"`
	Pwd   string `json:"pwd"`
	Cmd   string `json:"cmd"`
	Epoch int64  `json:"epoch"`
}

// SummaryLine is one group from the summary query.
type SummaryLine struct {
	MaxID    int64  `json:"id"`
	LastSeen string `json:"last_seen"`
	Count    int64  `json:"count"`
	Cmd      string `json:"cmd"`
	Pwd      string `json:"pwd,omitempty"`
}

// TopLine is one group from the top/by-directory stats queries; Pwd is
// empty for the plain top variant.
type TopLine struct {
	Pwd       string `json:"pwd,omitempty"`
	Cmd       string `json:"cmd"`
	Count     int64  `json:"count"`
	LastEpoch int64  `json:"last_epoch"`
}

// DayLine is one bucket from the daily stats query.
type DayLine struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// ScanHistory drains rows from a list or search query.
func ScanHistory(rows *sql.Rows) ([]HistoryLine, error) {
	defer rows.Close()
	var out []HistoryLine
	for rows.Next() {
		var l HistoryLine
		if err := rows.Scan(&l.ID, &l.Time, &l.Pwd, &l.Cmd, &l.Epoch); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ScanSummary drains rows from a summary query; withPwd must match the
// GroupPwd option the query was built with.
func ScanSummary(rows *sql.Rows, withPwd bool) ([]SummaryLine, error) {
	defer rows.Close()
	var out []SummaryLine
	for rows.Next() {
		var l SummaryLine
		var err error
		if withPwd {
			err = rows.Scan(&l.MaxID, &l.LastSeen, &l.Count, &l.Cmd, &l.Pwd)
		} else {
			err = rows.Scan(&l.MaxID, &l.LastSeen, &l.Count, &l.Cmd)
		}
		if err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ScanTop drains rows from the top stats query (cmd, count, last epoch).
func ScanTop(rows *sql.Rows) ([]TopLine, error) {
	defer rows.Close()
	var out []TopLine
	for rows.Next() {
		var l TopLine
		if err := rows.Scan(&l.Cmd, &l.Count, &l.LastEpoch); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ScanDirs drains rows from the by-directory stats query.
func ScanDirs(rows *sql.Rows) ([]TopLine, error) {
	defer rows.Close()
	var out []TopLine
	for rows.Next() {
		var l TopLine
		if err := rows.Scan(&l.Pwd, &l.Cmd, &l.Count, &l.LastEpoch); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ScanDaily drains rows from the daily stats query.
func ScanDaily(rows *sql.Rows) ([]DayLine, error) {
	defer rows.Close()
	var out []DayLine
	for rows.Next() {
		var l DayLine
		if err := rows.Scan(&l.Day, &l.Count); err != nil {
			return nil, fmt.Errorf("scan daily row: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// HistoryTable formats history lines as "id | time | pwd | cmd".
func HistoryTable(lines []HistoryLine) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("%6d | %s | %s | %s\n", l.ID, l.Time, l.Pwd, l.Cmd))
	}
	return b.String()
}

// SummaryTable formats summary lines; with pwd grouping the directory is
// shown ahead of the command.
func SummaryTable(lines []SummaryLine, withPwd bool) string {
	var b strings.Builder
	for _, l := range lines {
		if withPwd {
			b.WriteString(fmt.Sprintf("%6d | %s | %6d | %s > %s\n", l.MaxID, l.LastSeen, l.Count, l.Pwd, l.Cmd))
		} else {
			b.WriteString(fmt.Sprintf("%6d | %s | %6d | %s\n", l.MaxID, l.LastSeen, l.Count, l.Cmd))
		}
	}
	return b.String()
}

// TopTable formats top/by-directory stats lines.
func TopTable(lines []TopLine) string {
	var b strings.Builder
	for _, l := range lines {
		if l.Pwd != "" {
			b.WriteString(fmt.Sprintf("%6d | %s > %s\n", l.Count, l.Pwd, l.Cmd))
		} else {
			b.WriteString(fmt.Sprintf("%6d | %s\n", l.Count, l.Cmd))
		}
	}
	return b.String()
}

// DailyTable formats daily stats buckets.
func DailyTable(lines []DayLine) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(fmt.Sprintf("%s | %6d\n", l.Day, l.Count))
	}
	return b.String()
}

// JSON marshals any value as indented JSON.
func JSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}
