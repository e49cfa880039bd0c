// Package query builds parameterized SQL for every read path over the
// history table. Builders are pure: they take explicit options (including
// session identity and the current time) and return SQL text plus an
// ordered bind list, never touching the database or the environment.
package query

import (
	"math"
	"strings"
	"time"
)

// Session identifies one shell session by its (salt, ppid) pair.
// An invalid Session degrades to "no session filter" rather than erroring,
// so queries from outside a hooked shell still work.
type Session struct {
	Salt  int64
	PPID  int64
	Valid bool
}

// LocationMode selects how the working-directory filter matches.
type LocationMode int

const (
	// LocationNone disables the location filter.
	LocationNone LocationMode = iota
	// LocationHere matches pwd exactly.
	LocationHere
	// LocationUnder matches pwd and everything beneath it (prefix match).
	LocationUnder
)

// Location filters rows by the directory they were recorded in.
type Location struct {
	Mode LocationMode
	Pwd  string
}

// ListOptions shape the chronological listing query.
type ListOptions struct {
	Session  Session
	Pattern  string // substring match on cmd; empty disables
	Location Location
	Limit    int64
	Offset   int64
	All      bool // no effective cap; see EffectiveLimit
}

// SearchOptions shape the newest-first search query. Since and LastDays are
// mutually exclusive lower time bounds; when both are set Since wins.
type SearchOptions struct {
	Session  Session
	Pattern  string
	Location Location
	Since    int64 // explicit cutoff epoch; 0 disables
	LastDays int64 // window in days back from Now; 0 disables
	Now      int64 // reference time; 0 means time.Now()
	Limit    int64
	Offset   int64
	All      bool
}

// SummaryOptions shape the grouped-by-command summary.
type SummaryOptions struct {
	Session  Session
	Pattern  string
	Prefix   bool // match Pattern as a prefix instead of a substring
	Location Location
	GroupPwd bool // also group (and report) by pwd
	Limit    int64
	All      bool
}

// StatsOptions shape the three trailing-window stats queries.
type StatsOptions struct {
	Days  int64 // window size; <=0 means 30
	Now   int64 // reference time; 0 means time.Now()
	Limit int64
	All   bool
}

// clause is one predicate fragment plus its binds. Builders concatenate
// clauses so escaping and ordering logic lives in exactly one place per
// filter.
type clause struct {
	sql  string
	args []any
}

const listColumns = "id, datetime(epoch, 'unixepoch', 'localtime') AS dt, pwd, cmd, epoch"

// List returns the chronological listing: (id, local time, pwd, cmd, epoch)
// oldest first.
func List(opts ListOptions) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString("SELECT " + listColumns + " FROM history WHERE 1=1")
	for _, c := range []clause{
		sessionClause(opts.Session),
		patternClause(opts.Pattern, false),
		locationClause(opts.Location),
	} {
		b.WriteString(c.sql)
		args = append(args, c.args...)
	}

	b.WriteString(" ORDER BY epoch ASC, id ASC LIMIT ? OFFSET ?")
	args = append(args, EffectiveLimit(opts.Limit, opts.All), opts.Offset)
	return b.String(), args
}

// Search returns the newest-first search over cmd. Substring matching
// follows SQLite's default LIKE collation, which is case-insensitive for
// ASCII; we keep the engine default rather than overriding it per query.
func Search(opts SearchOptions) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString("SELECT " + listColumns + " FROM history WHERE 1=1")
	for _, c := range []clause{
		sessionClause(opts.Session),
		patternClause(opts.Pattern, false),
		locationClause(opts.Location),
		sinceClause(opts.Since, opts.LastDays, opts.Now),
	} {
		b.WriteString(c.sql)
		args = append(args, c.args...)
	}

	b.WriteString(" ORDER BY epoch DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, EffectiveLimit(opts.Limit, opts.All), opts.Offset)
	return b.String(), args
}

// Summary returns commands grouped by text (optionally also by directory):
// (max id, last-seen local time, count, cmd[, pwd]), most recently used
// first.
func Summary(opts SummaryOptions) (string, []any) {
	var b strings.Builder
	args := []any{}

	b.WriteString("SELECT max(id) AS mid, datetime(max(epoch), 'unixepoch', 'localtime') AS dt, count(*) AS cnt, cmd")
	if opts.GroupPwd {
		b.WriteString(", pwd")
	}
	b.WriteString(" FROM history WHERE 1=1")
	for _, c := range []clause{
		sessionClause(opts.Session),
		patternClause(opts.Pattern, opts.Prefix),
		locationClause(opts.Location),
	} {
		b.WriteString(c.sql)
		args = append(args, c.args...)
	}

	b.WriteString(" GROUP BY cmd")
	if opts.GroupPwd {
		b.WriteString(", pwd")
	}
	b.WriteString(" ORDER BY max(id) DESC LIMIT ?")
	args = append(args, EffectiveLimit(opts.Limit, opts.All))
	return b.String(), args
}

// StatsTop returns per-command counts over the trailing window:
// (cmd, count, last-seen epoch), busiest first.
func StatsTop(opts StatsOptions) (string, []any) {
	sql := "SELECT cmd, count(*) AS cnt, max(epoch) AS last_epoch FROM history WHERE epoch >= ?" +
		" GROUP BY cmd ORDER BY cnt DESC, last_epoch DESC LIMIT ?"
	return sql, []any{statsWindowStart(opts), EffectiveLimit(opts.Limit, opts.All)}
}

// StatsDirs returns per-(directory, command) counts over the trailing
// window: (pwd, cmd, count, last-seen epoch), busiest first.
func StatsDirs(opts StatsOptions) (string, []any) {
	sql := "SELECT pwd, cmd, count(*) AS cnt, max(epoch) AS last_epoch FROM history WHERE epoch >= ?" +
		" GROUP BY pwd, cmd ORDER BY cnt DESC, last_epoch DESC LIMIT ?"
	return sql, []any{statsWindowStart(opts), EffectiveLimit(opts.Limit, opts.All)}
}

// StatsDaily returns per-calendar-day counts (local time) over the trailing
// window: (day, count), chronological.
func StatsDaily(opts StatsOptions) (string, []any) {
	sql := "SELECT date(epoch, 'unixepoch', 'localtime') AS day, count(*) AS cnt FROM history WHERE epoch >= ?" +
		" GROUP BY day ORDER BY day ASC LIMIT ?"
	return sql, []any{statsWindowStart(opts), EffectiveLimit(opts.Limit, opts.All)}
}

// EffectiveLimit maps "show all" to the maximum representable limit so a
// single code path always emits a LIMIT clause.
func EffectiveLimit(limit int64, all bool) int64 {
	if all {
		return math.MaxInt64
	}
	return limit
}

// EscapeLike escapes LIKE metacharacters (%, _) and the escape character
// itself so a user-supplied substring matches literally. Predicates built
// here always declare ESCAPE '\'.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// sessionClause filters to one (salt, ppid) session; an invalid session
// yields no clause.
func sessionClause(s Session) clause {
	if !s.Valid {
		return clause{}
	}
	return clause{" AND salt = ? AND ppid = ?", []any{s.Salt, s.PPID}}
}

// patternClause matches cmd against a literal substring (or prefix).
func patternClause(pattern string, prefix bool) clause {
	if pattern == "" {
		return clause{}
	}
	like := EscapeLike(pattern) + "%"
	if !prefix {
		like = "%" + like
	}
	return clause{` AND cmd LIKE ? ESCAPE '\'`, []any{like}}
}

// locationClause filters by working directory. In under mode the wildcard
// is appended after escaping, so a pwd containing literal % or _ still
// matches itself while the suffix stays a true wildcard.
func locationClause(l Location) clause {
	switch l.Mode {
	case LocationHere:
		return clause{" AND pwd = ?", []any{l.Pwd}}
	case LocationUnder:
		return clause{` AND pwd LIKE ? ESCAPE '\'`, []any{EscapeLike(l.Pwd) + "%"}}
	default:
		return clause{}
	}
}

// sinceClause is the lower time bound: an explicit cutoff epoch, or a
// trailing window of days, whichever the caller set.
func sinceClause(since, lastDays, now int64) clause {
	switch {
	case since > 0:
		return clause{" AND epoch >= ?", []any{since}}
	case lastDays > 0:
		return clause{" AND epoch >= ?", []any{windowStart(now, lastDays)}}
	default:
		return clause{}
	}
}

func statsWindowStart(opts StatsOptions) int64 {
	days := opts.Days
	if days <= 0 {
		days = 30
	}
	return windowStart(opts.Now, days)
}

func windowStart(now, days int64) int64 {
	if now == 0 {
		now = time.Now().Unix()
	}
	return now - days*86400
}
