package query

import (
	"math"
	"strings"
	"testing"
)

func TestEscapeLike(t *testing.T) {
	got := EscapeLike(`a%b_c\d`)
	want := `a\%b\_c\\d`
	if got != want {
		t.Errorf("EscapeLike = %q, want %q", got, want)
	}
}

func TestList_DefaultShape(t *testing.T) {
	sql, args := List(ListOptions{Limit: 100})

	if !strings.Contains(sql, "ORDER BY epoch ASC, id ASC") {
		t.Errorf("list not ordered oldest first: %s", sql)
	}
	if !strings.HasSuffix(sql, "LIMIT ? OFFSET ?") {
		t.Errorf("list missing limit/offset clause: %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("args = %v, want [limit offset]", args)
	}
	if args[0] != int64(100) || args[1] != int64(0) {
		t.Errorf("binds = %v, want [100 0]", args)
	}
}

func TestList_AllMapsToMaxLimit(t *testing.T) {
	_, args := List(ListOptions{Limit: 100, All: true})
	if args[0] != int64(math.MaxInt64) {
		t.Errorf("all-limit bind = %v, want MaxInt64", args[0])
	}
}

func TestList_SessionFilter(t *testing.T) {
	sql, args := List(ListOptions{
		Session: Session{Salt: 42, PPID: 123, Valid: true},
		Limit:   10,
	})
	if !strings.Contains(sql, "AND salt = ? AND ppid = ?") {
		t.Errorf("missing session predicate: %s", sql)
	}
	if args[0] != int64(42) || args[1] != int64(123) {
		t.Errorf("session binds = %v, want [42 123 ...]", args)
	}
}

func TestList_InvalidSessionDegradesToUnfiltered(t *testing.T) {
	sql, _ := List(ListOptions{Session: Session{Salt: 42, PPID: 123}, Limit: 10})
	if strings.Contains(sql, "salt") {
		t.Errorf("invalid session still filtered: %s", sql)
	}
}

func TestList_PatternEscapedAndWrapped(t *testing.T) {
	sql, args := List(ListOptions{Pattern: "50%", Limit: 10})
	if !strings.Contains(sql, `cmd LIKE ? ESCAPE '\'`) {
		t.Errorf("missing escaped LIKE predicate: %s", sql)
	}
	if args[0] != `%50\%%` {
		t.Errorf("pattern bind = %q, want %q", args[0], `%50\%%`)
	}
}

func TestLocation_UnderAppendsWildcardAfterEscaping(t *testing.T) {
	_, args := List(ListOptions{
		Location: Location{Mode: LocationUnder, Pwd: "/tmp/proj_%"},
		Limit:    10,
	})
	if args[0] != `/tmp/proj\_\%%` {
		t.Errorf("under bind = %q, want %q", args[0], `/tmp/proj\_\%%`)
	}
}

func TestLocation_HereIsExactMatch(t *testing.T) {
	sql, args := List(ListOptions{
		Location: Location{Mode: LocationHere, Pwd: "/tmp/proj_%"},
		Limit:    10,
	})
	if !strings.Contains(sql, "pwd = ?") {
		t.Errorf("here mode not an equality: %s", sql)
	}
	if args[0] != "/tmp/proj_%" {
		t.Errorf("here bind = %q, want the literal pwd", args[0])
	}
}

func TestSearch_NewestFirst(t *testing.T) {
	sql, _ := Search(SearchOptions{Pattern: "git", Limit: 10})
	if !strings.Contains(sql, "ORDER BY epoch DESC, id DESC") {
		t.Errorf("search not ordered newest first: %s", sql)
	}
}

func TestSearch_SinceWinsOverLastDays(t *testing.T) {
	_, args := Search(SearchOptions{
		Pattern:  "git",
		Since:    1700000000,
		LastDays: 7,
		Now:      1700604800,
		Limit:    10,
	})
	// Pattern bind, then exactly one time bound, then limit/offset.
	if len(args) != 4 {
		t.Fatalf("args = %v, want exactly one time bound", args)
	}
	if args[1] != int64(1700000000) {
		t.Errorf("time bound = %v, want the explicit cutoff", args[1])
	}
}

func TestSearch_LastDaysWindow(t *testing.T) {
	_, args := Search(SearchOptions{
		Pattern:  "git",
		LastDays: 7,
		Now:      1700604800,
		Limit:    10,
	})
	want := int64(1700604800 - 7*86400)
	if args[1] != want {
		t.Errorf("window start = %v, want %d", args[1], want)
	}
}

func TestSummary_GroupShape(t *testing.T) {
	sql, args := Summary(SummaryOptions{Limit: 5})
	if !strings.Contains(sql, "GROUP BY cmd") {
		t.Errorf("summary not grouped by cmd: %s", sql)
	}
	if !strings.Contains(sql, "ORDER BY max(id) DESC") {
		t.Errorf("summary not ordered by max(id) desc: %s", sql)
	}
	if strings.Contains(sql, "pwd") {
		t.Errorf("summary includes pwd without GroupPwd: %s", sql)
	}
	if args[len(args)-1] != int64(5) {
		t.Errorf("last bind = %v, want the limit", args[len(args)-1])
	}
}

func TestSummary_GroupPwd(t *testing.T) {
	sql, _ := Summary(SummaryOptions{GroupPwd: true, Limit: 5})
	if !strings.Contains(sql, "GROUP BY cmd, pwd") {
		t.Errorf("summary not grouped by (cmd, pwd): %s", sql)
	}
}

func TestSummary_PrefixPattern(t *testing.T) {
	_, args := Summary(SummaryOptions{Pattern: "git", Prefix: true, Limit: 5})
	if args[0] != "git%" {
		t.Errorf("prefix bind = %q, want %q", args[0], "git%")
	}
}

func TestStats_WindowArithmetic(t *testing.T) {
	now := int64(1700604800)
	_, args := StatsTop(StatsOptions{Days: 7, Now: now, Limit: 10})
	if args[0] != now-7*86400 {
		t.Errorf("window start = %v, want now-7*86400", args[0])
	}

	// Zero days falls back to 30.
	_, args = StatsTop(StatsOptions{Now: now, Limit: 10})
	if args[0] != now-30*86400 {
		t.Errorf("default window start = %v, want now-30*86400", args[0])
	}
}

func TestStats_Ordering(t *testing.T) {
	sql, _ := StatsTop(StatsOptions{Now: 1, Limit: 10})
	if !strings.Contains(sql, "ORDER BY cnt DESC, last_epoch DESC") {
		t.Errorf("top stats ordering wrong: %s", sql)
	}

	sql, _ = StatsDirs(StatsOptions{Now: 1, Limit: 10})
	if !strings.Contains(sql, "GROUP BY pwd, cmd") {
		t.Errorf("dir stats grouping wrong: %s", sql)
	}

	sql, _ = StatsDaily(StatsOptions{Now: 1, Limit: 10})
	if !strings.Contains(sql, "ORDER BY day ASC") {
		t.Errorf("daily stats must be chronological: %s", sql)
	}
}
