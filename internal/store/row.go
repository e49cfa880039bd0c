package store

// Row is one recorded command invocation.
//
// HistID is the invoking shell's own history number when known; it is
// informational only (nullable, not unique). Salt is a random per-session
// value that distinguishes concurrent sessions sharing a ppid.
type Row struct {
	HistID *int64
	Cmd    string
	Epoch  int64
	PPID   int64
	Pwd    string
	Salt   int64
}

// HistIDOf is a convenience for building rows with a present hist_id.
func HistIDOf(v int64) *int64 { return &v }
