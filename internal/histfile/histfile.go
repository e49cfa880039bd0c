// Package histfile imports plain-text shell history files (bash and zsh
// formats) by constructing synthetic history rows and deduplicating them
// against the store's fingerprint index.
package histfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/highbeam/sdbh/internal/store"
)

// Options supply the session fields a plain-text file cannot carry.
type Options struct {
	PPID int64
	Salt int64
	Pwd  string
	// FallbackEpoch seeds timestamps for entries without one (plain bash
	// history). Entries keep file order by advancing one second per line.
	// Zero means the source file's modification time.
	FallbackEpoch int64
}

// Result reports how many entries were read and how many were new.
type Result struct {
	Considered uint64
	Inserted   uint64
}

// entry is one parsed history line.
type entry struct {
	cmd   string
	epoch int64 // 0 when the file carried no timestamp
}

// Import parses the history file at path and inserts every entry not
// already fingerprinted in s. hist_id is the 1-based file position.
func Import(s *store.Store, path string, opts Options) (Result, error) {
	var res Result

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	if opts.FallbackEpoch == 0 {
		if info, err := f.Stat(); err == nil {
			opts.FallbackEpoch = info.ModTime().Unix()
		}
	}

	entries, err := parse(f)
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", path, err)
	}

	for i, e := range entries {
		res.Considered++

		epoch := e.epoch
		if epoch == 0 {
			epoch = opts.FallbackEpoch + int64(i)
		}

		row := store.Row{
			HistID: store.HistIDOf(int64(i + 1)),
			Cmd:    e.cmd,
			Epoch:  epoch,
			PPID:   opts.PPID,
			Pwd:    opts.Pwd,
			Salt:   opts.Salt,
		}

		seen, err := s.HasFingerprint(store.Fingerprint(row))
		if err != nil {
			return res, err
		}
		if seen {
			continue
		}
		if _, err := s.Insert(row); err != nil {
			return res, err
		}
		res.Inserted++
	}

	return res, nil
}

// parse reads every entry from a bash or zsh history stream. It understands
// zsh extended lines (": <epoch>:<duration>;cmd"), bash timestamp comments
// ("#<epoch>" preceding the command), and plain command lines.
func parse(f *os.File) ([]entry, error) {
	var entries []entry
	var pendingEpoch int64

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}

		if epoch, cmd, ok := parseZshExtended(line); ok {
			entries = append(entries, entry{cmd: cmd, epoch: epoch})
			pendingEpoch = 0
			continue
		}

		if epoch, ok := parseBashTimestamp(line); ok {
			pendingEpoch = epoch
			continue
		}

		entries = append(entries, entry{cmd: line, epoch: pendingEpoch})
		pendingEpoch = 0
	}
	return entries, sc.Err()
}

// parseZshExtended matches ": <epoch>:<duration>;cmd".
func parseZshExtended(line string) (int64, string, bool) {
	if !strings.HasPrefix(line, ": ") {
		return 0, "", false
	}
	rest := line[2:]
	sep := strings.IndexByte(rest, ';')
	if sep < 0 {
		return 0, "", false
	}
	meta := rest[:sep]
	colon := strings.IndexByte(meta, ':')
	if colon < 0 {
		return 0, "", false
	}
	epoch, err := strconv.ParseInt(strings.TrimSpace(meta[:colon]), 10, 64)
	if err != nil {
		return 0, "", false
	}
	return epoch, rest[sep+1:], true
}

// parseBashTimestamp matches the "#<epoch>" comment bash writes ahead of
// each command when HISTTIMEFORMAT is set.
func parseBashTimestamp(line string) (int64, bool) {
	if !strings.HasPrefix(line, "#") {
		return 0, false
	}
	epoch, err := strconv.ParseInt(line[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return epoch, true
}
