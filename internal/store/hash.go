package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Fingerprint derives the stable content fingerprint for a row: SHA-256
// over the newline-joined sequence epoch, ppid, salt, hist_id (empty when
// absent), pwd, cmd, rendered as lowercase hex.
//
// Identical field tuples always produce identical fingerprints; this is the
// sole idempotence mechanism for repeated logging and repeated imports, so
// the field order and separator must never change.
func Fingerprint(row Row) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(row.Epoch, 10)))
	h.Write([]byte{'\n'})
	h.Write([]byte(strconv.FormatInt(row.PPID, 10)))
	h.Write([]byte{'\n'})
	h.Write([]byte(strconv.FormatInt(row.Salt, 10)))
	h.Write([]byte{'\n'})
	if row.HistID != nil {
		h.Write([]byte(strconv.FormatInt(*row.HistID, 10)))
	}
	h.Write([]byte{'\n'})
	h.Write([]byte(row.Pwd))
	h.Write([]byte{'\n'})
	h.Write([]byte(row.Cmd))
	return hex.EncodeToString(h.Sum(nil))
}
