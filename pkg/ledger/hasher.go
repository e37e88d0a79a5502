package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// TimestampLayout is the canonical rendering of block timestamps.
const TimestampLayout = time.RFC3339Nano

// HashBlock returns the hex-encoded SHA-256 digest of a block's fields.
//
// Fields are written in the order index, timestamp, data, previous_hash, each
// prefixed with its byte length, so two different field tuples can never
// serialize to the same input.
func HashBlock(index uint64, timestamp time.Time, data Payload, previousHash string) string {
	h := sha256.New()
	writeField(h, []byte(strconv.FormatUint(index, 10)))
	writeField(h, []byte(FormatTimestamp(timestamp)))
	writeField(h, data.canonical())
	writeField(h, []byte(previousHash))
	return hex.EncodeToString(h.Sum(nil))
}

// FormatTimestamp renders t in the canonical layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type byteWriter interface {
	Write(p []byte) (int, error)
}

func writeField(w byteWriter, field []byte) {
	// hash.Hash writes never fail
	_, _ = w.Write([]byte(strconv.Itoa(len(field))))
	_, _ = w.Write([]byte{':'})
	_, _ = w.Write(field)
}
