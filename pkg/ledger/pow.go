package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DefaultDifficulty is the number of leading zeros required when no difficulty
// is configured.
const DefaultDifficulty = 2

// ProofOfWork checks candidate messages against a fixed difficulty.
type ProofOfWork struct {
	Difficulty uint
}

// Work returns the hex SHA-256 digest of previousHash immediately followed by message.
func Work(previousHash, message string) string {
	sum := sha256.Sum256([]byte(previousHash + message))
	return hex.EncodeToString(sum[:])
}

// MeetsDifficulty reports whether digest starts with difficulty '0' characters.
func MeetsDifficulty(digest string, difficulty uint) bool {
	if difficulty > uint(len(digest)) {
		return false
	}
	return strings.Count(digest[:difficulty], "0") == int(difficulty)
}

// Search makes a single attempt with message against previousHash. It returns
// the digest and true when the digest meets the difficulty, "" and false otherwise.
func (p ProofOfWork) Search(previousHash, message string) (string, bool) {
	digest := Work(previousHash, message)
	if !MeetsDifficulty(digest, p.Difficulty) {
		return "", false
	}
	return digest, true
}
