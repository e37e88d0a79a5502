package ledger

import "errors"

var (
	// ErrEmptyChain is returned when the chain is read before Initialize.
	ErrEmptyChain = errors.New("chain has no blocks")
	// ErrMalformedRecord is returned when a persisted record is missing required fields
	// or carries a payload that cannot be decoded.
	ErrMalformedRecord = errors.New("malformed block record")
	// ErrPersistence is returned when a block was appended in memory but the store
	// failed to write it.
	ErrPersistence = errors.New("failed to persist block")
)
