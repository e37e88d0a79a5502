package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

// Block is one immutable link in the chain.
type Block struct {
	index        uint64
	timestamp    time.Time
	data         Payload
	previousHash string
	hash         string
}

// NewBlock builds a block and freezes its hash.
func NewBlock(index uint64, timestamp time.Time, data Payload, previousHash string) *Block {
	ts := timestamp.UTC().Round(0)
	data = data.clone()
	return &Block{
		index:        index,
		timestamp:    ts,
		data:         data,
		previousHash: previousHash,
		hash:         HashBlock(index, ts, data, previousHash),
	}
}

func (b *Block) Index() uint64        { return b.index }
func (b *Block) Timestamp() time.Time { return b.timestamp }
func (b *Block) PreviousHash() string { return b.previousHash }
func (b *Block) Hash() string         { return b.hash }

// Data returns a copy of the block payload.
func (b *Block) Data() Payload { return b.data.clone() }

// Record is the persisted form of a block.
type Record struct {
	Index        uint64          `json:"index"`
	Timestamp    time.Time       `json:"timestamp"`
	Data         json.RawMessage `json:"data"`
	PreviousHash string          `json:"previous_hash"`
	Hash         string          `json:"hash"`
}

// Validate reports ErrMalformedRecord when a required field is missing.
func (r Record) Validate() error {
	switch {
	case r.Hash == "":
		return fmt.Errorf("%w: block %d has no hash", ErrMalformedRecord, r.Index)
	case r.PreviousHash == "":
		return fmt.Errorf("%w: block %d has no previous_hash", ErrMalformedRecord, r.Index)
	case r.Timestamp.IsZero():
		return fmt.Errorf("%w: block %d has no timestamp", ErrMalformedRecord, r.Index)
	case len(r.Data) == 0:
		return fmt.Errorf("%w: block %d has no data", ErrMalformedRecord, r.Index)
	}
	return nil
}

// Record returns the persisted form of the block.
func (b *Block) Record() Record {
	return Record{
		Index:        b.index,
		Timestamp:    b.timestamp,
		Data:         EncodePayload(b.data),
		PreviousHash: b.previousHash,
		Hash:         b.hash,
	}
}

// RestoreBlock rebuilds a block from a persisted record. The stored hash is
// trusted as-is; use Verify to recompute it.
func RestoreBlock(r Record) (*Block, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	data, err := DecodePayload(r.Data)
	if err != nil {
		return nil, fmt.Errorf("block %d: %w", r.Index, err)
	}
	return &Block{
		index:        r.Index,
		timestamp:    r.Timestamp.UTC(),
		data:         data,
		previousHash: r.PreviousHash,
		hash:         r.Hash,
	}, nil
}
