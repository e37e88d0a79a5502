package inmemory

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/ava-labs/britcoin/pkg/ledger"
)

// ErrDuplicateIndex is returned when a record with an already stored index is appended.
var ErrDuplicateIndex = errors.New("block index already stored")

var _ ledger.Store = (*LedgerRepository)(nil)

// LedgerRepository is a thread-safe in-memory implementation of ledger.Store.
// Its contents live for the lifetime of the process.
type LedgerRepository struct {
	mu      sync.Mutex
	records []ledger.Record
	indices map[uint64]struct{}
}

// NewLedgerRepository creates an empty repository, optionally seeded with records.
func NewLedgerRepository(seed ...ledger.Record) *LedgerRepository {
	r := &LedgerRepository{
		indices: make(map[uint64]struct{}, len(seed)),
	}
	for _, rec := range seed {
		r.records = append(r.records, cloneRecord(rec))
		r.indices[rec.Index] = struct{}{}
	}
	return r
}

// LoadAll returns copies of the stored records ordered by index ascending.
func (r *LedgerRepository) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]ledger.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, cloneRecord(rec))
	}
	slices.SortStableFunc(out, func(a, b ledger.Record) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return out, nil
}

// Append stores a copy of record. Indices are unique.
func (r *LedgerRepository) Append(ctx context.Context, record ledger.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.indices[record.Index]; ok {
		return ErrDuplicateIndex
	}
	r.indices[record.Index] = struct{}{}
	r.records = append(r.records, cloneRecord(record))
	return nil
}

// Len returns the number of stored records.
func (r *LedgerRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

func cloneRecord(rec ledger.Record) ledger.Record {
	rec.Data = slices.Clone(rec.Data)
	return rec
}
