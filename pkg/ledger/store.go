package ledger

import (
	"context"
	"fmt"
)

// Store is the durable persistence boundary for blocks.
type Store interface {
	// LoadAll returns every persisted record ordered by index ascending. An
	// empty slice means the ledger is fresh.
	LoadAll(ctx context.Context) ([]Record, error)

	// Append durably writes one record.
	Append(ctx context.Context, record Record) error
}

// LoadBlocks restores every persisted block in store order. It fails on the
// first malformed record and never writes to the store.
func LoadBlocks(ctx context.Context, store Store) ([]*Block, error) {
	records, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load blocks: %w", err)
	}

	blocks := make([]*Block, 0, len(records))
	for _, r := range records {
		b, err := RestoreBlock(r)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}
