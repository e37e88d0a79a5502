package blockrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ava-labs/britcoin/pkg/ledger"
)

// DefaultKey is the list the ledger uses when none is configured.
const DefaultKey = "britcoin:blocks"

// ErrIndexConflict is returned when an appended record's index does not
// equal the current length of the stored chain.
var ErrIndexConflict = errors.New("block index does not extend the stored chain")

// appendScript pushes ARGV[2] onto KEYS[1] only when the list holds exactly
// ARGV[1] entries. It returns the new length, or -1 on conflict.
const appendScript = `
local n = redis.call('LLEN', KEYS[1])
if n ~= tonumber(ARGV[1]) then
	return -1
end
return redis.call('RPUSH', KEYS[1], ARGV[2])
`

// Client is the subset of redis.UniversalClient the repository uses.
type Client interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Repository stores ledger blocks as JSON records in a single Redis list,
// one entry per block in index order. It implements ledger.Store.
type Repository struct {
	client Client
	key    string
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository creates a repository over the list at key.
func NewRepository(client Client, key string) *Repository {
	if key == "" {
		key = DefaultKey
	}
	return &Repository{client: client, key: key}
}

// Append pushes one record. The push is atomic with the length check so two
// writers can never store the same index.
func (r *Repository) Append(ctx context.Context, record ledger.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode block %d: %w", record.Index, err)
	}

	n, err := r.client.Eval(ctx, appendScript, []string{r.key}, record.Index, string(raw)).Int64()
	if err != nil {
		return fmt.Errorf("failed to push block %d: %w", record.Index, err)
	}
	if n < 0 {
		return fmt.Errorf("%w: block %d", ErrIndexConflict, record.Index)
	}
	return nil
}

// LoadAll reads every stored record. List order is index order.
func (r *Repository) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	entries, err := r.client.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read blocks: %w", err)
	}

	records := make([]ledger.Record, 0, len(entries))
	for i, entry := range entries {
		var rec ledger.Record
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ledger.ErrMalformedRecord, i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Drop deletes the list and every stored block.
func (r *Repository) Drop(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to drop blocks list: %w", err)
	}
	return nil
}
