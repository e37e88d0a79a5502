package blockrepo

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ava-labs/britcoin/pkg/clickhouse"
	"github.com/ava-labs/britcoin/pkg/ledger"
)

// DefaultTableName is the table the ledger uses when none is configured.
const DefaultTableName = "britcoin_blocks"

//go:embed queries/create-table.sql
var createTableQuery string

//go:embed queries/insert-block.sql
var insertBlockQuery string

//go:embed queries/select-blocks.sql
var selectBlocksQuery string

//go:embed queries/drop-table.sql
var dropTableQuery string

// Repository stores ledger blocks in ClickHouse, one row per block. It
// implements ledger.Store.
type Repository struct {
	client    clickhouse.Client
	database  string
	tableName string
}

var _ ledger.Store = (*Repository)(nil)

// NewRepository creates the repository and ensures its table exists.
func NewRepository(ctx context.Context, client clickhouse.Client, database, tableName string) (*Repository, error) {
	repo := &Repository{client: client, database: database, tableName: tableName}
	if err := repo.CreateTableIfNotExists(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

// CreateTableIfNotExists creates the blocks table. Schema:
//   - block_index: UInt64 (sort key)
//   - block_time: DateTime64(9, 'UTC'), nanoseconds are kept so reloaded
//     timestamps hash the same
//   - data: String, the payload JSON
//   - previous_hash, hash: String
func (r *Repository) CreateTableIfNotExists(ctx context.Context) error {
	query := fmt.Sprintf(createTableQuery, r.database, r.tableName)
	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create blocks table: %w", err)
	}
	return nil
}

// Append inserts one block row.
func (r *Repository) Append(ctx context.Context, record ledger.Record) error {
	query := fmt.Sprintf(insertBlockQuery, r.database, r.tableName)
	err := r.client.Conn().Exec(ctx, query,
		record.Index,
		record.Timestamp.UTC(),
		string(record.Data),
		record.PreviousHash,
		record.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to insert block %d: %w", record.Index, err)
	}
	return nil
}

// LoadAll reads every block ordered by index ascending.
func (r *Repository) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	query := fmt.Sprintf(selectBlocksQuery, r.database, r.tableName)
	rows, err := r.client.Conn().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query blocks: %w", err)
	}
	defer rows.Close()

	records := []ledger.Record{}
	for rows.Next() {
		var (
			rec  ledger.Record
			ts   time.Time
			data string
		)
		if err := rows.Scan(&rec.Index, &ts, &data, &rec.PreviousHash, &rec.Hash); err != nil {
			return nil, fmt.Errorf("failed to scan block row: %w", err)
		}
		rec.Timestamp = ts.UTC()
		rec.Data = json.RawMessage(data)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read block rows: %w", err)
	}
	return records, nil
}

// DropTable removes the blocks table and every stored block.
func (r *Repository) DropTable(ctx context.Context) error {
	query := fmt.Sprintf(dropTableQuery, r.database, r.tableName)
	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to drop blocks table: %w", err)
	}
	return nil
}
