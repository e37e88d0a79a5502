package inmemory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ava-labs/britcoin/pkg/ledger"
)

func record(index uint64) ledger.Record {
	return ledger.Record{
		Index:        index,
		Timestamp:    time.Unix(1700000000+int64(index), 0).UTC(),
		Data:         json.RawMessage(`"block"`),
		PreviousHash: "prev",
		Hash:         "hash",
	}
}

func TestLedgerRepository_EmptyLoad(t *testing.T) {
	t.Parallel()
	r := NewLedgerRepository()
	got, err := r.LoadAll(t.Context())
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLedgerRepository_LoadAllOrdersByIndex(t *testing.T) {
	t.Parallel()
	r := NewLedgerRepository(record(2), record(0))
	require.NoError(t, r.Append(t.Context(), record(1)))

	got, err := r.LoadAll(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, rec := range got {
		require.Equal(t, uint64(i), rec.Index)
	}
}

func TestLedgerRepository_DuplicateIndex(t *testing.T) {
	t.Parallel()
	r := NewLedgerRepository()
	require.NoError(t, r.Append(t.Context(), record(0)))
	require.ErrorIs(t, r.Append(t.Context(), record(0)), ErrDuplicateIndex)
	require.Equal(t, 1, r.Len())
}

func TestLedgerRepository_ReturnsCopies(t *testing.T) {
	t.Parallel()
	r := NewLedgerRepository()
	rec := record(0)
	require.NoError(t, r.Append(t.Context(), rec))
	rec.Data[1] = 'X'

	got, err := r.LoadAll(t.Context())
	require.NoError(t, err)
	require.JSONEq(t, `"block"`, string(got[0].Data))

	got[0].Data[1] = 'Y'
	again, err := r.LoadAll(t.Context())
	require.NoError(t, err)
	require.JSONEq(t, `"block"`, string(again[0].Data))
}

func TestLedgerRepository_CanceledContext(t *testing.T) {
	t.Parallel()
	r := NewLedgerRepository()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := r.LoadAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, r.Append(ctx, record(0)), context.Canceled)
	require.Zero(t, r.Len())
}
