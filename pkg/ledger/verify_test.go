package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func buildChain(t *testing.T, n int) []*Block {
	t.Helper()
	ts := time.Date(2017, 11, 9, 12, 0, 0, 0, time.UTC)
	blocks := []*Block{NewGenesisBlock(ts)}
	for i := 1; i < n; i++ {
		prev := blocks[i-1]
		data := MinedData{
			ProofOfWork:  Work(prev.Hash(), "msg"),
			Transactions: []Transaction{{From: NetworkIssuer, To: "alice", Amount: 1}},
		}
		blocks = append(blocks, NewBlock(uint64(i), ts.Add(time.Duration(i)*time.Second), data, prev.Hash()))
	}
	return blocks
}

func TestVerify_ValidChain(t *testing.T) {
	t.Parallel()
	require.NoError(t, Verify(buildChain(t, 5)))
	require.NoError(t, Verify(nil))
}

func TestVerify_Detects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(blocks []*Block) []*Block
	}{
		{
			name: "genesis with wrong previous hash",
			mutate: func(blocks []*Block) []*Block {
				blocks[0] = NewBlock(0, blocks[0].Timestamp(), GenesisText, "1")
				return blocks
			},
		},
		{
			name: "broken link",
			mutate: func(blocks []*Block) []*Block {
				b := blocks[2]
				blocks[2] = NewBlock(b.Index(), b.Timestamp(), b.Data(), "deadbeef")
				return blocks
			},
		},
		{
			name: "index gap",
			mutate: func(blocks []*Block) []*Block {
				return append(blocks[:2:2], blocks[3:]...)
			},
		},
		{
			name: "tampered data with stored hash",
			mutate: func(blocks []*Block) []*Block {
				rec := blocks[1].Record()
				rec.Data = EncodePayload(MinedData{ProofOfWork: "00", Transactions: []Transaction{{From: NetworkIssuer, To: "mallory", Amount: 100}}})
				tampered, err := RestoreBlock(rec)
				require.NoError(t, err)
				blocks[1] = tampered
				return blocks
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			blocks := tt.mutate(buildChain(t, 4))
			require.ErrorIs(t, Verify(blocks), ErrInvalidChain)
		})
	}
}

func TestVerify_RestoredBlocksRecomputeSameHash(t *testing.T) {
	t.Parallel()
	blocks := buildChain(t, 3)
	restored := make([]*Block, 0, len(blocks))
	for _, b := range blocks {
		r, err := RestoreBlock(b.Record())
		require.NoError(t, err)
		restored = append(restored, r)
	}
	require.NoError(t, Verify(restored))
}
