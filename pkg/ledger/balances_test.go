package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBalances(t *testing.T) {
	t.Parallel()
	ts := time.Unix(1700000000, 0)
	genesis := NewGenesisBlock(ts)
	b1 := NewBlock(1, ts, MinedData{
		ProofOfWork:  "00",
		Transactions: []Transaction{{From: NetworkIssuer, To: "alice", Amount: 1}},
	}, genesis.Hash())
	b2 := NewBlock(2, ts, MinedData{
		ProofOfWork: "00",
		Transactions: []Transaction{
			{From: "alice", To: "bob", Amount: 1},
			{From: NetworkIssuer, To: "bob", Amount: 1},
		},
	}, b1.Hash())

	got := Balances([]*Block{genesis, b1, b2})
	require.Equal(t, map[string]int64{"alice": 0, "bob": 2}, got)
	require.NotContains(t, got, NetworkIssuer)
}

func TestBalances_GenesisOnly(t *testing.T) {
	t.Parallel()
	require.Empty(t, Balances([]*Block{NewGenesisBlock(time.Now())}))
}
