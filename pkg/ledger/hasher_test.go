package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHashBlock_Deterministic(t *testing.T) {
	t.Parallel()
	ts := time.Date(2017, 11, 9, 12, 0, 0, 123456789, time.UTC)
	data := MinedData{
		ProofOfWork:  "00ab",
		Transactions: []Transaction{{From: NetworkIssuer, To: "alice", Amount: 1}},
	}

	first := HashBlock(1, ts, data, "prev")
	second := HashBlock(1, ts, data, "prev")
	require.Equal(t, first, second)
	require.Len(t, first, 64)
}

func TestHashBlock_EachFieldMatters(t *testing.T) {
	t.Parallel()
	ts := time.Date(2017, 11, 9, 12, 0, 0, 0, time.UTC)
	base := HashBlock(1, ts, Text("data"), "prev")

	tests := []struct {
		name string
		hash string
	}{
		{"index", HashBlock(2, ts, Text("data"), "prev")},
		{"timestamp", HashBlock(1, ts.Add(time.Nanosecond), Text("data"), "prev")},
		{"data", HashBlock(1, ts, Text("date"), "prev")},
		{"previous hash", HashBlock(1, ts, Text("data"), "prev2")},
		{"payload kind", HashBlock(1, ts, MinedData{ProofOfWork: "data"}, "prev")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.NotEqual(t, base, tt.hash)
		})
	}
}

func TestHashBlock_FieldBoundaries(t *testing.T) {
	t.Parallel()
	ts := time.Date(2017, 11, 9, 12, 0, 0, 0, time.UTC)
	// Shifting characters between adjacent fields must change the digest.
	a := HashBlock(1, ts, Text("ab"), "c")
	b := HashBlock(1, ts, Text("a"), "bc")
	require.NotEqual(t, a, b)
}

func TestHashBlock_TimestampZoneIndependent(t *testing.T) {
	t.Parallel()
	utc := time.Date(2017, 11, 9, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("UTC+5", 5*60*60))
	require.Equal(t, HashBlock(0, utc, GenesisText, "0"), HashBlock(0, local, GenesisText, "0"))
}

func TestMinedData_CanonicalNilTransactions(t *testing.T) {
	t.Parallel()
	withNil := MinedData{ProofOfWork: "00"}
	withEmpty := MinedData{ProofOfWork: "00", Transactions: []Transaction{}}
	require.Equal(t, withEmpty.canonical(), withNil.canonical())
	require.JSONEq(t, `{"proof_of_work":"00","transactions":[]}`, string(withNil.canonical()))
}
