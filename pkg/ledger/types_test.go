package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDecodePayload(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		want    Payload
		wantErr bool
	}{
		{
			name: "text",
			raw:  `"Happy Birthday"`,
			want: Text("Happy Birthday"),
		},
		{
			name: "mined",
			raw:  `{"proof_of_work":"00ab","transactions":[{"from":"network","to":"bob","amount":1}]}`,
			want: MinedData{
				ProofOfWork:  "00ab",
				Transactions: []Transaction{{From: NetworkIssuer, To: "bob", Amount: 1}},
			},
		},
		{name: "empty", raw: ``, wantErr: true},
		{name: "number", raw: `42`, wantErr: true},
		{name: "mined without proof", raw: `{"transactions":[]}`, wantErr: true},
		{name: "broken json", raw: `{"proof_of_work":`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodePayload(json.RawMessage(tt.raw))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedRecord)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBlock_DataIsCopied(t *testing.T) {
	t.Parallel()
	txs := []Transaction{{From: NetworkIssuer, To: "alice", Amount: 1}}
	b := NewBlock(1, time.Now(), MinedData{ProofOfWork: "00", Transactions: txs}, "prev")
	hash := b.Hash()

	txs[0].To = "mallory"
	data := b.Data().(MinedData)
	require.Equal(t, "alice", data.Transactions[0].To)

	data.Transactions[0].Amount = 100
	require.Equal(t, int64(1), b.Data().(MinedData).Transactions[0].Amount)
	require.Equal(t, hash, b.Hash())
}

func TestRecord_Validate(t *testing.T) {
	t.Parallel()
	valid := NewGenesisBlock(time.Unix(1700000000, 0)).Record()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *Record)
	}{
		{"missing hash", func(r *Record) { r.Hash = "" }},
		{"missing previous hash", func(r *Record) { r.PreviousHash = "" }},
		{"missing timestamp", func(r *Record) { r.Timestamp = time.Time{} }},
		{"missing data", func(r *Record) { r.Data = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := valid
			tt.mutate(&r)
			require.ErrorIs(t, r.Validate(), ErrMalformedRecord)
			_, err := RestoreBlock(r)
			require.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestRecord_JSONLayout(t *testing.T) {
	t.Parallel()
	rec := NewGenesisBlock(time.Date(2017, 11, 9, 12, 0, 0, 0, time.UTC)).Record()
	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	require.ElementsMatch(t,
		[]string{"index", "timestamp", "data", "previous_hash", "hash"},
		keys(fields),
	)
	require.JSONEq(t, `"2017-11-09T12:00:00Z"`, string(fields["timestamp"]))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
