package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// NetworkIssuer is the sender of every mining reward.
const NetworkIssuer = "network"

// Transaction is a transfer record embedded in mined block data.
type Transaction struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// Payload is the data carried by a block: Text for the genesis block and
// MinedData for every mined block.
type Payload interface {
	// canonical returns the stable JSON rendering that is hashed and persisted.
	canonical() []byte
	clone() Payload
}

// Text is an opaque textual payload.
type Text string

func (t Text) canonical() []byte {
	// encoding a string never fails
	b, _ := json.Marshal(string(t))
	return b
}

func (t Text) clone() Payload { return t }

// MinedData is the payload of a mined block.
type MinedData struct {
	ProofOfWork  string        `json:"proof_of_work"`
	Transactions []Transaction `json:"transactions"`
}

func (d MinedData) canonical() []byte {
	if d.Transactions == nil {
		d.Transactions = []Transaction{}
	}
	// strings and integers in fixed field order always encode
	b, _ := json.Marshal(d)
	return b
}

func (d MinedData) clone() Payload {
	d.Transactions = slices.Clone(d.Transactions)
	return d
}

// EncodePayload returns the JSON form of p as stored in a Record.
func EncodePayload(p Payload) json.RawMessage {
	return p.canonical()
}

// DecodePayload parses the JSON form of a payload. A JSON string decodes to
// Text and a JSON object decodes to MinedData.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty data", ErrMalformedRecord)
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("%w: text data: %w", ErrMalformedRecord, err)
		}
		return Text(s), nil
	case '{':
		var d MinedData
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return nil, fmt.Errorf("%w: mined data: %w", ErrMalformedRecord, err)
		}
		if d.ProofOfWork == "" {
			return nil, fmt.Errorf("%w: mined data without proof_of_work", ErrMalformedRecord)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unsupported data %q", ErrMalformedRecord, trimmed[0])
	}
}
