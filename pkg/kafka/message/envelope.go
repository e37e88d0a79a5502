package message

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Message types carried on the ledger topics.
const (
	TypeBlockMined  = "block_mined"
	TypeMineRequest = "mine_request"
)

// CurrentVersion is the envelope schema version written by this module.
const CurrentVersion = 1

var ErrUnsupportedVersion = errors.New("unsupported envelope version")

// Envelope wraps every Kafka payload with its type and schema version so
// consumers can reject what they do not understand before decoding Data.
type Envelope struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	ID      string          `json:"id,omitempty"`
	TS      time.Time       `json:"ts"`
	Data    json.RawMessage `json:"data"`
}

// Open decodes an envelope and checks its version.
func Open(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	if env.Version != CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	return &env, nil
}

// Seal marshals v into an envelope of the given type and returns its JSON.
func Seal(msgType, id string, ts time.Time, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", msgType, err)
	}
	return json.Marshal(Envelope{
		Type:    msgType,
		Version: CurrentVersion,
		ID:      id,
		TS:      ts.UTC(),
		Data:    data,
	})
}
