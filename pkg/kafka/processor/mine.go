package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/ava-labs/britcoin/pkg/kafka/message"
)

// MineRequest asks the ledger to attempt one block on behalf of Contributor.
type MineRequest struct {
	Contributor string `json:"contributor"`
	Message     string `json:"message"`
}

// Miner is the ledger operation a MineProcessor drives.
type Miner interface {
	Mine(ctx context.Context, contributor, msg string) (bool, error)
}

// MineProcessor turns mine_request envelopes into mining attempts.
type MineProcessor struct {
	miner Miner
	log   *zap.SugaredLogger
}

var _ Processor = (*MineProcessor)(nil)

func NewMineProcessor(miner Miner, log *zap.SugaredLogger) *MineProcessor {
	return &MineProcessor{miner: miner, log: log}
}

// Process decodes msg and runs one mining attempt. A failed proof is not an
// error. Ledger errors are returned unwrapped from ErrInvalidMessage so the
// consumer stops without committing and the request is replayed.
func (p *MineProcessor) Process(ctx context.Context, msg *cKafka.Message) error {
	req, err := DecodeMineRequest(msg.Value)
	if err != nil {
		return err
	}

	mined, err := p.miner.Mine(ctx, req.Contributor, req.Message)
	if err != nil {
		return fmt.Errorf("mine for %q: %w", req.Contributor, err)
	}

	p.log.Debugw("mine request processed",
		"contributor", req.Contributor,
		"mined", mined,
		"partition", msg.TopicPartition.Partition,
		"offset", msg.TopicPartition.Offset,
	)
	return nil
}

// DecodeMineRequest opens a mine_request envelope.
func DecodeMineRequest(raw []byte) (MineRequest, error) {
	env, err := message.Open(raw)
	if err != nil {
		return MineRequest{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if env.Type != message.TypeMineRequest {
		return MineRequest{}, fmt.Errorf("%w: unexpected type %q", ErrInvalidMessage, env.Type)
	}

	var req MineRequest
	if err := json.Unmarshal(env.Data, &req); err != nil {
		return MineRequest{}, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(req.Contributor) == "" {
		return MineRequest{}, fmt.Errorf("%w: missing contributor", ErrInvalidMessage)
	}
	return req, nil
}
