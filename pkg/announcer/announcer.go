// Package announcer publishes mined blocks so other services can follow the
// ledger without reading its store.
package announcer

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/ava-labs/britcoin/pkg/kafka"
	"github.com/ava-labs/britcoin/pkg/kafka/message"
	"github.com/ava-labs/britcoin/pkg/ledger"
)

// DefaultTopic carries block_mined envelopes.
const DefaultTopic = "britcoin-blocks"

// Producer is the synchronous produce call of kafka.Producer.
type Producer interface {
	Produce(ctx context.Context, msg kafka.Msg) error
}

// KafkaAnnouncer publishes each block as a block_mined envelope whose data is
// the block's persisted record. Messages are keyed by block index.
type KafkaAnnouncer struct {
	producer Producer
	topic    string
	log      *zap.SugaredLogger
}

func NewKafkaAnnouncer(producer Producer, topic string, log *zap.SugaredLogger) *KafkaAnnouncer {
	return &KafkaAnnouncer{producer: producer, topic: topic, log: log}
}

// Announce blocks until the broker acknowledges the message or ctx is done.
func (a *KafkaAnnouncer) Announce(ctx context.Context, block *ledger.Block) error {
	value, err := message.Seal(message.TypeBlockMined, block.Hash(), block.Timestamp(), block.Record())
	if err != nil {
		return err
	}

	msg := kafka.Msg{
		Topic:   a.topic,
		Key:     []byte(strconv.FormatUint(block.Index(), 10)),
		Value:   value,
		Headers: map[string]string{"type": message.TypeBlockMined},
	}
	if err := a.producer.Produce(ctx, msg); err != nil {
		return fmt.Errorf("failed to announce block %d: %w", block.Index(), err)
	}

	a.log.Debugw("block announced", "index", block.Index(), "hash", block.Hash(), "topic", a.topic)
	return nil
}
