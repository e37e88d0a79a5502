package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ava-labs/britcoin/pkg/kafka/message"
	"github.com/ava-labs/britcoin/pkg/kafka/processor"
)

// NewTestLogger creates a test logger that writes to testing.T
func NewTestLogger(t *testing.T) *zap.SugaredLogger {
	return zaptest.NewLogger(t).Sugar()
}

// NewTestMessage creates a test Kafka message with the given topic, partition, and offset
func NewTestMessage(topic string, partition int32, offset int64, key, value []byte) *kafka.Message {
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &topic,
			Partition: partition,
			Offset:    kafka.Offset(offset),
		},
		Key:   key,
		Value: value,
	}
}

// NewMineRequest returns a sealed mine_request envelope for contributor with
// a random request ID.
func NewMineRequest(t *testing.T, contributor, msg string) []byte {
	t.Helper()
	raw, err := message.Seal(message.TypeMineRequest, uuid.New().String(), time.Now(),
		processor.MineRequest{Contributor: contributor, Message: msg})
	require.NoError(t, err)
	return raw
}

// NewMineRequestMessage wraps a sealed mine request in a Kafka message keyed
// by contributor.
func NewMineRequestMessage(t *testing.T, topic string, offset int64, contributor, msg string) *kafka.Message {
	t.Helper()
	return NewTestMessage(topic, 0, offset, []byte(contributor), NewMineRequest(t, contributor, msg))
}

// MockProcessor is a mock implementation of processor.Processor for testing
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, msg *kafka.Message) error {
	return m.Called(ctx, msg).Error(0)
}
