package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ava-labs/britcoin/pkg/kafka/message"
)

type mockMiner struct {
	mock.Mock
}

func (m *mockMiner) Mine(ctx context.Context, contributor, msg string) (bool, error) {
	args := m.Called(ctx, contributor, msg)
	return args.Bool(0), args.Error(1)
}

func kafkaMsg(t *testing.T, msgType string, data any) *cKafka.Message {
	t.Helper()
	raw, err := message.Seal(msgType, "", time.Now(), data)
	require.NoError(t, err)
	topic := "mine-requests"
	return &cKafka.Message{
		TopicPartition: cKafka.TopicPartition{Topic: &topic},
		Value:          raw,
	}
}

func TestMineProcessor_Process(t *testing.T) {
	t.Parallel()
	miner := &mockMiner{}
	miner.On("Mine", mock.Anything, "bob", "hi").Return(true, nil).Once()
	miner.On("Mine", mock.Anything, "alice", "").Return(false, nil).Once()

	p := NewMineProcessor(miner, zaptest.NewLogger(t).Sugar())
	require.NoError(t, p.Process(t.Context(), kafkaMsg(t, message.TypeMineRequest, MineRequest{Contributor: "bob", Message: "hi"})))
	require.NoError(t, p.Process(t.Context(), kafkaMsg(t, message.TypeMineRequest, MineRequest{Contributor: "alice"})))
	miner.AssertExpectations(t)
}

func TestMineProcessor_InvalidMessages(t *testing.T) {
	t.Parallel()
	miner := &mockMiner{}
	p := NewMineProcessor(miner, zaptest.NewLogger(t).Sugar())

	tests := []struct {
		name string
		msg  *cKafka.Message
	}{
		{"garbage", &cKafka.Message{Value: []byte("garbage")}},
		{"wrong type", kafkaMsg(t, message.TypeBlockMined, MineRequest{Contributor: "bob"})},
		{"missing contributor", kafkaMsg(t, message.TypeMineRequest, MineRequest{Message: "hi"})},
		{"bad payload", kafkaMsg(t, message.TypeMineRequest, []int{1, 2})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, p.Process(t.Context(), tt.msg), ErrInvalidMessage)
		})
	}
	miner.AssertNotCalled(t, "Mine", mock.Anything, mock.Anything, mock.Anything)
}

func TestMineProcessor_LedgerErrorIsNotInvalid(t *testing.T) {
	t.Parallel()
	storeErr := errors.New("persist failed")
	miner := &mockMiner{}
	miner.On("Mine", mock.Anything, "bob", "hi").Return(true, storeErr)

	p := NewMineProcessor(miner, zaptest.NewLogger(t).Sugar())
	err := p.Process(t.Context(), kafkaMsg(t, message.TypeMineRequest, MineRequest{Contributor: "bob", Message: "hi"}))
	require.ErrorIs(t, err, storeErr)
	require.NotErrorIs(t, err, ErrInvalidMessage)
}
