package processor

import (
	"context"
	"errors"

	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// ErrInvalidMessage marks a message that can never be processed. The consumer
// routes it to the dead letter topic and commits past it instead of stopping.
var ErrInvalidMessage = errors.New("invalid message")

type Processor interface {
	Process(ctx context.Context, msg *cKafka.Message) error
}
