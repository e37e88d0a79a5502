package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
)

// Msg is a message to produce. Headers are sent in key order.
type Msg struct {
	Topic   string
	Value   []byte
	Key     []byte
	Headers map[string]string
}

// ProducerConfig holds the settings for block announcements and dead letters.
type ProducerConfig struct {
	BootstrapServers string
	ClientID         string
	EnableLogs       bool
}

// ConfigMap returns idempotent, fully acknowledged producer settings so an
// announced block is never reordered or silently lost on retry.
func (cfg ProducerConfig) ConfigMap() *kafka.ConfigMap {
	return &kafka.ConfigMap{
		"bootstrap.servers":      cfg.BootstrapServers,
		"client.id":              cfg.ClientID,
		"acks":                   "all",
		"enable.idempotence":     true,
		"linger.ms":              5,
		"compression.type":       "lz4",
		"go.logs.channel.enable": cfg.EnableLogs,
	}
}

// errEventsClosed reports that librdkafka closed the events channel under us.
var errEventsClosed = errors.New("kafka producer events channel closed")

const queueFullRetryDelay = time.Second

// Producer publishes announcements and dead letters and waits for each
// delivery receipt. Close must be called to flush and stop its goroutines.
type Producer struct {
	producer   *kafka.Producer
	log        *zap.SugaredLogger
	errCh      chan error
	eventsDone chan struct{}
	logsDone   chan struct{}
	closedCh   chan struct{}
	once       sync.Once
}

// NewProducer creates a Producer. ctx bounds the background goroutines.
func NewProducer(ctx context.Context, conf *kafka.ConfigMap, log *zap.SugaredLogger) (*Producer, error) {
	p, err := kafka.NewProducer(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	forwardLogs, err := conf.Get("go.logs.channel.enable", false)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to get go.logs.channel.enable: %w", err)
	}

	q := &Producer{
		producer:   p,
		log:        log,
		errCh:      make(chan error, 1),
		eventsDone: make(chan struct{}),
		logsDone:   make(chan struct{}),
		closedCh:   make(chan struct{}),
	}
	if forwardLogs.(bool) {
		go q.forwardLogs(ctx)
	} else {
		close(q.logsDone)
	}
	go q.watchEvents(ctx)
	return q, nil
}

// Produce enqueues msg and blocks until its delivery receipt arrives or ctx
// is done. A full local queue is retried every second. After a ctx error the
// message may still be delivered.
func (q *Producer) Produce(ctx context.Context, msg Msg) error {
	deliveryCh := make(chan kafka.Event, 1)
	kMsg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &msg.Topic,
			Partition: kafka.PartitionAny,
		},
		Value:   msg.Value,
		Key:     msg.Key,
		Headers: toHeaders(msg.Headers),
	}

	if err := q.enqueue(ctx, kMsg, deliveryCh); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-deliveryCh:
		return handleDeliveryEvent(q.log, kMsg, e)
	}
}

func (q *Producer) enqueue(ctx context.Context, msg *kafka.Message, deliveryCh chan kafka.Event) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := q.producer.Produce(msg, deliveryCh)
		if err == nil {
			return nil
		}
		var kErr kafka.Error
		if !errors.As(err, &kErr) || kErr.Code() != kafka.ErrQueueFull {
			return fmt.Errorf("failed to produce to %s: %w", *msg.TopicPartition.Topic, err)
		}

		q.log.Warnw("producer queue full, retrying", "delay", queueFullRetryDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(queueFullRetryDelay):
		}
	}
}

// Close stops the background goroutines, flushes for up to timeout and
// releases the producer. Later calls do nothing.
func (q *Producer) Close(timeout time.Duration) {
	q.once.Do(func() {
		defer close(q.errCh)
		close(q.closedCh)
		<-q.eventsDone
		<-q.logsDone

		if pending := q.producer.Flush(int(timeout.Milliseconds())); pending > 0 {
			q.log.Warnw("producer flush incomplete, messages lost", "pending", pending)
		}
		q.producer.Close()
		q.log.Info("kafka producer closed")
	})
}

// Errors delivers at most one fatal error and is closed by Close. The
// producer is unusable after an error.
func (q *Producer) Errors() <-chan error {
	return q.errCh
}

func (q *Producer) forwardLogs(ctx context.Context) {
	defer close(q.logsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case l, ok := <-q.producer.Logs():
			if !ok {
				return
			}
			q.log.Debugw("librdkafka", "level", l.Level, "tag", l.Tag, "message", l.Message)
		}
	}
}

func (q *Producer) watchEvents(ctx context.Context) {
	defer close(q.eventsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closedCh:
			return
		case ev, ok := <-q.producer.Events():
			if !ok {
				q.errCh <- errEventsClosed
				return
			}
			if err := fatalEvent(ev); err != nil {
				q.errCh <- err
				return
			}
			q.log.Debugw("kafka producer event", "event", ev.String())
		}
	}
}

// fatalEvent returns an error when ev leaves the producer unusable.
func fatalEvent(ev kafka.Event) error {
	e, ok := ev.(kafka.Error)
	if !ok {
		return nil
	}
	if e.IsFatal() || e.Code() == kafka.ErrAllBrokersDown {
		return fmt.Errorf("kafka producer failed (code %#x): %w", e.Code(), e)
	}
	return nil
}

func handleDeliveryEvent(log *zap.SugaredLogger, msg *kafka.Message, ev kafka.Event) error {
	e, ok := ev.(*kafka.Message)
	if !ok {
		return fmt.Errorf("unexpected delivery event: %T", ev)
	}
	if err := e.TopicPartition.Error; err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}

	log.Debugw("message delivered",
		"topic", *msg.TopicPartition.Topic,
		"partition", e.TopicPartition.Partition,
		"offset", e.TopicPartition.Offset,
	)
	return nil
}

func toHeaders(h map[string]string) []kafka.Header {
	if len(h) == 0 {
		return nil
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafka.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(h[k])})
	}
	return headers
}
