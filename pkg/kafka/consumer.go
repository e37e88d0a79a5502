package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/ava-labs/britcoin/pkg/kafka/processor"
)

// Processing outcomes reported to ConsumerMetrics.
const (
	StatusProcessed    = "processed"
	StatusDeadLettered = "dead_lettered"
	StatusDropped      = "dropped"
	StatusFailed       = "failed"
)

// ConsumerConfig holds configuration for the Consumer.
type ConsumerConfig struct {
	BootstrapServers string
	GroupID          string
	Topic            string
	DLQTopic         string
	AutoOffsetReset  string
	SessionTimeout   time.Duration
	MaxPollInterval  time.Duration
	PollInterval     time.Duration
	EnableLogs       bool
}

// ConfigMap returns the librdkafka settings for cfg. Auto commit is off: the
// consumer commits each message only after it has been processed.
func (cfg ConsumerConfig) ConfigMap() *cKafka.ConfigMap {
	return &cKafka.ConfigMap{
		"bootstrap.servers":      cfg.BootstrapServers,
		"group.id":               cfg.GroupID,
		"auto.offset.reset":      cfg.AutoOffsetReset,
		"enable.auto.commit":     false,
		"session.timeout.ms":     int(cfg.SessionTimeout.Milliseconds()),
		"max.poll.interval.ms":   int(cfg.MaxPollInterval.Milliseconds()),
		"go.logs.channel.enable": cfg.EnableLogs,
	}
}

// Publisher is the producing half the consumer needs for dead letters.
type Publisher interface {
	Produce(ctx context.Context, msg Msg) error
}

// ConsumerMetrics receives one observation per handled message.
type ConsumerMetrics interface {
	ObserveMessage(status string, duration time.Duration)
}

type kafkaConsumer interface {
	SubscribeTopics(topics []string, rebalanceCb cKafka.RebalanceCb) error
	Poll(timeoutMs int) cKafka.Event
	CommitMessage(m *cKafka.Message) ([]cKafka.TopicPartition, error)
	Logs() chan cKafka.LogEvent
	Close() error
}

// Consumer reads mine requests one at a time and commits each offset after
// its message is handled, giving at-least-once delivery. Messages the
// processor marks invalid go to the DLQ topic; any other processing error
// stops the consumer without committing so the message is replayed.
type Consumer struct {
	consumer  kafkaConsumer
	processor processor.Processor
	dlq       Publisher
	metrics   ConsumerMetrics
	log       *zap.SugaredLogger
	cfg       ConsumerConfig
	logsDone  chan struct{}
	doneCh    chan struct{}
}

// NewConsumer creates a Consumer backed by a librdkafka consumer. dlq and m
// may be nil.
func NewConsumer(
	log *zap.SugaredLogger,
	cfg ConsumerConfig,
	p processor.Processor,
	dlq Publisher,
	m ConsumerMetrics,
) (*Consumer, error) {
	kc, err := cKafka.NewConsumer(cfg.ConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return newConsumer(kc, log, cfg, p, dlq, m), nil
}

func newConsumer(
	kc kafkaConsumer,
	log *zap.SugaredLogger,
	cfg ConsumerConfig,
	p processor.Processor,
	dlq Publisher,
	m ConsumerMetrics,
) *Consumer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Millisecond
	}
	return &Consumer{
		consumer:  kc,
		processor: p,
		dlq:       dlq,
		metrics:   m,
		log:       log,
		cfg:       cfg,
		logsDone:  make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start subscribes and processes messages until ctx is done or a fatal
// error occurs. It closes the underlying consumer before returning and
// must be called at most once.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cfg.EnableLogs {
		go c.printKafkaLogs(ctx)
	} else {
		close(c.logsDone)
	}

	if err := c.consumer.SubscribeTopics([]string{c.cfg.Topic}, c.rebalanceCallback); err != nil {
		return c.close(fmt.Errorf("failed to subscribe to topics: %w", err))
	}
	c.log.Infow("consumer subscribed", "topic", c.cfg.Topic, "groupID", c.cfg.GroupID)

	pollMs := int(c.cfg.PollInterval.Milliseconds())
	for {
		select {
		case <-ctx.Done():
			c.log.Info("context done, shutting down consumer...")
			return c.close(nil)
		default:
		}

		switch ev := c.consumer.Poll(pollMs).(type) {
		case nil:
			continue
		case *cKafka.Message:
			if err := c.handle(ctx, ev); err != nil {
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					c.log.Infow("shutdown interrupted message, it will be redelivered",
						"partition", ev.TopicPartition.Partition,
						"offset", ev.TopicPartition.Offset,
					)
					return c.close(nil)
				}
				c.log.Errorw("error from consumer, shutting down consumer", "error", err)
				return c.close(err)
			}
		case cKafka.Error:
			if ev.IsFatal() {
				c.log.Errorw("fatal kafka error", "error", ev)
				return c.close(fmt.Errorf("fatal kafka error: %w", ev))
			}
			c.log.Warnw("kafka error (non-fatal)", "error", ev)
		default:
			c.log.Debugw("ignoring kafka event", "event", ev)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg *cKafka.Message) error {
	start := time.Now()
	status := StatusProcessed

	err := c.processor.Process(ctx, msg)
	switch {
	case err == nil:
	case errors.Is(err, processor.ErrInvalidMessage):
		c.log.Warnw("invalid message",
			"partition", msg.TopicPartition.Partition,
			"offset", msg.TopicPartition.Offset,
			"error", err,
		)
		published, pubErr := c.publishToDLQ(ctx, msg)
		if pubErr != nil {
			c.observe(StatusFailed, start)
			return pubErr
		}
		status = StatusDropped
		if published {
			status = StatusDeadLettered
		}
	default:
		c.observe(StatusFailed, start)
		return fmt.Errorf("failed to process message at offset %v: %w", msg.TopicPartition.Offset, err)
	}

	if _, err := c.consumer.CommitMessage(msg); err != nil {
		c.observe(StatusFailed, start)
		return fmt.Errorf("failed to commit offset %v: %w", msg.TopicPartition.Offset, err)
	}
	c.observe(status, start)
	return nil
}

// publishToDLQ forwards msg unchanged. With no DLQ configured the message is
// dropped and false is returned.
func (c *Consumer) publishToDLQ(ctx context.Context, msg *cKafka.Message) (bool, error) {
	if c.dlq == nil || c.cfg.DLQTopic == "" {
		c.log.Warnw("no DLQ configured, dropping invalid message",
			"offset", msg.TopicPartition.Offset,
		)
		return false, nil
	}

	if err := c.dlq.Produce(ctx, Msg{Topic: c.cfg.DLQTopic, Key: msg.Key, Value: msg.Value}); err != nil {
		return false, fmt.Errorf("failed to produce to DLQ: %w", err)
	}

	c.log.Infow("published message to DLQ",
		"originalPartition", msg.TopicPartition.Partition,
		"originalOffset", msg.TopicPartition.Offset,
		"dlqTopic", c.cfg.DLQTopic,
	)
	return true, nil
}

func (c *Consumer) observe(status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveMessage(status, time.Since(start))
	}
}

func (c *Consumer) close(cause error) error {
	close(c.doneCh)
	<-c.logsDone
	if err := c.consumer.Close(); err != nil {
		c.log.Errorw("failed to close consumer", "error", err)
		cause = errors.Join(cause, fmt.Errorf("failed to close consumer: %w", err))
	}
	c.log.Info("consumer shutdown complete")
	return cause
}

func (c *Consumer) rebalanceCallback(kc *cKafka.Consumer, event cKafka.Event) error {
	switch ev := event.(type) {
	case cKafka.AssignedPartitions:
		c.log.Infow("partitions assigned", "count", len(ev.Partitions), "partitions", ev.Partitions)
	case cKafka.RevokedPartitions:
		c.log.Infow("partitions revoked", "count", len(ev.Partitions), "partitions", ev.Partitions)
		if kc != nil && kc.AssignmentLost() {
			c.log.Warn("assignment lost involuntarily, uncommitted messages will be redelivered")
		}
	default:
		c.log.Warnw("unexpected rebalance event", "event", event)
	}
	return nil
}

func (c *Consumer) printKafkaLogs(ctx context.Context) {
	defer close(c.logsDone)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.doneCh:
			return
		case log, ok := <-c.consumer.Logs():
			if !ok {
				return
			}
			c.log.Debugf("consumer level: %d tag: %s message: %s ", log.Level, log.Tag, log.Message)
		}
	}
}
