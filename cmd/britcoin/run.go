package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/britcoin/pkg/announcer"
	"github.com/ava-labs/britcoin/pkg/kafka"
	"github.com/ava-labs/britcoin/pkg/kafka/processor"
	"github.com/ava-labs/britcoin/pkg/metrics"
	"github.com/ava-labs/britcoin/pkg/miner"
	"github.com/ava-labs/britcoin/pkg/scheduler"
	"github.com/ava-labs/britcoin/pkg/utils"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

func run(c *cli.Context) error {
	// Build configuration from CLI flags
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"store", cfg.Store,
		"difficulty", cfg.Ledger.Difficulty,
		"persistTimeout", cfg.Ledger.PersistTimeout,
		"bootstrapServers", cfg.BootstrapServers,
		"groupID", cfg.GroupID,
		"mineTopic", cfg.MineTopic,
		"blocksTopic", cfg.BlocksTopic,
		"dlqTopic", cfg.DLQTopic,
		"autoOffsetReset", cfg.AutoOffsetReset,
		"enableKafkaLogs", cfg.EnableKafkaLogs,
		"sessionTimeout", cfg.SessionTimeout,
		"maxPollInterval", cfg.MaxPollInterval,
		"pollInterval", cfg.PollInterval,
		"announceTimeout", cfg.AnnounceTimeout,
		"flushTimeout", cfg.FlushTimeout,
		"auditInterval", cfg.AuditInterval,
		"clickhouseHosts", cfg.ClickHouse.Hosts,
		"clickhouseDatabase", cfg.ClickHouse.Database,
		"clickhouseUsername", cfg.ClickHouse.Username,
		"clickhouseDebug", cfg.ClickHouse.Debug,
		"blocksTableName", cfg.BlocksTableName,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
		"node", cfg.Node,
		"environment", cfg.Environment,
		"region", cfg.Region,
		"cloudProvider", cfg.CloudProvider,
		"kafkaTopicNumPartitions", cfg.KafkaTopicNumPartitions,
		"kafkaTopicReplicationFactor", cfg.KafkaTopicReplicationFactor,
	)

	// Initialize Prometheus metrics with labels for multi-instance filtering
	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, metrics.Labels{
		Node:          cfg.Node,
		Environment:   cfg.Environment,
		Region:        cfg.Region,
		CloudProvider: cfg.CloudProvider,
	})
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, sugar, m)
	if err != nil {
		return err
	}
	defer closeStore()

	adminClient, err := confluentKafka.NewAdminClient(&confluentKafka.ConfigMap{"bootstrap.servers": cfg.BootstrapServers})
	if err != nil {
		return fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	defer adminClient.Close()

	if err := ensureTopics(ctx, adminClient, cfg, sugar); err != nil {
		return err
	}

	producer, err := kafka.NewProducer(ctx, cfg.ProducerConfig().ConfigMap(), sugar)
	if err != nil {
		return fmt.Errorf("failed to create kafka producer: %w", err)
	}
	defer producer.Close(cfg.FlushTimeout)

	chain := newChain(store, cfg, sugar)
	node := miner.New(chain, sugar,
		miner.WithMetrics(m),
		miner.WithAnnouncer(announcer.NewKafkaAnnouncer(producer, cfg.BlocksTopic, sugar)),
		miner.WithAnnounceTimeout(cfg.AnnounceTimeout),
	)
	if err := node.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize chain: %w", err)
	}

	// Start metrics server once the chain is loaded so /health reflects it
	metricsServer := metrics.NewServer(cfg.MetricsAddr(), registry, node.Ready)
	metricsErrCh := metricsServer.Start()
	if cfg.MetricsHost == "" {
		sugar.Infof("metrics server listening on http://0.0.0.0:%d/metrics", cfg.MetricsPort)
	} else {
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
	}

	var dlq kafka.Publisher
	if cfg.DLQTopic != "" {
		dlq = producer
	}
	consumer, err := kafka.NewConsumer(sugar, cfg.ConsumerConfig(), processor.NewMineProcessor(node, sugar), dlq, m)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	sugar.Infow("consumer created, starting consumption",
		"topic", cfg.MineTopic,
		"groupID", cfg.GroupID,
	)

	// Run consumer, metrics server and producer error handling concurrently using errgroup
	g, gctx := errgroup.WithContext(ctx)

	// Consumer goroutine - blocks until shutdown or error
	g.Go(func() error {
		if err := consumer.Start(gctx); err != nil {
			return fmt.Errorf("consumer error: %w", err)
		}
		return nil
	})

	// Metrics server error monitoring goroutine
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-metricsErrCh:
			if err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		}
	})

	// A fatal producer error means no further block can be announced
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err, ok := <-producer.Errors():
			if ok && err != nil {
				return fmt.Errorf("kafka producer error: %w", err)
			}
			return nil
		}
	})

	// Periodic audit of the persisted chain against the in-memory one
	if cfg.AuditInterval > 0 {
		g.Go(func() error {
			return scheduler.Start(gctx, store, chain.Len, m, sugar, cfg.AuditInterval)
		})
	}

	// Wait for first error or completion from any goroutine
	err = g.Wait()

	// Gracefully shutdown metrics server
	sugar.Info("shutting down metrics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		sugar.Warnw("metrics server shutdown error", "error", shutdownErr)
	}

	sugar.Info("shutdown complete")
	return err
}

// ensureTopics creates the mine request, block and, when set, dead letter
// topics.
func ensureTopics(ctx context.Context, admin kafka.Admin, cfg *Config, sugar *zap.SugaredLogger) error {
	topics := []string{cfg.MineTopic, cfg.BlocksTopic}
	if cfg.DLQTopic != "" {
		topics = append(topics, cfg.DLQTopic)
	}
	for _, name := range topics {
		err := kafka.EnsureTopic(ctx, admin, kafka.TopicConfig{
			Name:              name,
			NumPartitions:     cfg.KafkaTopicNumPartitions,
			ReplicationFactor: cfg.KafkaTopicReplicationFactor,
		}, sugar)
		if err != nil {
			return fmt.Errorf("failed to ensure kafka topic %s exists: %w", name, err)
		}
	}
	return nil
}
