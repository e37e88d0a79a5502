package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/britcoin/pkg/clickhouse"
	"github.com/ava-labs/britcoin/pkg/kafka"
	"github.com/ava-labs/britcoin/pkg/ledger"
)

// Config holds all configuration for the britcoin commands. Fields whose
// flags a command does not define keep their zero value.
type Config struct {
	// Application settings
	Verbose bool

	// Ledger settings
	Store         string
	Ledger        ledger.Config
	AuditInterval time.Duration

	// ClickHouse settings
	ClickHouse      clickhouse.Config
	BlocksTableName string

	// Redis settings
	Redis    RedisConfig
	RedisKey string

	// Kafka settings
	BootstrapServers            string
	ClientID                    string
	BlocksTopic                 string
	MineTopic                   string
	DLQTopic                    string
	GroupID                     string
	AutoOffsetReset             string
	EnableKafkaLogs             bool
	SessionTimeout              time.Duration
	MaxPollInterval             time.Duration
	PollInterval                time.Duration
	AnnounceTimeout             time.Duration
	FlushTimeout                time.Duration
	KafkaTopicNumPartitions     int
	KafkaTopicReplicationFactor int

	// Metrics settings
	MetricsHost   string
	MetricsPort   int
	Node          string
	Environment   string
	Region        string
	CloudProvider string
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addrs    []string
	Password string
}

// MetricsAddr returns the formatted metrics address
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// ProducerConfig returns the announcement producer settings.
func (c *Config) ProducerConfig() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		BootstrapServers: c.BootstrapServers,
		ClientID:         c.ClientID,
		EnableLogs:       c.EnableKafkaLogs,
	}
}

// ConsumerConfig returns the mine request consumer settings.
func (c *Config) ConsumerConfig() kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		BootstrapServers: c.BootstrapServers,
		GroupID:          c.GroupID,
		Topic:            c.MineTopic,
		DLQTopic:         c.DLQTopic,
		AutoOffsetReset:  c.AutoOffsetReset,
		SessionTimeout:   c.SessionTimeout,
		MaxPollInterval:  c.MaxPollInterval,
		PollInterval:     c.PollInterval,
		EnableLogs:       c.EnableKafkaLogs,
	}
}

// buildConfig builds a Config from CLI context flags
func buildConfig(c *cli.Context) (*Config, error) {
	store := c.String("store")
	switch store {
	case storeClickHouse, storeRedis, storeMemory:
	default:
		return nil, fmt.Errorf("unknown store %q: must be %s, %s or %s", store, storeClickHouse, storeRedis, storeMemory)
	}

	ledgerCfg, err := buildLedgerConfig(c)
	if err != nil {
		return nil, err
	}

	return &Config{
		Verbose:                     c.Bool("verbose"),
		Store:                       store,
		Ledger:                      ledgerCfg,
		AuditInterval:               c.Duration("audit-interval"),
		ClickHouse:                  buildClickHouseConfig(c),
		BlocksTableName:             c.String("blocks-table-name"),
		Redis:                       buildRedisConfig(c),
		RedisKey:                    c.String("redis-key"),
		BootstrapServers:            c.String("bootstrap-servers"),
		ClientID:                    c.String("client-id"),
		BlocksTopic:                 c.String("blocks-topic"),
		MineTopic:                   c.String("mine-topic"),
		DLQTopic:                    c.String("dlq-topic"),
		GroupID:                     c.String("group-id"),
		AutoOffsetReset:             c.String("auto-offset-reset"),
		EnableKafkaLogs:             c.Bool("enable-kafka-logs"),
		SessionTimeout:              c.Duration("session-timeout"),
		MaxPollInterval:             c.Duration("max-poll-interval"),
		PollInterval:                c.Duration("poll-interval"),
		AnnounceTimeout:             c.Duration("announce-timeout"),
		FlushTimeout:                c.Duration("flush-timeout"),
		KafkaTopicNumPartitions:     c.Int("kafka-topic-num-partitions"),
		KafkaTopicReplicationFactor: c.Int("kafka-topic-replication-factor"),
		MetricsHost:                 c.String("metrics-host"),
		MetricsPort:                 c.Int("metrics-port"),
		Node:                        c.String("node"),
		Environment:                 c.String("environment"),
		Region:                      c.String("region"),
		CloudProvider:               c.String("cloud-provider"),
	}, nil
}

// buildLedgerConfig reads the ledger environment and applies explicit flag
// overrides on top of it. Difficulty is fixed for the life of the process.
func buildLedgerConfig(c *cli.Context) (ledger.Config, error) {
	cfg, err := ledger.LoadConfig()
	if err != nil {
		return ledger.Config{}, err
	}
	if c.IsSet("difficulty") {
		cfg.Difficulty = c.Uint("difficulty")
	}
	if c.IsSet("persist-timeout") {
		cfg.PersistTimeout = c.Duration("persist-timeout")
	}
	return cfg, nil
}

// buildRedisConfig builds a RedisConfig from CLI context flags
func buildRedisConfig(c *cli.Context) RedisConfig {
	return RedisConfig{
		Addrs:    splitList(c.StringSlice("redis-addrs")),
		Password: c.String("redis-password"),
	}
}

// splitList expands a single comma-separated value, which is how a
// StringSliceFlag arrives from the environment.
func splitList(values []string) []string {
	if len(values) != 1 || !strings.Contains(values[0], ",") {
		return values
	}
	out := strings.Split(values[0], ",")
	for i, v := range out {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// buildClickHouseConfig builds a ClickHouse Config from CLI context flags
func buildClickHouseConfig(c *cli.Context) clickhouse.Config {
	return clickhouse.Config{
		Hosts:              splitList(c.StringSlice("clickhouse-hosts")),
		Database:           c.String("clickhouse-database"),
		Username:           c.String("clickhouse-username"),
		Password:           c.String("clickhouse-password"),
		Debug:              c.Bool("clickhouse-debug"),
		UseTLS:             c.Bool("clickhouse-use-tls"),
		InsecureSkipVerify: c.Bool("clickhouse-insecure-skip-verify"),
		MaxExecutionTime:   c.Int("clickhouse-max-execution-time"),
		DialTimeout:        c.Int("clickhouse-dial-timeout"),
		MaxOpenConns:       c.Int("clickhouse-max-open-conns"),
		MaxIdleConns:       c.Int("clickhouse-max-idle-conns"),
		ConnMaxLifetime:    c.Int("clickhouse-conn-max-lifetime"),
		ClientName:         c.String("clickhouse-client-name"),
		ClientVersion:      c.String("clickhouse-client-version"),
	}
}
