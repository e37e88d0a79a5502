package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/britcoin/pkg/announcer"
	"github.com/ava-labs/britcoin/pkg/data/clickhouse/blockrepo"
	redisrepo "github.com/ava-labs/britcoin/pkg/data/redis/blockrepo"
)

const (
	storeClickHouse = "clickhouse"
	storeMemory     = "memory"
	storeRedis      = "redis"
)

// runFlags returns all CLI flags for the britcoin run command
func runFlags() []cli.Flag {
	flags := ledgerFlags()
	flags = append(flags, announceFlags(true)...)
	flags = append(flags, consumerFlags()...)
	flags = append(flags, &cli.DurationFlag{
		Name:    "audit-interval",
		Usage:   "Interval between audits of the persisted chain (0 disables)",
		EnvVars: []string{"BRITCOIN_AUDIT_INTERVAL"},
		Value:   time.Minute,
	})
	return append(flags, metricsFlags()...)
}

// mineFlags returns the flags for the one-shot mine command. Kafka is
// optional here: without bootstrap servers the mined block is not announced.
func mineFlags() []cli.Flag {
	return append(ledgerFlags(), announceFlags(false)...)
}

// removeFlags returns all CLI flags for the britcoin remove command
func removeFlags() []cli.Flag {
	flags := append(loggingFlags(), storeFlag())
	flags = append(flags, clickhouseFlags()...)
	return append(flags, redisFlags()...)
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable verbose logging",
		},
	}
}

// ledgerFlags are shared by every command that opens the chain.
func ledgerFlags() []cli.Flag {
	flags := append(loggingFlags(),
		storeFlag(),
		// difficulty and persist-timeout fall back to BRITCOIN_DIFFICULTY and
		// BRITCOIN_PERSIST_TIMEOUT, read by ledger.LoadConfig
		&cli.UintFlag{
			Name:    "difficulty",
			Aliases: []string{"d"},
			Usage:   "Leading zero hex digits a proof must have (overrides BRITCOIN_DIFFICULTY)",
		},
		&cli.DurationFlag{
			Name:  "persist-timeout",
			Usage: "Upper bound on a single block write (overrides BRITCOIN_PERSIST_TIMEOUT)",
		},
	)
	flags = append(flags, clickhouseFlags()...)
	return append(flags, redisFlags()...)
}

func storeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "store",
		Usage:   "Ledger store backend (clickhouse, redis, memory)",
		EnvVars: []string{"BRITCOIN_STORE"},
		Value:   storeClickHouse,
	}
}

func redisFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "redis-addrs",
			Usage:   "Redis addresses (comma-separated, more than one selects cluster mode)",
			EnvVars: []string{"REDIS_ADDRS"},
			Value:   cli.NewStringSlice("localhost:6379"),
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{"REDIS_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "redis-key",
			Usage:   "Redis list holding the ledger blocks",
			EnvVars: []string{"REDIS_BLOCKS_KEY"},
			Value:   redisrepo.DefaultKey,
		},
	}
}

func clickhouseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "clickhouse-hosts",
			Usage:   "ClickHouse server hosts (comma-separated)",
			EnvVars: []string{"CLICKHOUSE_HOSTS"},
			Value:   cli.NewStringSlice("localhost:9000"),
		},
		&cli.StringFlag{
			Name:    "clickhouse-database",
			Usage:   "ClickHouse database name",
			EnvVars: []string{"CLICKHOUSE_DATABASE"},
			Value:   "default",
		},
		&cli.StringFlag{
			Name:    "clickhouse-username",
			Usage:   "ClickHouse username",
			EnvVars: []string{"CLICKHOUSE_USERNAME"},
			Value:   "default",
		},
		&cli.StringFlag{
			Name:    "clickhouse-password",
			Usage:   "ClickHouse password",
			EnvVars: []string{"CLICKHOUSE_PASSWORD"},
			Value:   "",
		},
		&cli.BoolFlag{
			Name:    "clickhouse-debug",
			Usage:   "Enable ClickHouse debug logging",
			EnvVars: []string{"CLICKHOUSE_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    "clickhouse-use-tls",
			Usage:   "Connect to ClickHouse over TLS",
			EnvVars: []string{"CLICKHOUSE_USE_TLS"},
		},
		&cli.BoolFlag{
			Name:    "clickhouse-insecure-skip-verify",
			Usage:   "Skip TLS certificate verification for ClickHouse",
			EnvVars: []string{"CLICKHOUSE_INSECURE_SKIP_VERIFY"},
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-execution-time",
			Usage:   "ClickHouse max execution time in seconds",
			EnvVars: []string{"CLICKHOUSE_MAX_EXECUTION_TIME"},
			Value:   60,
		},
		&cli.IntFlag{
			Name:    "clickhouse-dial-timeout",
			Usage:   "ClickHouse dial timeout in seconds",
			EnvVars: []string{"CLICKHOUSE_DIAL_TIMEOUT"},
			Value:   30,
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-open-conns",
			Usage:   "ClickHouse maximum open connections",
			EnvVars: []string{"CLICKHOUSE_MAX_OPEN_CONNS"},
			Value:   2,
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-idle-conns",
			Usage:   "ClickHouse maximum idle connections",
			EnvVars: []string{"CLICKHOUSE_MAX_IDLE_CONNS"},
			Value:   1,
		},
		&cli.IntFlag{
			Name:    "clickhouse-conn-max-lifetime",
			Usage:   "ClickHouse connection max lifetime in minutes",
			EnvVars: []string{"CLICKHOUSE_CONN_MAX_LIFETIME"},
			Value:   10,
		},
		&cli.StringFlag{
			Name:    "clickhouse-client-name",
			Usage:   "ClickHouse client name for ClientInfo",
			EnvVars: []string{"CLICKHOUSE_CLIENT_NAME"},
			Value:   "britcoin",
		},
		&cli.StringFlag{
			Name:    "clickhouse-client-version",
			Usage:   "ClickHouse client version for ClientInfo",
			EnvVars: []string{"CLICKHOUSE_CLIENT_VERSION"},
			Value:   "1.0",
		},
		&cli.StringFlag{
			Name:    "blocks-table-name",
			Usage:   "ClickHouse table holding the ledger blocks",
			EnvVars: []string{"CLICKHOUSE_BLOCKS_TABLE_NAME"},
			Value:   blockrepo.DefaultTableName,
		},
	}
}

// announceFlags configure the producer that publishes mined blocks.
func announceFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "bootstrap-servers",
			Aliases:  []string{"b"},
			Usage:    "Kafka bootstrap servers (comma-separated)",
			EnvVars:  []string{"KAFKA_BOOTSTRAP_SERVERS"},
			Required: required,
		},
		&cli.StringFlag{
			Name:    "blocks-topic",
			Usage:   "Kafka topic mined blocks are announced on",
			EnvVars: []string{"KAFKA_BLOCKS_TOPIC"},
			Value:   announcer.DefaultTopic,
		},
		&cli.StringFlag{
			Name:    "client-id",
			Usage:   "Kafka client ID",
			EnvVars: []string{"KAFKA_CLIENT_ID"},
			Value:   "britcoin",
		},
		&cli.BoolFlag{
			Name:    "enable-kafka-logs",
			Usage:   "Enable librdkafka client logs",
			EnvVars: []string{"KAFKA_ENABLE_LOGS"},
			Value:   false,
		},
		&cli.DurationFlag{
			Name:    "announce-timeout",
			Usage:   "Upper bound on publishing a single block announcement",
			EnvVars: []string{"KAFKA_ANNOUNCE_TIMEOUT"},
			Value:   10 * time.Second,
		},
		&cli.DurationFlag{
			Name:    "flush-timeout",
			Usage:   "Kafka producer flush timeout when closing",
			EnvVars: []string{"KAFKA_FLUSH_TIMEOUT"},
			Value:   15 * time.Second,
		},
		&cli.IntFlag{
			Name:    "kafka-topic-num-partitions",
			Usage:   "The number of partitions to use for created topics (must be greater than 0)",
			EnvVars: []string{"KAFKA_TOPIC_NUM_PARTITIONS"},
			Value:   1,
		},
		&cli.IntFlag{
			Name:    "kafka-topic-replication-factor",
			Usage:   "The replication factor to use for created topics (must be greater than 0)",
			EnvVars: []string{"KAFKA_TOPIC_REPLICATION_FACTOR"},
			Value:   1,
		},
	}
}

// consumerFlags configure the mine request consumer.
func consumerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "group-id",
			Aliases:  []string{"g"},
			Usage:    "Kafka consumer group ID",
			EnvVars:  []string{"KAFKA_GROUP_ID"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "mine-topic",
			Aliases: []string{"t"},
			Usage:   "Kafka topic mine requests are consumed from",
			EnvVars: []string{"KAFKA_MINE_TOPIC"},
			Value:   "britcoin-mine-requests",
		},
		&cli.StringFlag{
			Name:    "dlq-topic",
			Usage:   "Dead letter queue topic for malformed mine requests (empty drops them)",
			EnvVars: []string{"KAFKA_DLQ_TOPIC"},
			Value:   "",
		},
		&cli.StringFlag{
			Name:    "auto-offset-reset",
			Aliases: []string{"o"},
			Usage:   "Kafka auto offset reset policy (earliest, latest, none)",
			EnvVars: []string{"KAFKA_AUTO_OFFSET_RESET"},
			Value:   "earliest",
		},
		&cli.DurationFlag{
			Name:    "session-timeout",
			Usage:   "Kafka consumer session timeout",
			EnvVars: []string{"KAFKA_SESSION_TIMEOUT"},
			Value:   45 * time.Second,
		},
		&cli.DurationFlag{
			Name:    "max-poll-interval",
			Usage:   "Kafka consumer max poll interval",
			EnvVars: []string{"KAFKA_MAX_POLL_INTERVAL"},
			Value:   5 * time.Minute,
		},
		&cli.DurationFlag{
			Name:    "poll-interval",
			Usage:   "Poll interval for Kafka consumer",
			EnvVars: []string{"KAFKA_POLL_INTERVAL"},
			Value:   100 * time.Millisecond,
		},
	}
}

func metricsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "metrics-host",
			Usage:   "Host for Prometheus metrics server (empty for all interfaces)",
			EnvVars: []string{"METRICS_HOST"},
			Value:   "",
		},
		&cli.IntFlag{
			Name:    "metrics-port",
			Aliases: []string{"m"},
			Usage:   "Port for Prometheus metrics server",
			EnvVars: []string{"METRICS_PORT"},
			Value:   9090,
		},
		&cli.StringFlag{
			Name:    "node",
			Usage:   "Node name label for metrics (e.g., britcoin-0)",
			EnvVars: []string{"NODE_NAME"},
		},
		&cli.StringFlag{
			Name:    "environment",
			Usage:   "Deployment environment for metrics labels (e.g., 'production', 'staging')",
			EnvVars: []string{"ENVIRONMENT"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "Cloud region for metrics labels (e.g., 'us-east-1')",
			EnvVars: []string{"REGION"},
		},
		&cli.StringFlag{
			Name:    "cloud-provider",
			Usage:   "Cloud provider for metrics labels (e.g., 'aws', 'oci', 'gcp')",
			EnvVars: []string{"CLOUD_PROVIDER"},
		},
	}
}
