package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ava-labs/britcoin/internal/repository/inmemory"
	"github.com/ava-labs/britcoin/pkg/clickhouse"
	"github.com/ava-labs/britcoin/pkg/data/clickhouse/blockrepo"
	redisrepo "github.com/ava-labs/britcoin/pkg/data/redis/blockrepo"
	"github.com/ava-labs/britcoin/pkg/ledger"
	"github.com/ava-labs/britcoin/pkg/metrics"
	"github.com/ava-labs/britcoin/pkg/miner"
)

// openStore returns the configured ledger store, instrumented with m when it
// is non-nil. The returned close function releases the backing connection.
func openStore(ctx context.Context, cfg *Config, sugar *zap.SugaredLogger, m *metrics.Metrics) (ledger.Store, func(), error) {
	if cfg.Store == storeMemory {
		sugar.Warn("using in-memory ledger store: blocks are lost on exit")
		return miner.InstrumentStore(inmemory.NewLedgerRepository(), m), func() {}, nil
	}
	if cfg.Store == storeRedis {
		rdb, err := newRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		sugar.Infow("Redis client connected", "addrs", cfg.Redis.Addrs, "key", cfg.RedisKey)

		closeFn := func() {
			if err := rdb.Close(); err != nil {
				sugar.Warnw("failed to close Redis client", "error", err)
			}
		}
		return miner.InstrumentStore(redisrepo.NewRepository(rdb, cfg.RedisKey), m), closeFn, nil
	}

	chClient, err := clickhouse.New(cfg.ClickHouse, sugar)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}
	sugar.Info("ClickHouse client created successfully")

	// the table is created automatically
	repo, err := blockrepo.NewRepository(ctx, chClient, cfg.ClickHouse.Database, cfg.BlocksTableName)
	if err != nil {
		_ = chClient.Close()
		return nil, nil, fmt.Errorf("failed to create blocks repository: %w", err)
	}
	sugar.Infow("blocks table ready", "tableName", cfg.BlocksTableName)

	closeFn := func() {
		if err := chClient.Close(); err != nil {
			sugar.Warnw("failed to close ClickHouse client", "error", err)
		}
	}
	return miner.InstrumentStore(repo, m), closeFn, nil
}

// newRedisClient connects to a single node, or to a cluster when more than
// one address is given, and checks the connection.
func newRedisClient(ctx context.Context, cfg RedisConfig) (redis.UniversalClient, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// newChain builds a chain over store using the configured ledger tunables.
func newChain(store ledger.Store, cfg *Config, sugar *zap.SugaredLogger) *ledger.Chain {
	return ledger.NewChain(store,
		ledger.ProofOfWork{Difficulty: cfg.Ledger.Difficulty},
		sugar,
		ledger.WithPersistTimeout(cfg.Ledger.PersistTimeout),
	)
}
