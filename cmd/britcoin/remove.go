package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/britcoin/pkg/clickhouse"
	"github.com/ava-labs/britcoin/pkg/data/clickhouse/blockrepo"
	redisrepo "github.com/ava-labs/britcoin/pkg/data/redis/blockrepo"
	"github.com/ava-labs/britcoin/pkg/utils"
)

func remove(c *cli.Context) error {
	ctx := context.Background()
	sugar, err := utils.NewSugaredLogger(c.Bool("verbose"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	switch store := c.String("store"); store {
	case storeRedis:
		redisCfg := buildRedisConfig(c)
		rdb, err := newRedisClient(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer rdb.Close()

		key := c.String("redis-key")
		if err := redisrepo.NewRepository(rdb, key).Drop(ctx); err != nil {
			return err
		}
		sugar.Infof("ledger list %s successfully removed", key)
		return nil
	case storeClickHouse:
	default:
		return fmt.Errorf("store %q has nothing to remove", store)
	}

	tableName := c.String("blocks-table-name")

	chCfg := buildClickHouseConfig(c)
	chClient, err := clickhouse.New(chCfg, sugar)
	if err != nil {
		return fmt.Errorf("failed to create ClickHouse client: %w", err)
	}
	defer chClient.Close()

	repo, err := blockrepo.NewRepository(ctx, chClient, chCfg.Database, tableName)
	if err != nil {
		return fmt.Errorf("failed to create blocks repository: %w", err)
	}

	if err := repo.DropTable(ctx); err != nil {
		return fmt.Errorf("failed to drop blocks table: %w", err)
	}

	sugar.Infof("ledger table %s.%s successfully removed", chCfg.Database, tableName)
	return nil
}
