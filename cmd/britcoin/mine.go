package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/britcoin/pkg/announcer"
	"github.com/ava-labs/britcoin/pkg/kafka"
	"github.com/ava-labs/britcoin/pkg/miner"
	"github.com/ava-labs/britcoin/pkg/utils"
)

var errMineUsage = errors.New("mine expects <contributor> <message>")

// mine runs a single mining attempt. Finding no proof is a normal outcome
// and exits zero.
func mine(c *cli.Context) error {
	if c.NArg() != 2 || c.Args().Get(0) == "" {
		return errMineUsage
	}
	contributor, message := c.Args().Get(0), c.Args().Get(1)

	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, sugar, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []miner.Option{miner.WithAnnounceTimeout(cfg.AnnounceTimeout)}
	if cfg.BootstrapServers != "" {
		producer, err := kafka.NewProducer(ctx, cfg.ProducerConfig().ConfigMap(), sugar)
		if err != nil {
			return fmt.Errorf("failed to create kafka producer: %w", err)
		}
		defer producer.Close(cfg.FlushTimeout)
		opts = append(opts, miner.WithAnnouncer(announcer.NewKafkaAnnouncer(producer, cfg.BlocksTopic, sugar)))
	}

	node := miner.New(newChain(store, cfg, sugar), sugar, opts...)
	if err := node.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize chain: %w", err)
	}

	mined, err := node.Mine(ctx, contributor, message)
	if err != nil {
		return fmt.Errorf("mining failed: %w", err)
	}
	if !mined {
		fmt.Fprintf(c.App.Writer, "no proof of work found for %s at difficulty %d\n", contributor, cfg.Ledger.Difficulty)
		return nil
	}

	block, err := node.LatestBlock()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "mined block %d %s for %s\n", block.Index(), block.Hash(), contributor)
	return nil
}
