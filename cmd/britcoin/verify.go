package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/britcoin/pkg/ledger"
	"github.com/ava-labs/britcoin/pkg/utils"
)

// verify checks the persisted chain without initializing it, so an empty
// store stays empty.
func verify(c *cli.Context) error {
	ctx := context.Background()
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	store, closeStore, err := openStore(ctx, cfg, sugar, nil)
	if err != nil {
		return err
	}
	defer closeStore()

	blocks, err := ledger.LoadBlocks(ctx, store)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		fmt.Fprintln(c.App.Writer, "chain is empty")
		return nil
	}
	if err := ledger.Verify(blocks); err != nil {
		return err
	}

	tip := blocks[len(blocks)-1]
	fmt.Fprintf(c.App.Writer, "chain valid: %d blocks, tip %s\n", len(blocks), tip.Hash())
	return nil
}
