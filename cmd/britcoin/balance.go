package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/britcoin/pkg/ledger"
	"github.com/ava-labs/britcoin/pkg/utils"
)

func balance(c *cli.Context) error {
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

	table, err := renderBalances(ledger.Balances(blocks))
	if err != nil {
		return fmt.Errorf("failed to render balances: %w", err)
	}
	fmt.Fprintln(c.App.Writer, table)
	return nil
}

// renderBalances lays out balances as a table sorted by holder.
func renderBalances(balances map[string]int64) (string, error) {
	if len(balances) == 0 {
		return "no coins have been mined", nil
	}

	holders := make([]string, 0, len(balances))
	for holder := range balances {
		holders = append(holders, holder)
	}
	sort.Strings(holders)

	data := pterm.TableData{{"Holder", "Coins"}}
	for _, holder := range holders {
		data = append(data, []string{holder, strconv.FormatInt(balances[holder], 10)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}
