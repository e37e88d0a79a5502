package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "britcoin",
		Usage: "Append-only proof-of-work ledger",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Serve the ledger: consume mine requests from Kafka and announce mined blocks",
				Flags:  runFlags(),
				Action: run,
			},
			{
				Name:      "mine",
				Usage:     "Attempt to mine a single block",
				ArgsUsage: "<contributor> <message>",
				Flags:     mineFlags(),
				Action:    mine,
			},
			{
				Name:   "verify",
				Usage:  "Verify index contiguity, linkage and hashes of the persisted chain",
				Flags:  ledgerFlags(),
				Action: verify,
			},
			{
				Name:   "balance",
				Usage:  "Print coin balances per holder",
				Flags:  ledgerFlags(),
				Action: balance,
			},
			{
				Name:   "remove",
				Usage:  "Drop the persisted ledger (ClickHouse table or Redis list)",
				Flags:  removeFlags(),
				Action: remove,
			},
		},
	}
}
