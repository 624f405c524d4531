package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohammadpnp/catalog-sync/cmd/cardsync/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "path to a .env file",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "cardsync",
		Usage: "Shopify card catalog sync operator tool",
		Flags: []cli.Flag{envFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API with continuation workers",
				Action: commands.ServeAction,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema",
				Action: commands.MigrateAction,
			},
			{
				Name:  "refresh-cards",
				Usage: "pull cards updated upstream in the last N days into the card cache",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "days",
						Usage: "look-back window in days",
						Value: 14,
					},
				},
				Action: commands.RefreshCardsAction,
			},
			{
				Name:   "import-cards",
				Usage:  "load the whole upstream card catalog into the card cache",
				Action: commands.ImportCardsAction,
			},
			{
				Name:  "start-sync",
				Usage: "start a catalog sync for a store and run it to completion",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "store",
						Usage:    "connected store id",
						Required: true,
					},
				},
				Action: commands.StartSyncAction,
			},
			{
				Name:  "sweep",
				Usage: "match every unmatched catalog item of a store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "store",
						Usage:    "connected store id",
						Required: true,
					},
				},
				Action: commands.SweepAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
