package commands

import (
	"context"
	"time"

	"github.com/mohammadpnp/catalog-sync/internal/bootstrap"
	"github.com/mohammadpnp/catalog-sync/internal/config"
	"github.com/mohammadpnp/catalog-sync/internal/logging"
	"github.com/urfave/cli/v3"
)

const closeTimeout = 15 * time.Second

// newApp loads config from the --env file and wires the application.
// inProcess forces in-process continuations so a CLI run never depends on a
// public URL.
func newApp(ctx context.Context, cmd *cli.Command, inProcess bool) (*bootstrap.App, error) {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return nil, err
	}
	if inProcess {
		cfg.Dispatch.Mode = config.ContinuationInProcess
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return bootstrap.NewApp(ctx, cfg, logging.New(cfg.Log.Level, cfg.Log.Format))
}
