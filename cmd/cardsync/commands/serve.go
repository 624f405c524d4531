package commands

import (
	"context"

	"github.com/mohammadpnp/catalog-sync/internal/bootstrap"
	"github.com/urfave/cli/v3"
)

func ServeAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close(closeTimeout)

	return bootstrap.Serve(ctx, a)
}
