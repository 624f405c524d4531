package commands

import (
	"context"
	"fmt"

	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/db"
	"github.com/urfave/cli/v3"
)

func MigrateAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close(closeTimeout)

	if err := db.ApplySchema(ctx, a.DB); err != nil {
		return err
	}
	fmt.Println("schema applied")
	return nil
}
