package commands

import (
	"context"
	"fmt"

	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
	"github.com/urfave/cli/v3"
)

func RefreshCardsAction(ctx context.Context, cmd *cli.Command) error {
	return refreshCards(ctx, cmd, app.RefreshCanonicalCardsInput{SinceDays: cmd.Int("days")})
}

func ImportCardsAction(ctx context.Context, cmd *cli.Command) error {
	return refreshCards(ctx, cmd, app.RefreshCanonicalCardsInput{Full: true})
}

func refreshCards(ctx context.Context, cmd *cli.Command, in app.RefreshCanonicalCardsInput) error {
	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close(closeTimeout)

	out, err := a.RefreshCards.Execute(ctx, in)
	if err != nil {
		return err
	}
	fmt.Printf("fetched=%d upserted=%d failed_chunks=%d\n", out.Fetched, out.Upserted, out.FailedChunks)
	return nil
}
