package commands

import (
	"context"
	"fmt"
	"time"

	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
	"github.com/urfave/cli/v3"
)

const pollInterval = time.Second

// StartSyncAction creates a job and drives it through the in-process
// dispatcher, printing progress until the job is terminal.
func StartSyncAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer a.Close(closeTimeout)
	defer stopWorkers()

	a.StartDispatcher(workerCtx)

	started, err := a.StartSync.Execute(ctx, app.StartSyncInput{StoreID: cmd.String("store")})
	if err != nil {
		return err
	}
	fmt.Printf("job %s started, %d items upstream\n", started.JobID, started.TotalItems)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		job, err := a.GetSyncJob.Execute(ctx, app.GetSyncJobInput{JobID: started.JobID})
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d/%d processed, %d failed\n", job.Status, job.ProcessedItems, job.TotalItems, job.FailedItems)
		if !job.Status.IsTerminal() {
			continue
		}
		if job.ErrorMessage != nil {
			return fmt.Errorf("sync job %s failed: %s", job.ID, *job.ErrorMessage)
		}
		return nil
	}
}

// SweepAction pages through every unmatched item of a store in the
// foreground.
func SweepAction(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close(closeTimeout)

	in := app.MatchUnmatchedInput{StoreID: cmd.String("store")}
	var scanned int
	var matched, failed int64
	for {
		out, err := a.MatchUnmatched.Execute(ctx, in)
		if err != nil {
			return err
		}
		scanned += out.Scanned
		matched += out.Matched
		failed += out.Failed
		if !out.HasMore {
			break
		}
		in.AfterID = out.NextAfterID
	}
	fmt.Printf("scanned=%d matched=%d failed=%d\n", scanned, matched, failed)
	return nil
}
