package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func makeProducts(start, n int) []domain.UpstreamProduct {
	names := []string{"Dark Magician", "Blue-Eyes White Dragon", "Pot of Greed"}
	products := make([]domain.UpstreamProduct, 0, n)
	for i := start; i < start+n; i++ {
		products = append(products, domain.UpstreamProduct{
			ID:    int64(1000 + i),
			Title: fmt.Sprintf("%s - LOB-%03d Ultra Rare", names[i%len(names)], i%1000),
			Variants: []domain.UpstreamVariant{{
				ID:                int64(5000 + i),
				Title:             "Default Title",
				Price:             "1.25",
				InventoryQuantity: int64(i % 7),
			}},
		})
	}
	return products
}

type batchFixture struct {
	jobs      *memJobs
	items     *memItems
	cards     *memCards
	lookup    *fakeLookup
	source    *fakeCatalogSource
	scheduler *recordingScheduler
	uc        app.ProcessBatch
}

func newBatchFixture(job domain.SyncJob, pages map[string]domain.ProductPage) *batchFixture {
	f := &batchFixture{
		jobs:      newMemJobs(job),
		items:     newMemItems(),
		cards:     newMemCards(card(46986414, "Dark Magician"), card(89631139, "Blue-Eyes White Dragon"), card(55144522, "Pot of Greed")),
		lookup:    &fakeLookup{},
		source:    &fakeCatalogSource{pages: pages},
		scheduler: &recordingScheduler{},
	}
	f.uc = f.build(app.ProcessBatchConfig{PageSize: 250, MatchWorkers: 4, AutoSweep: true, Now: func() time.Time { return fixedNow }})
	return f
}

func (f *batchFixture) build(cfg app.ProcessBatchConfig) app.ProcessBatch {
	return app.NewProcessBatch(app.ProcessBatchDeps{
		Jobs:      f.jobs,
		Stores:    newMemStores(testStore()),
		Items:     f.items,
		Writer:    f.items,
		Source:    f.source,
		Matcher:   app.NewMatcher(f.cards, f.lookup, app.MatcherConfig{}, zerolog.Nop()),
		Scheduler: f.scheduler,
		Logger:    zerolog.Nop(),
	}, cfg)
}

func pendingJob(total int64) domain.SyncJob {
	job := domain.NewSyncJob(testStoreID, total)
	job.ID = testJobID
	return job
}

func TestProcessBatchCompletesInTwoBatches(t *testing.T) {
	t.Parallel()

	f := newBatchFixture(pendingJob(500), map[string]domain.ProductPage{
		"":       {Products: makeProducts(0, 250), NextCursor: "page-2"},
		"page-2": {Products: makeProducts(250, 250)},
	})

	out, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Done || !out.HasMore || out.Processed != 250 {
		t.Fatalf("unexpected first batch output: %+v", out)
	}
	if len(f.scheduler.batches) != 1 || f.scheduler.batches[0] != testJobID {
		t.Fatalf("expected continuation to be scheduled, got %v", f.scheduler.batches)
	}
	if job := f.jobs.job(testJobID); job.Status != domain.SyncStatusProcessing || job.StartedAt == nil {
		t.Fatalf("expected processing job with started_at, got %+v", job)
	}

	out, err = f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !out.Done || out.HasMore {
		t.Fatalf("unexpected second batch output: %+v", out)
	}

	job := f.jobs.job(testJobID)
	if job.Status != domain.SyncStatusCompleted {
		t.Fatalf("expected completed, got %s", job.Status)
	}
	if job.ProcessedItems != 500 {
		t.Fatalf("expected 500 processed, got %d", job.ProcessedItems)
	}
	if job.CompletedAt == nil || !job.CompletedAt.Equal(fixedNow) {
		t.Fatalf("expected completed_at to be set, got %v", job.CompletedAt)
	}
	if len(f.scheduler.batches) != 1 {
		t.Fatalf("expected no continuation after completion, got %v", f.scheduler.batches)
	}
	if len(f.scheduler.sweeps) != 1 || f.scheduler.sweeps[0] != 0 {
		t.Fatalf("expected one sweep from the start, got %v", f.scheduler.sweeps)
	}
	if got := len(f.items.all()); got != 500 {
		t.Fatalf("expected 500 catalog rows, got %d", got)
	}
	if f.lookup.calls() != 0 {
		t.Fatalf("expected cache to serve every match, got %d remote calls", f.lookup.calls())
	}

	item, ok := f.items.get(testStoreID, "5000")
	if !ok || item.MatchedCardID == nil || *item.MatchedCardID != 46986414 {
		t.Fatalf("expected first variant matched to Dark Magician, got %+v", item)
	}
}

func TestProcessBatchUpstreamFailureFailsJob(t *testing.T) {
	t.Parallel()

	f := newBatchFixture(pendingJob(500), nil)
	f.source.listErr = errors.New("shopify returned 503")

	_, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if !errors.Is(err, app.ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch, got %v", err)
	}

	job := f.jobs.job(testJobID)
	if job.Status != domain.SyncStatusFailed {
		t.Fatalf("expected failed, got %s", job.Status)
	}
	if job.ErrorMessage == nil || *job.ErrorMessage == "" {
		t.Fatal("expected error message")
	}
	if job.ProcessedItems != 0 {
		t.Fatalf("expected 0 processed, got %d", job.ProcessedItems)
	}
	if len(f.scheduler.batches) != 0 || len(f.scheduler.sweeps) != 0 {
		t.Fatal("expected nothing scheduled")
	}
}

func TestProcessBatchFailureMessageKeepsValidUTF8(t *testing.T) {
	t.Parallel()

	f := newBatchFixture(pendingJob(500), nil)
	f.source.listErr = errors.New(strings.Repeat("é", 700))

	_, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if !errors.Is(err, app.ErrUpstreamFetch) {
		t.Fatalf("expected ErrUpstreamFetch, got %v", err)
	}

	job := f.jobs.job(testJobID)
	if job.ErrorMessage == nil {
		t.Fatal("expected error message")
	}
	if len(*job.ErrorMessage) > 1000 {
		t.Fatalf("expected message capped at 1000 bytes, got %d", len(*job.ErrorMessage))
	}
	if !utf8.ValidString(*job.ErrorMessage) {
		t.Fatal("expected message to be valid UTF-8")
	}
}

func TestProcessBatchShutdownLeavesJobResumable(t *testing.T) {
	t.Parallel()

	f := newBatchFixture(pendingJob(500), nil)
	f.source.listErr = context.Canceled

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.Execute(ctx, app.ProcessBatchInput{JobID: testJobID})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, app.ErrUpstreamFetch) {
		t.Fatal("shutdown must not be reported as an upstream failure")
	}

	job := f.jobs.job(testJobID)
	if job.Status.IsTerminal() {
		t.Fatalf("expected job to stay resumable, got %s", job.Status)
	}
	if job.ErrorMessage != nil {
		t.Fatalf("expected no error message, got %q", *job.ErrorMessage)
	}
}

func TestProcessBatchStorageFailureFailsJob(t *testing.T) {
	t.Parallel()

	f := newBatchFixture(pendingJob(10), map[string]domain.ProductPage{
		"": {Products: makeProducts(0, 10)},
	})
	f.items.upsertErr = errors.New("connection reset")

	_, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if !errors.Is(err, app.ErrStoreCatalogItems) {
		t.Fatalf("expected ErrStoreCatalogItems, got %v", err)
	}
	if job := f.jobs.job(testJobID); job.Status != domain.SyncStatusFailed || job.ProcessedItems != 0 {
		t.Fatalf("unexpected job state: %+v", job)
	}
}

func TestProcessBatchReplayIsIdempotent(t *testing.T) {
	t.Parallel()

	pages := map[string]domain.ProductPage{
		"": {Products: makeProducts(0, 30), NextCursor: "page-2"},
	}
	f := newBatchFixture(pendingJob(60), pages)

	if _, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	first := f.items.all()

	// Simulate a crash before the job row was updated.
	f.jobs.jobs[testJobID] = pendingJob(60)

	if _, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second := f.items.all()

	if !reflect.DeepEqual(first, second) {
		t.Fatal("expected replayed page to leave the same catalog state")
	}
}

func TestProcessBatchTerminalJobIsNoop(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.SyncStatus{domain.SyncStatusCompleted, domain.SyncStatusFailed} {
		job := pendingJob(10)
		job.Status = status
		job.ProcessedItems = 10
		f := newBatchFixture(job, nil)

		out, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !out.Done || out.Status != status || out.Processed != 10 {
			t.Fatalf("unexpected output for %s: %+v", status, out)
		}
		if len(f.source.cursors) != 0 {
			t.Fatalf("expected no upstream fetch for %s job", status)
		}
		if len(f.scheduler.batches) != 0 || len(f.scheduler.sweeps) != 0 {
			t.Fatalf("expected nothing scheduled for %s job", status)
		}
	}
}

func TestProcessBatchStaleProgressSkipsContinuation(t *testing.T) {
	t.Parallel()

	f := newBatchFixture(pendingJob(500), map[string]domain.ProductPage{
		"": {Products: makeProducts(0, 250), NextCursor: "page-2"},
	})
	f.jobs.saveErr = domain.ErrStaleProgress

	out, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !out.HasMore {
		t.Fatalf("unexpected output: %+v", out)
	}
	if len(f.scheduler.batches) != 0 {
		t.Fatalf("expected duplicate invocation not to schedule, got %v", f.scheduler.batches)
	}
	if job := f.jobs.job(testJobID); job.Status == domain.SyncStatusFailed {
		t.Fatal("expected stale progress not to fail the job")
	}
}

func TestProcessBatchReusesStoredMatch(t *testing.T) {
	t.Parallel()

	products := makeProducts(0, 1)
	f := newBatchFixture(pendingJob(1), map[string]domain.ProductPage{
		"": {Products: products},
	})
	f.cards = newMemCards()
	f.uc = f.build(app.ProcessBatchConfig{Now: func() time.Time { return fixedNow }})

	stored, errs := domain.NewCatalogItems(testStoreID, products[0], domain.Found(domain.Match{CardID: 46986414, Name: "Dark Magician", Confidence: 1}), nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if err := f.items.Upsert(context.Background(), stored); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if f.lookup.calls() != 0 {
		t.Fatalf("expected stored match to be reused, got %d lookups", f.lookup.calls())
	}
	item, _ := f.items.get(testStoreID, "5000")
	if item.MatchedCardID == nil || *item.MatchedCardID != 46986414 {
		t.Fatalf("expected stored match kept, got %+v", item)
	}
}

func TestProcessBatchCountsInvalidPrices(t *testing.T) {
	t.Parallel()

	products := makeProducts(0, 3)
	products[1].Variants[0].Price = "free"
	f := newBatchFixture(pendingJob(3), map[string]domain.ProductPage{
		"": {Products: products},
	})

	out, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out.Failed != 1 || out.Processed != 3 || !out.Done {
		t.Fatalf("unexpected output: %+v", out)
	}
	if got := len(f.items.all()); got != 2 {
		t.Fatalf("expected 2 stored rows, got %d", got)
	}
}

func TestProcessBatchNotFound(t *testing.T) {
	t.Parallel()

	f := newBatchFixture(pendingJob(1), nil)

	_, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: "c1a3b5d7-0000-4000-8000-000000000000"})
	if !errors.Is(err, app.ErrSyncJobNotFound) {
		t.Fatalf("expected ErrSyncJobNotFound, got %v", err)
	}

	_, err = f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: "not-a-uuid"})
	if !errors.Is(err, app.ErrInvalidJobID) {
		t.Fatalf("expected ErrInvalidJobID, got %v", err)
	}
}

func TestProcessBatchUnknownStoreHasNoSideEffects(t *testing.T) {
	t.Parallel()

	job := pendingJob(1)
	job.StoreID = otherStoreID
	f := newBatchFixture(job, nil)

	_, err := f.uc.Execute(context.Background(), app.ProcessBatchInput{JobID: testJobID})
	if !errors.Is(err, app.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
	if got := f.jobs.job(testJobID); got.Status != domain.SyncStatusPending {
		t.Fatalf("expected job untouched, got %s", got.Status)
	}
}
