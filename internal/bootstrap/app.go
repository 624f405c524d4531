package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	app "github.com/mohammadpnp/catalog-sync/internal/application/catalog"
	"github.com/mohammadpnp/catalog-sync/internal/config"
	infrafile "github.com/mohammadpnp/catalog-sync/internal/infrastructure/file"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/queue"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/repository"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/shopify"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/ygoprodeck"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App holds the wired use cases and the resources they share.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	DB   *gorm.DB
	Pool *pgxpool.Pool

	Dispatcher *queue.Dispatcher
	Trigger    *queue.HTTPTrigger
	Scheduler  app.Scheduler

	StartSync       app.StartSync
	ProcessBatch    app.ProcessBatch
	GetSyncJob      app.GetSyncJob
	MatchUnmatched  app.MatchUnmatched
	HandleWebhook   app.HandleWebhook
	SearchInventory app.SearchInventory
	RefreshCards    app.RefreshCanonicalCards
	Resumer         *app.ResumeStalledJobs
}

// NewApp opens the database and wires every use case. The continuation
// scheduler follows cfg.Dispatch.Mode.
func NewApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	aliases, err := infrafile.NewLocalSource(cfg.Aliases.Dir).LoadAliases(ctx, cfg.Aliases.File)
	if err != nil {
		pool.Close()
		return nil, err
	}

	jobRepo := repository.NewSyncJobRepository(db)
	storeRepo := repository.NewStoreRepository(db)
	itemRepo := repository.NewCatalogItemRepository(db)
	cardRepo := repository.NewCanonicalCardRepository(db)
	pageWriter := repository.NewCatalogPageWriter(pool)

	shop := shopify.NewClient(shopify.Config{APIVersion: cfg.Shopify.APIVersion})
	cards := ygoprodeck.NewClient(ygoprodeck.Config{
		BaseURL:           cfg.CardAPI.BaseURL,
		RequestsPerSecond: cfg.CardAPI.RequestsPerSecond,
	})

	a := &App{Config: cfg, Logger: logger, DB: db, Pool: pool}
	switch cfg.Dispatch.Mode {
	case config.ContinuationHTTP:
		a.Trigger = queue.NewHTTPTrigger(queue.HTTPTriggerConfig{
			BaseURL: cfg.Dispatch.PublicBaseURL,
			Token:   cfg.Dispatch.TriggerToken,
		}, logger)
		a.Scheduler = a.Trigger
	default:
		a.Dispatcher = queue.NewDispatcher(queue.DispatcherConfig{
			Workers:   cfg.Dispatch.Workers,
			QueueSize: cfg.Dispatch.QueueSize,
		}, logger)
		a.Scheduler = a.Dispatcher
	}

	matcher := app.NewMatcher(cardRepo, cards, app.MatcherConfig{
		CacheCandidates: cfg.Match.CacheCandidates,
		FuzzyWords:      cfg.Match.FuzzyWords,
		Aliases:         aliases,
	}, logger)

	a.StartSync = app.NewStartSync(storeRepo, jobRepo, shop, a.Scheduler, logger)
	a.ProcessBatch = app.NewProcessBatch(app.ProcessBatchDeps{
		Jobs:      jobRepo,
		Stores:    storeRepo,
		Items:     itemRepo,
		Writer:    pageWriter,
		Source:    shop,
		Matcher:   matcher,
		Scheduler: a.Scheduler,
		Logger:    logger,
	}, app.ProcessBatchConfig{
		PageSize:     cfg.Sync.PageSize,
		MatchWorkers: cfg.Match.Workers,
		AutoSweep:    cfg.Sync.AutoSweep,
	})
	a.GetSyncJob = app.NewGetSyncJob(jobRepo)
	a.MatchUnmatched = app.NewMatchUnmatched(storeRepo, itemRepo, matcher, a.Scheduler, app.MatchUnmatchedConfig{
		BatchSize:    cfg.Match.SweepBatchSize,
		MatchWorkers: cfg.Match.Workers,
	}, logger)
	a.HandleWebhook = app.NewHandleWebhook(cfg.Shopify.WebhookSecret, storeRepo, itemRepo, matcher, logger)
	a.SearchInventory = app.NewSearchInventory(storeRepo, itemRepo)
	a.RefreshCards = app.NewRefreshCanonicalCards(cards, cardRepo, app.RefreshCanonicalCardsConfig{
		ChunkSize: cfg.CardImportChunkSize,
	}, logger)
	a.Resumer = app.NewResumeStalledJobs(jobRepo, a.Scheduler, app.ResumeStalledJobsConfig{
		StaleAfter: cfg.Resume.StaleAfter,
		Interval:   cfg.Resume.Interval,
	}, logger)

	return a, nil
}

// StartDispatcher runs scheduled continuations in process. It is a no-op in
// HTTP continuation mode.
func (a *App) StartDispatcher(ctx context.Context) {
	if a.Dispatcher == nil {
		return
	}
	a.Dispatcher.Start(ctx, queue.Handlers{
		Batch: func(ctx context.Context, jobID string) {
			out, err := a.ProcessBatch.Execute(ctx, app.ProcessBatchInput{JobID: jobID})
			if err != nil {
				a.Logger.Error().Err(err).Str("job_id", jobID).Msg("batch failed")
				return
			}
			a.Logger.Debug().Str("job_id", jobID).Int64("processed", out.Processed).Int64("total", out.Total).Bool("done", out.Done).Msg("batch finished")
		},
		Sweep: func(ctx context.Context, storeID string, afterID int64) {
			if _, err := a.MatchUnmatched.Execute(ctx, app.MatchUnmatchedInput{StoreID: storeID, AfterID: afterID, Chain: true}); err != nil {
				a.Logger.Error().Err(err).Str("store_id", storeID).Int64("after_id", afterID).Msg("match sweep failed")
			}
		},
	})
}

// Close waits for in-flight continuations up to timeout and releases the
// database handles.
func (a *App) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		if a.Dispatcher != nil {
			a.Dispatcher.Wait()
		}
		if a.Trigger != nil {
			a.Trigger.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		a.Logger.Warn().Msg("continuations still running at shutdown")
	}

	a.Pool.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
