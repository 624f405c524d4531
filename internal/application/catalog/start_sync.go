package catalog

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
)

type StartSyncInput struct {
	StoreID string
}

type StartSyncOutput struct {
	JobID      string            `json:"job_id"`
	TotalItems int64             `json:"total_items"`
	Status     domain.SyncStatus `json:"status"`
}

type StartSync interface {
	Execute(ctx context.Context, in StartSyncInput) (StartSyncOutput, error)
}

type syncJobCreator interface {
	Create(ctx context.Context, job domain.SyncJob) (domain.SyncJob, error)
}

type batchScheduler interface {
	ScheduleBatch(ctx context.Context, jobID string) error
}

type startSync struct {
	stores    domain.StoreRepository
	jobs      syncJobCreator
	source    CatalogSource
	scheduler batchScheduler
	logger    zerolog.Logger
}

func NewStartSync(stores domain.StoreRepository, jobs syncJobCreator, source CatalogSource, scheduler batchScheduler, logger zerolog.Logger) StartSync {
	return &startSync{
		stores:    stores,
		jobs:      jobs,
		source:    source,
		scheduler: scheduler,
		logger:    logger.With().Str("component", "start_sync").Logger(),
	}
}

func (uc *startSync) Execute(ctx context.Context, in StartSyncInput) (StartSyncOutput, error) {
	if !validUUID(in.StoreID) {
		return StartSyncOutput{}, ErrInvalidStoreID
	}

	store, err := uc.stores.GetByID(ctx, in.StoreID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			return StartSyncOutput{}, ErrStoreNotFound
		}
		return StartSyncOutput{}, fmt.Errorf("%w: %v", ErrLoadStore, err)
	}

	total, err := uc.source.CountProducts(ctx, store)
	if err != nil {
		return StartSyncOutput{}, fmt.Errorf("%w: %v", ErrCountProducts, err)
	}

	job, err := uc.jobs.Create(ctx, domain.NewSyncJob(store.ID, total))
	if err != nil {
		return StartSyncOutput{}, fmt.Errorf("%w: %v", ErrCreateSyncJob, err)
	}

	if err := uc.scheduler.ScheduleBatch(ctx, job.ID); err != nil {
		uc.logger.Error().Err(err).Str("job_id", job.ID).Msg("schedule first batch failed")
	}

	uc.logger.Info().Str("job_id", job.ID).Str("store_id", store.ID).Int64("total_items", total).Msg("sync job created")

	return StartSyncOutput{
		JobID:      job.ID,
		TotalItems: job.TotalItems,
		Status:     job.Status,
	}, nil
}
