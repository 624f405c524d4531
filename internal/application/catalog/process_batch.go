package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// CatalogSource is the merchant's upstream product catalog.
type CatalogSource interface {
	CountProducts(ctx context.Context, store domain.Store) (int64, error)
	ListProducts(ctx context.Context, store domain.Store, cursor string, limit int) (domain.ProductPage, error)
}

// Scheduler enqueues continuations. Implementations must return quickly;
// the scheduled work runs in a later invocation.
type Scheduler interface {
	ScheduleBatch(ctx context.Context, jobID string) error
	ScheduleSweep(ctx context.Context, storeID string, afterID int64) error
}

type titleResolver interface {
	NewSession() *MatchSession
}

type ProcessBatchInput struct {
	JobID string
}

type ProcessBatchOutput struct {
	JobID     string            `json:"job_id"`
	Status    domain.SyncStatus `json:"status"`
	Processed int64             `json:"processed"`
	Failed    int64             `json:"failed"`
	Total     int64             `json:"total"`
	Done      bool              `json:"done"`
	HasMore   bool              `json:"has_more"`
}

type ProcessBatch interface {
	Execute(ctx context.Context, in ProcessBatchInput) (ProcessBatchOutput, error)
}

type ProcessBatchDeps struct {
	Jobs      domain.SyncJobRepository
	Stores    domain.StoreRepository
	Items     domain.CatalogItemRepository
	Writer    domain.CatalogItemBulkWriter
	Source    CatalogSource
	Matcher   titleResolver
	Scheduler Scheduler
	Logger    zerolog.Logger
}

type ProcessBatchConfig struct {
	PageSize     int
	MatchWorkers int
	AutoSweep    bool
	Now          func() time.Time
}

type processBatch struct {
	deps ProcessBatchDeps
	cfg  ProcessBatchConfig
}

func NewProcessBatch(deps ProcessBatchDeps, cfg ProcessBatchConfig) ProcessBatch {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 250
	}
	if cfg.MatchWorkers <= 0 {
		cfg.MatchWorkers = 5
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	deps.Logger = deps.Logger.With().Str("component", "process_batch").Logger()
	return &processBatch{deps: deps, cfg: cfg}
}

func (uc *processBatch) Execute(ctx context.Context, in ProcessBatchInput) (ProcessBatchOutput, error) {
	if !validUUID(in.JobID) {
		return ProcessBatchOutput{}, ErrInvalidJobID
	}

	job, err := uc.deps.Jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrSyncJobNotFound) {
			return ProcessBatchOutput{}, ErrSyncJobNotFound
		}
		return ProcessBatchOutput{}, fmt.Errorf("%w: %v", ErrLoadSyncJob, err)
	}

	if job.Status.IsTerminal() {
		return ProcessBatchOutput{
			JobID:     job.ID,
			Status:    job.Status,
			Processed: job.ProcessedItems,
			Failed:    job.FailedItems,
			Total:     job.TotalItems,
			Done:      true,
		}, nil
	}

	store, err := uc.deps.Stores.GetByID(ctx, job.StoreID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			return ProcessBatchOutput{}, ErrStoreNotFound
		}
		return ProcessBatchOutput{}, fmt.Errorf("%w: %v", ErrLoadStore, err)
	}

	logger := uc.deps.Logger.With().Str("job_id", job.ID).Str("store_id", store.ID).Logger()

	if job.Status == domain.SyncStatusPending {
		if err := uc.deps.Jobs.MarkProcessing(ctx, job.ID, uc.cfg.Now()); err != nil {
			return ProcessBatchOutput{}, fmt.Errorf("%w: %v", ErrUpdateSyncJob, err)
		}
		job.Status = domain.SyncStatusProcessing
	}

	cursor := ""
	if job.Cursor != nil {
		cursor = *job.Cursor
	}

	page, err := uc.deps.Source.ListProducts(ctx, store, cursor, uc.cfg.PageSize)
	if err != nil {
		return ProcessBatchOutput{}, uc.fail(ctx, job, ErrUpstreamFetch, err)
	}

	items, failures, err := uc.buildItems(ctx, store.ID, page.Products)
	if err != nil {
		return ProcessBatchOutput{}, uc.fail(ctx, job, ErrStoreCatalogItems, err)
	}

	if len(items) > 0 {
		result, err := uc.deps.Writer.UpsertPage(ctx, items)
		if err != nil {
			return ProcessBatchOutput{}, uc.fail(ctx, job, ErrStoreCatalogItems, err)
		}
		logger.Debug().
			Int64("inserted", result.InsertedCount).
			Int64("updated", result.UpdatedCount).
			Msg("catalog page stored")
	}

	progress := job.Advance(int64(len(page.Products)), failures, page.NextCursor, uc.cfg.Now())
	if err := uc.deps.Jobs.SaveProgress(ctx, job.ID, progress); err != nil {
		if errors.Is(err, domain.ErrStaleProgress) {
			// Another invocation already advanced past this cursor.
			logger.Info().Str("cursor", cursor).Msg("duplicate batch invocation, skipping continuation")
			return ProcessBatchOutput{
				JobID:     job.ID,
				Status:    progress.Status,
				Processed: progress.ProcessedItems,
				Failed:    progress.FailedItems,
				Total:     job.TotalItems,
				Done:      progress.Done(),
				HasMore:   page.NextCursor != "",
			}, nil
		}
		return ProcessBatchOutput{}, uc.fail(ctx, job, ErrUpdateSyncJob, err)
	}

	out := ProcessBatchOutput{
		JobID:     job.ID,
		Status:    progress.Status,
		Processed: progress.ProcessedItems,
		Failed:    progress.FailedItems,
		Total:     job.TotalItems,
		Done:      progress.Done(),
		HasMore:   page.NextCursor != "",
	}

	logger.Info().
		Int("products", len(page.Products)).
		Int("rows", len(items)).
		Int64("processed", out.Processed).
		Int64("total", out.Total).
		Bool("done", out.Done).
		Msg("sync batch processed")

	if !out.Done {
		if err := uc.deps.Scheduler.ScheduleBatch(ctx, job.ID); err != nil {
			logger.Error().Err(err).Msg("schedule next batch failed")
		}
		return out, nil
	}

	if uc.cfg.AutoSweep {
		if err := uc.deps.Scheduler.ScheduleSweep(ctx, store.ID, 0); err != nil {
			logger.Error().Err(err).Msg("schedule match sweep failed")
		}
	}
	return out, nil
}

// buildItems maps a page to rows. Products keep a stored match when their
// title has not changed; the rest are resolved concurrently.
func (uc *processBatch) buildItems(ctx context.Context, storeID string, products []domain.UpstreamProduct) ([]domain.CatalogItem, int64, error) {
	variantIDs := make([]string, 0, len(products))
	for _, product := range products {
		for _, variant := range product.Variants {
			variantIDs = append(variantIDs, strconv.FormatInt(variant.ID, 10))
		}
	}

	existing := map[string]domain.CatalogItem{}
	if len(variantIDs) > 0 {
		found, err := uc.deps.Items.FindByVariants(ctx, storeID, variantIDs)
		if err != nil {
			return nil, 0, fmt.Errorf("load existing items: %w", err)
		}
		existing = found
	}

	matches := make([]domain.MatchResult, len(products))
	fallbacks := make([][]domain.ProductImage, len(products))
	session := uc.deps.Matcher.NewSession()

	var g errgroup.Group
	g.SetLimit(uc.cfg.MatchWorkers)
	for i, product := range products {
		prior, ok := priorItem(existing, product)
		if ok {
			fallbacks[i] = prior.Images
			if prior.Title == product.Title && prior.IsMatched() {
				matches[i] = prior.CurrentMatch()
				continue
			}
		}
		g.Go(func() error {
			matches[i] = session.Resolve(ctx, product.Title)
			return nil
		})
	}
	_ = g.Wait()

	items := make([]domain.CatalogItem, 0, len(variantIDs))
	var failures int64
	for i, product := range products {
		rows, errs := domain.NewCatalogItems(storeID, product, matches[i], fallbacks[i])
		items = append(items, rows...)
		for _, err := range errs {
			failures++
			uc.deps.Logger.Warn().Err(err).Int64("product_id", product.ID).Msg("skipping catalog variant")
		}
	}
	return items, failures, nil
}

func priorItem(existing map[string]domain.CatalogItem, product domain.UpstreamProduct) (domain.CatalogItem, bool) {
	var fallback domain.CatalogItem
	found := false
	for _, variant := range product.Variants {
		item, ok := existing[strconv.FormatInt(variant.ID, 10)]
		if !ok {
			continue
		}
		if item.IsMatched() {
			return item, true
		}
		if !found {
			fallback, found = item, true
		}
	}
	return fallback, found
}

// fail marks the job failed. An error caused by ctx ending is a shutdown,
// not a job failure: the job stays resumable and nothing is written.
func (uc *processBatch) fail(ctx context.Context, job domain.SyncJob, kind error, cause error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		uc.deps.Logger.Warn().Err(cause).Str("job_id", job.ID).Msg("batch interrupted, job left for resume")
		return fmt.Errorf("batch interrupted: %w", ctxErr)
	}
	err := fmt.Errorf("%w: %v", kind, cause)
	if failErr := uc.deps.Jobs.Fail(ctx, job.ID, truncateReason(err.Error())); failErr != nil {
		return fmt.Errorf("%w; fail update failed: %v", err, failErr)
	}
	uc.deps.Logger.Error().Err(err).Str("job_id", job.ID).Msg("sync job failed")
	return err
}
