package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type MatchUnmatchedInput struct {
	StoreID string
	AfterID int64
	// Chain schedules the next page through the Scheduler when more
	// unmatched items remain.
	Chain bool
}

type MatchUnmatchedOutput struct {
	StoreID     string `json:"store_id"`
	Scanned     int    `json:"scanned"`
	Matched     int64  `json:"matched"`
	Failed      int64  `json:"failed"`
	NextAfterID int64  `json:"next_after_id"`
	HasMore     bool   `json:"has_more"`
}

type MatchUnmatched interface {
	Execute(ctx context.Context, in MatchUnmatchedInput) (MatchUnmatchedOutput, error)
}

type sweepScheduler interface {
	ScheduleSweep(ctx context.Context, storeID string, afterID int64) error
}

type unmatchedItems interface {
	ListUnmatched(ctx context.Context, storeID string, afterID int64, limit int) ([]domain.CatalogItem, error)
	SaveMatch(ctx context.Context, itemID int64, match domain.Match, normalizedName string) error
}

type MatchUnmatchedConfig struct {
	BatchSize    int
	MatchWorkers int
}

type matchUnmatched struct {
	stores    domain.StoreRepository
	items     unmatchedItems
	matcher   titleResolver
	scheduler sweepScheduler
	cfg       MatchUnmatchedConfig
	logger    zerolog.Logger
}

func NewMatchUnmatched(stores domain.StoreRepository, items unmatchedItems, matcher titleResolver, scheduler sweepScheduler, cfg MatchUnmatchedConfig, logger zerolog.Logger) MatchUnmatched {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MatchWorkers <= 0 {
		cfg.MatchWorkers = 5
	}
	return &matchUnmatched{
		stores:    stores,
		items:     items,
		matcher:   matcher,
		scheduler: scheduler,
		cfg:       cfg,
		logger:    logger.With().Str("component", "match_sweep").Logger(),
	}
}

func (uc *matchUnmatched) Execute(ctx context.Context, in MatchUnmatchedInput) (MatchUnmatchedOutput, error) {
	if !validUUID(in.StoreID) {
		return MatchUnmatchedOutput{}, ErrInvalidStoreID
	}
	if _, err := uc.stores.GetByID(ctx, in.StoreID); err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			return MatchUnmatchedOutput{}, ErrStoreNotFound
		}
		return MatchUnmatchedOutput{}, fmt.Errorf("%w: %v", ErrLoadStore, err)
	}

	items, err := uc.items.ListUnmatched(ctx, in.StoreID, in.AfterID, uc.cfg.BatchSize)
	if err != nil {
		return MatchUnmatchedOutput{}, fmt.Errorf("%w: %v", ErrListUnmatched, err)
	}

	out := MatchUnmatchedOutput{
		StoreID:     in.StoreID,
		Scanned:     len(items),
		NextAfterID: in.AfterID,
		HasMore:     len(items) == uc.cfg.BatchSize,
	}
	if len(items) > 0 {
		out.NextAfterID = items[len(items)-1].ID
	}

	session := uc.matcher.NewSession()
	var matched, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(uc.cfg.MatchWorkers)
	for _, item := range items {
		g.Go(func() error {
			m, ok := session.Resolve(ctx, item.Title).Get()
			if !ok {
				return nil
			}
			if err := uc.items.SaveMatch(ctx, item.ID, m, cardname.Normalize(m.Name)); err != nil {
				failed.Add(1)
				uc.logger.Warn().Err(err).Int64("item_id", item.ID).Msg("save match failed")
				return nil
			}
			matched.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	out.Matched = matched.Load()
	out.Failed = failed.Load()

	uc.logger.Info().
		Str("store_id", in.StoreID).
		Int("scanned", out.Scanned).
		Int64("matched", out.Matched).
		Int64("after_id", out.NextAfterID).
		Msg("match sweep page done")

	if out.HasMore && in.Chain {
		if err := uc.scheduler.ScheduleSweep(ctx, in.StoreID, out.NextAfterID); err != nil {
			uc.logger.Error().Err(err).Str("store_id", in.StoreID).Msg("schedule next sweep page failed")
		}
	}
	return out, nil
}
