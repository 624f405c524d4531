package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/rs/zerolog"
)

// CardCatalogFeed lists canonical cards in bulk.
type CardCatalogFeed interface {
	CardsUpdatedSince(ctx context.Context, since time.Time) ([]domain.CanonicalCard, error)
	AllCards(ctx context.Context) ([]domain.CanonicalCard, error)
}

type cardWriter interface {
	Upsert(ctx context.Context, cards []domain.CanonicalCard) error
}

type RefreshCanonicalCardsInput struct {
	// Full imports the whole catalog and ignores SinceDays.
	Full      bool
	SinceDays int
}

type RefreshCanonicalCardsOutput struct {
	Fetched      int `json:"fetched"`
	Upserted     int `json:"upserted"`
	FailedChunks int `json:"failed_chunks"`
}

type RefreshCanonicalCards interface {
	Execute(ctx context.Context, in RefreshCanonicalCardsInput) (RefreshCanonicalCardsOutput, error)
}

type RefreshCanonicalCardsConfig struct {
	ChunkSize int
	Now       func() time.Time
}

type refreshCanonicalCards struct {
	feed   CardCatalogFeed
	cards  cardWriter
	cfg    RefreshCanonicalCardsConfig
	logger zerolog.Logger
}

func NewRefreshCanonicalCards(feed CardCatalogFeed, cards cardWriter, cfg RefreshCanonicalCardsConfig, logger zerolog.Logger) RefreshCanonicalCards {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 100
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &refreshCanonicalCards{
		feed:   feed,
		cards:  cards,
		cfg:    cfg,
		logger: logger.With().Str("component", "card_refresh").Logger(),
	}
}

func (uc *refreshCanonicalCards) Execute(ctx context.Context, in RefreshCanonicalCardsInput) (RefreshCanonicalCardsOutput, error) {
	var (
		cards []domain.CanonicalCard
		err   error
	)
	if in.Full {
		cards, err = uc.feed.AllCards(ctx)
	} else {
		days := in.SinceDays
		if days <= 0 {
			days = 14
		}
		cards, err = uc.feed.CardsUpdatedSince(ctx, uc.cfg.Now().AddDate(0, 0, -days))
	}
	if err != nil {
		return RefreshCanonicalCardsOutput{}, fmt.Errorf("%w: %v", ErrFetchCards, err)
	}

	out := RefreshCanonicalCardsOutput{Fetched: len(cards)}
	for start := 0; start < len(cards); start += uc.cfg.ChunkSize {
		end := min(start+uc.cfg.ChunkSize, len(cards))
		chunk := make([]domain.CanonicalCard, 0, end-start)
		for _, card := range cards[start:end] {
			if card.ID == 0 || card.Name == "" {
				continue
			}
			card.NormalizedName = cardname.Normalize(card.Name)
			chunk = append(chunk, card)
		}
		if len(chunk) == 0 {
			continue
		}
		if err := uc.cards.Upsert(ctx, chunk); err != nil {
			out.FailedChunks++
			uc.logger.Warn().Err(err).Int("offset", start).Int("size", len(chunk)).Msg("card chunk upsert failed")
			continue
		}
		out.Upserted += len(chunk)
	}

	uc.logger.Info().
		Bool("full", in.Full).
		Int("fetched", out.Fetched).
		Int("upserted", out.Upserted).
		Int("failed_chunks", out.FailedChunks).
		Msg("canonical cards refreshed")
	return out, nil
}
