package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/db/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CanonicalCardRepository struct {
	db *gorm.DB
}

func NewCanonicalCardRepository(db *gorm.DB) *CanonicalCardRepository {
	return &CanonicalCardRepository{db: db}
}

// FindCandidates returns cards whose normalized name equals or contains
// normalizedName, exact and shorter names first.
func (r *CanonicalCardRepository) FindCandidates(ctx context.Context, normalizedName string, limit int) ([]domain.CanonicalCard, error) {
	var rows []models.CanonicalCard

	err := r.db.WithContext(ctx).
		Where("normalized_name = ? OR normalized_name LIKE ?", normalizedName, "%"+escapeLike(normalizedName)+"%").
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "normalized_name = ? DESC, length(normalized_name), id",
			Vars:               []any{normalizedName},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find canonical cards: %w", err)
	}

	cards := make([]domain.CanonicalCard, 0, len(rows))
	for _, row := range rows {
		card, err := toDomainCanonicalCard(row)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (r *CanonicalCardRepository) Upsert(ctx context.Context, cards []domain.CanonicalCard) error {
	if len(cards) == 0 {
		return nil
	}

	rows := make([]models.CanonicalCard, 0, len(cards))
	seen := make(map[int64]int, len(cards))
	for _, card := range cards {
		row, err := toCanonicalCardModel(card)
		if err != nil {
			return err
		}
		// ON CONFLICT cannot touch the same row twice in one statement.
		if i, ok := seen[row.ID]; ok {
			rows[i] = row
			continue
		}
		seen[row.ID] = len(rows)
		rows = append(rows, row)
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert canonical cards: %w", err)
	}
	return nil
}

func toCanonicalCardModel(card domain.CanonicalCard) (models.CanonicalCard, error) {
	sets, err := json.Marshal(card.Sets)
	if err != nil {
		return models.CanonicalCard{}, fmt.Errorf("encode card sets: %w", err)
	}
	prices, err := json.Marshal(card.Prices)
	if err != nil {
		return models.CanonicalCard{}, fmt.Errorf("encode card prices: %w", err)
	}
	updatedAt := card.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return models.CanonicalCard{
		ID:              card.ID,
		Name:            card.Name,
		NormalizedName:  card.NormalizedName,
		Type:            nullableText(card.Type),
		Race:            nullableText(card.Race),
		Attribute:       nullableText(card.Attribute),
		Archetype:       nullableText(card.Archetype),
		Atk:             card.Atk,
		Def:             card.Def,
		Level:           card.Level,
		Scale:           card.Scale,
		LinkValue:       card.LinkValue,
		Description:     nullableText(card.Description),
		ImageURL:        nullableText(card.ImageURL),
		ImageURLSmall:   nullableText(card.ImageURLSmall),
		ImageURLCropped: nullableText(card.ImageURLCropped),
		CardSets:        datatypes.JSON(sets),
		CardPrices:      datatypes.JSON(prices),
		UpdatedAt:       updatedAt,
	}, nil
}

func toDomainCanonicalCard(row models.CanonicalCard) (domain.CanonicalCard, error) {
	card := domain.CanonicalCard{
		ID:              row.ID,
		Name:            row.Name,
		NormalizedName:  row.NormalizedName,
		Type:            textValue(row.Type),
		Race:            textValue(row.Race),
		Attribute:       textValue(row.Attribute),
		Archetype:       textValue(row.Archetype),
		Atk:             row.Atk,
		Def:             row.Def,
		Level:           row.Level,
		Scale:           row.Scale,
		LinkValue:       row.LinkValue,
		Description:     textValue(row.Description),
		ImageURL:        textValue(row.ImageURL),
		ImageURLSmall:   textValue(row.ImageURLSmall),
		ImageURLCropped: textValue(row.ImageURLCropped),
		UpdatedAt:       row.UpdatedAt,
	}
	if len(row.CardSets) > 0 {
		if err := json.Unmarshal(row.CardSets, &card.Sets); err != nil {
			return domain.CanonicalCard{}, fmt.Errorf("decode sets of card %d: %w", row.ID, err)
		}
	}
	if len(row.CardPrices) > 0 {
		if err := json.Unmarshal(row.CardPrices, &card.Prices); err != nil {
			return domain.CanonicalCard{}, fmt.Errorf("decode prices of card %d: %w", row.ID, err)
		}
	}
	return card, nil
}
