package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
)

const maxSearchResults = 50

type SearchInventoryInput struct {
	StoreID string
	Query   string
	Limit   int
}

type InventoryItemOutput struct {
	ID                int64                 `json:"id"`
	ExternalProductID string                `json:"external_product_id"`
	ExternalVariantID string                `json:"external_variant_id"`
	Title             string                `json:"title"`
	VariantTitle      string                `json:"variant_title,omitempty"`
	Price             float64               `json:"price"`
	InventoryQty      int64                 `json:"inventory_qty"`
	SKU               string                `json:"sku,omitempty"`
	Images            []domain.ProductImage `json:"images"`
	MatchedCardID     *int64                `json:"matched_card_id,omitempty"`
	MatchedCardName   *string               `json:"matched_card_name,omitempty"`
	MatchConfidence   *float64              `json:"match_confidence,omitempty"`
}

type SearchInventoryOutput struct {
	Query string                `json:"query"`
	Items []InventoryItemOutput `json:"items"`
}

type SearchInventory interface {
	Execute(ctx context.Context, in SearchInventoryInput) (SearchInventoryOutput, error)
}

type inventorySearcher interface {
	SearchByName(ctx context.Context, storeID, normalizedName string, limit int) ([]domain.CatalogItem, error)
}

type searchInventory struct {
	stores domain.StoreRepository
	items  inventorySearcher
}

func NewSearchInventory(stores domain.StoreRepository, items inventorySearcher) SearchInventory {
	return &searchInventory{stores: stores, items: items}
}

// Execute looks up stock for a free-text card name, e.g. a line of a deck
// list. The query goes through the same cleaning as product titles.
func (uc *searchInventory) Execute(ctx context.Context, in SearchInventoryInput) (SearchInventoryOutput, error) {
	if !validUUID(in.StoreID) {
		return SearchInventoryOutput{}, ErrInvalidStoreID
	}

	key := cardname.Normalize(cardname.ExtractCandidateName(in.Query))
	if key == "" {
		return SearchInventoryOutput{}, ErrInvalidQuery
	}

	limit := in.Limit
	if limit <= 0 || limit > maxSearchResults {
		limit = maxSearchResults
	}

	if _, err := uc.stores.GetByID(ctx, in.StoreID); err != nil {
		if errors.Is(err, domain.ErrStoreNotFound) {
			return SearchInventoryOutput{}, ErrStoreNotFound
		}
		return SearchInventoryOutput{}, fmt.Errorf("%w: %v", ErrLoadStore, err)
	}

	items, err := uc.items.SearchByName(ctx, in.StoreID, key, limit)
	if err != nil {
		return SearchInventoryOutput{}, fmt.Errorf("%w: %v", ErrSearchInventory, err)
	}

	out := SearchInventoryOutput{Query: key, Items: make([]InventoryItemOutput, 0, len(items))}
	for _, item := range items {
		out.Items = append(out.Items, InventoryItemOutput{
			ID:                item.ID,
			ExternalProductID: item.ExternalProductID,
			ExternalVariantID: item.ExternalVariantID,
			Title:             item.Title,
			VariantTitle:      item.VariantTitle,
			Price:             item.Price,
			InventoryQty:      item.InventoryQty,
			SKU:               item.SKU,
			Images:            item.Images,
			MatchedCardID:     item.MatchedCardID,
			MatchedCardName:   item.MatchedCardName,
			MatchConfidence:   item.MatchConfidence,
		})
	}
	return out, nil
}
