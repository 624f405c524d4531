package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mohammadpnp/catalog-sync/internal/domain/cardname"
)

const defaultVariantTitle = "Default Title"

type ProductImage struct {
	Src string `json:"src"`
	Alt string `json:"alt,omitempty"`
}

type CatalogItem struct {
	ID                 int64
	StoreID            string
	ExternalProductID  string
	ExternalVariantID  string
	InventoryItemID    string
	Title              string
	VariantTitle       string
	Vendor             string
	ProductType        string
	Price              float64
	InventoryQty       int64
	SKU                string
	Images             []ProductImage
	MatchedCardID      *int64
	MatchedCardName    *string
	NormalizedCardName string
	MatchConfidence    *float64
	UpdatedAt          time.Time
}

func (i CatalogItem) IsMatched() bool {
	return i.MatchedCardID != nil
}

// ApplyMatch copies a resolved card onto the item.
func (i *CatalogItem) ApplyMatch(m Match) {
	cardID := m.CardID
	name := m.Name
	confidence := m.Confidence
	i.MatchedCardID = &cardID
	i.MatchedCardName = &name
	i.MatchConfidence = &confidence
}

// CurrentMatch returns the match already stored on the item.
func (i CatalogItem) CurrentMatch() MatchResult {
	if i.MatchedCardID == nil || i.MatchedCardName == nil {
		return NotFound()
	}
	m := Match{CardID: *i.MatchedCardID, Name: *i.MatchedCardName, Tier: MatchTierWeak}
	if i.MatchConfidence != nil {
		m.Confidence = *i.MatchConfidence
	}
	if m.Confidence*100 >= ScoreStrong {
		m.Tier = MatchTierStrong
	}
	return Found(m)
}

// NewCatalogItem maps one upstream variant to its stored row. Products
// without images fall back to fallbackImages, then to the matched card image.
func NewCatalogItem(storeID string, product UpstreamProduct, variant UpstreamVariant, match MatchResult, fallbackImages []ProductImage) (CatalogItem, error) {
	price, err := parsePrice(variant.Price)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("variant %d: %w", variant.ID, err)
	}

	item := CatalogItem{
		StoreID:           storeID,
		ExternalProductID: strconv.FormatInt(product.ID, 10),
		ExternalVariantID: strconv.FormatInt(variant.ID, 10),
		Title:             product.Title,
		Vendor:            product.Vendor,
		ProductType:       product.ProductType,
		Price:             price,
		InventoryQty:      variant.InventoryQuantity,
		SKU:               strings.TrimSpace(variant.SKU),
		Images:            product.Images,
	}
	if variant.InventoryItemID != 0 {
		item.InventoryItemID = strconv.FormatInt(variant.InventoryItemID, 10)
	}
	if variant.Title != defaultVariantTitle {
		item.VariantTitle = variant.Title
	}

	if len(item.Images) == 0 {
		item.Images = fallbackImages
	}

	if m, ok := match.Get(); ok {
		item.ApplyMatch(m)
		item.NormalizedCardName = cardname.Normalize(m.Name)
		if len(item.Images) == 0 && m.ImageURL != "" {
			item.Images = []ProductImage{{Src: m.ImageURL}}
		}
	} else {
		item.NormalizedCardName = cardname.Normalize(cardname.ExtractCandidateName(product.Title))
	}
	if item.Images == nil {
		item.Images = []ProductImage{}
	}
	return item, nil
}

// NewCatalogItems maps every variant of a product. Variants that cannot be
// mapped are returned as errors and skipped.
func NewCatalogItems(storeID string, product UpstreamProduct, match MatchResult, fallbackImages []ProductImage) ([]CatalogItem, []error) {
	items := make([]CatalogItem, 0, len(product.Variants))
	var errs []error
	for _, variant := range product.Variants {
		item, err := NewCatalogItem(storeID, product, variant, match, fallbackImages)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, item)
	}
	return items, errs
}

func parsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidPrice
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price < 0 {
		return 0, ErrInvalidPrice
	}
	return price, nil
}

// UpstreamProduct is one product as listed by the merchant's catalog API.
type UpstreamProduct struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Vendor      string            `json:"vendor"`
	ProductType string            `json:"product_type"`
	Images      []ProductImage    `json:"images"`
	Variants    []UpstreamVariant `json:"variants"`
}

type UpstreamVariant struct {
	ID                int64  `json:"id"`
	ProductID         int64  `json:"product_id"`
	Title             string `json:"title"`
	Price             string `json:"price"`
	SKU               string `json:"sku"`
	InventoryQuantity int64  `json:"inventory_quantity"`
	InventoryItemID   int64  `json:"inventory_item_id"`
}

// ProductPage is one page of the upstream listing. NextCursor is empty on
// the last page.
type ProductPage struct {
	Products   []UpstreamProduct
	NextCursor string
}

// InventoryLevel is the payload of an inventory level update event.
type InventoryLevel struct {
	InventoryItemID int64 `json:"inventory_item_id"`
	LocationID      int64 `json:"location_id"`
	Available       int64 `json:"available"`
}
