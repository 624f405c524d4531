package catalog_test

import (
	"errors"
	"testing"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
)

func sampleProduct() domain.UpstreamProduct {
	return domain.UpstreamProduct{
		ID:    632910392,
		Title: "Dark Magician - SDY-006 Ultra Rare NM",
		Variants: []domain.UpstreamVariant{
			{ID: 808950810, Title: "Default Title", Price: "12.50", SKU: " SDY-006 ", InventoryQuantity: 3, InventoryItemID: 42},
			{ID: 808950811, Title: "1st Edition", Price: "25.00", InventoryQuantity: 1},
		},
	}
}

func TestNewCatalogItemsWithMatch(t *testing.T) {
	t.Parallel()

	match := domain.Found(domain.Match{CardID: 46986414, Name: "Dark Magician", ImageURL: "https://images.example/46986414.jpg", Confidence: 1})

	items, errs := domain.NewCatalogItems("store-1", sampleProduct(), match, nil)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.ExternalProductID != "632910392" || first.ExternalVariantID != "808950810" {
		t.Fatalf("unexpected keys: %s/%s", first.ExternalProductID, first.ExternalVariantID)
	}
	if first.VariantTitle != "" {
		t.Fatalf("expected default variant title to be dropped, got %q", first.VariantTitle)
	}
	if first.SKU != "SDY-006" || first.InventoryItemID != "42" || first.Price != 12.5 {
		t.Fatalf("unexpected variant fields: %+v", first)
	}
	if first.MatchedCardID == nil || *first.MatchedCardID != 46986414 {
		t.Fatal("expected matched card id")
	}
	if first.NormalizedCardName != "dark magician" {
		t.Fatalf("unexpected normalized name: %q", first.NormalizedCardName)
	}
	if len(first.Images) != 1 || first.Images[0].Src != "https://images.example/46986414.jpg" {
		t.Fatalf("expected card image fallback, got %+v", first.Images)
	}
	if items[1].VariantTitle != "1st Edition" {
		t.Fatalf("unexpected variant title: %q", items[1].VariantTitle)
	}
}

func TestNewCatalogItemsWithoutMatch(t *testing.T) {
	t.Parallel()

	product := sampleProduct()
	product.Images = []domain.ProductImage{{Src: "https://cdn.example/own.jpg"}}

	items, errs := domain.NewCatalogItems("store-1", product, domain.NotFound(), nil)
	if len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if items[0].MatchedCardID != nil || items[0].MatchConfidence != nil {
		t.Fatal("expected no match fields")
	}
	if items[0].NormalizedCardName != "dark magician" {
		t.Fatalf("expected candidate name to be normalized, got %q", items[0].NormalizedCardName)
	}
	if items[0].Images[0].Src != "https://cdn.example/own.jpg" {
		t.Fatalf("expected product image to win, got %+v", items[0].Images)
	}
}

func TestNewCatalogItemsSkipsInvalidPrice(t *testing.T) {
	t.Parallel()

	product := sampleProduct()
	product.Variants[1].Price = "n/a"

	items, errs := domain.NewCatalogItems("store-1", product, domain.NotFound(), nil)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if len(errs) != 1 || !errors.Is(errs[0], domain.ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", errs)
	}
}

func TestCatalogItemCurrentMatch(t *testing.T) {
	t.Parallel()

	id := int64(89631139)
	name := "Blue-Eyes White Dragon"
	confidence := 0.8
	item := domain.CatalogItem{MatchedCardID: &id, MatchedCardName: &name, MatchConfidence: &confidence}

	m, ok := item.CurrentMatch().Get()
	if !ok {
		t.Fatal("expected stored match")
	}
	if m.CardID != id || m.Tier != domain.MatchTierStrong {
		t.Fatalf("unexpected match: %+v", m)
	}

	if _, ok := (domain.CatalogItem{}).CurrentMatch().Get(); ok {
		t.Fatal("expected no match on empty item")
	}
}
