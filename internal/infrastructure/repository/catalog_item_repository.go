package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/db/models"
	"github.com/samber/mo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// keepMatchAssignments never lets a write without a match clear a stored one.
var keepMatchAssignments = map[string]any{
	"matched_card_id":   gorm.Expr("COALESCE(excluded.matched_card_id, catalog_items.matched_card_id)"),
	"matched_card_name": gorm.Expr("COALESCE(excluded.matched_card_name, catalog_items.matched_card_name)"),
	"match_confidence":  gorm.Expr("COALESCE(excluded.match_confidence, catalog_items.match_confidence)"),
	"normalized_card_name": gorm.Expr(
		"CASE WHEN excluded.matched_card_id IS NULL AND catalog_items.matched_card_id IS NOT NULL " +
			"THEN catalog_items.normalized_card_name ELSE excluded.normalized_card_name END"),
}

type CatalogItemRepository struct {
	db *gorm.DB
}

func NewCatalogItemRepository(db *gorm.DB) *CatalogItemRepository {
	return &CatalogItemRepository{db: db}
}

func (r *CatalogItemRepository) Upsert(ctx context.Context, items []domain.CatalogItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]models.CatalogItem, 0, len(items))
	for _, item := range items {
		row, err := toCatalogItemModel(item)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	assignments := clause.AssignmentColumns([]string{
		"external_product_id", "inventory_item_id", "title", "variant_title", "vendor", "product_type",
		"price", "inventory_qty", "sku", "images", "updated_at",
	})
	for column, expr := range keepMatchAssignments {
		assignments = append(assignments, clause.Assignment{Column: clause.Column{Name: column}, Value: expr})
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "external_variant_id"}},
			DoUpdates: assignments,
		}).
		Create(&rows).Error
	if err != nil {
		return fmt.Errorf("upsert catalog items: %w", err)
	}
	return nil
}

func (r *CatalogItemRepository) FindByVariant(ctx context.Context, storeID, variantID string) (mo.Option[domain.CatalogItem], error) {
	var row models.CatalogItem

	err := r.db.WithContext(ctx).
		First(&row, "store_id = ? AND external_variant_id = ?", storeID, variantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return mo.None[domain.CatalogItem](), nil
		}
		return mo.None[domain.CatalogItem](), fmt.Errorf("find catalog item: %w", err)
	}

	item, err := toDomainCatalogItem(row)
	if err != nil {
		return mo.None[domain.CatalogItem](), err
	}
	return mo.Some(item), nil
}

func (r *CatalogItemRepository) FindByVariants(ctx context.Context, storeID string, variantIDs []string) (map[string]domain.CatalogItem, error) {
	out := make(map[string]domain.CatalogItem, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}

	var rows []models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND external_variant_id IN ?", storeID, variantIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find catalog items by variant: %w", err)
	}

	for _, row := range rows {
		item, err := toDomainCatalogItem(row)
		if err != nil {
			return nil, err
		}
		out[item.ExternalVariantID] = item
	}
	return out, nil
}

func (r *CatalogItemRepository) DeleteByProduct(ctx context.Context, storeID, productID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("store_id = ? AND external_product_id = ?", storeID, productID).
		Delete(&models.CatalogItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete catalog items by product: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *CatalogItemRepository) UpdateInventory(ctx context.Context, storeID, inventoryRef string, qty int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CatalogItem{}).
		Where("store_id = ? AND (external_variant_id = ? OR inventory_item_id = ?)", storeID, inventoryRef, inventoryRef).
		Updates(map[string]any{
			"inventory_qty": qty,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("update catalog item inventory: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *CatalogItemRepository) ListUnmatched(ctx context.Context, storeID string, afterID int64, limit int) ([]domain.CatalogItem, error) {
	var rows []models.CatalogItem

	err := r.db.WithContext(ctx).
		Where("store_id = ? AND matched_card_id IS NULL AND id > ?", storeID, afterID).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unmatched catalog items: %w", err)
	}
	return toDomainCatalogItems(rows)
}

func (r *CatalogItemRepository) SaveMatch(ctx context.Context, itemID int64, match domain.Match, normalizedName string) error {
	err := r.db.WithContext(ctx).
		Model(&models.CatalogItem{}).
		Where("id = ?", itemID).
		Updates(map[string]any{
			"matched_card_id":      match.CardID,
			"matched_card_name":    match.Name,
			"match_confidence":     match.Confidence,
			"normalized_card_name": normalizedName,
			"updated_at":           time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("save catalog item match: %w", err)
	}
	return nil
}

// SearchByName returns items whose card name equals or starts with the
// normalized query; exact names and larger stock come first.
func (r *CatalogItemRepository) SearchByName(ctx context.Context, storeID, normalizedName string, limit int) ([]domain.CatalogItem, error) {
	var rows []models.CatalogItem

	pattern := escapeLike(normalizedName) + "%"
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND normalized_card_name LIKE ?", storeID, pattern).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "normalized_card_name = ? DESC, inventory_qty DESC, id",
			Vars:               []any{normalizedName},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("search catalog items: %w", err)
	}
	return toDomainCatalogItems(rows)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

func toCatalogItemModel(item domain.CatalogItem) (models.CatalogItem, error) {
	images, err := encodeImages(item.Images)
	if err != nil {
		return models.CatalogItem{}, err
	}
	return models.CatalogItem{
		StoreID:            item.StoreID,
		ExternalProductID:  item.ExternalProductID,
		ExternalVariantID:  item.ExternalVariantID,
		InventoryItemID:    nullableText(item.InventoryItemID),
		Title:              item.Title,
		VariantTitle:       nullableText(item.VariantTitle),
		Vendor:             nullableText(item.Vendor),
		ProductType:        nullableText(item.ProductType),
		Price:              item.Price,
		InventoryQty:       item.InventoryQty,
		SKU:                nullableText(item.SKU),
		Images:             datatypes.JSON(images),
		MatchedCardID:      item.MatchedCardID,
		MatchedCardName:    item.MatchedCardName,
		NormalizedCardName: item.NormalizedCardName,
		MatchConfidence:    item.MatchConfidence,
	}, nil
}

func toDomainCatalogItem(row models.CatalogItem) (domain.CatalogItem, error) {
	images := []domain.ProductImage{}
	if len(row.Images) > 0 {
		if err := json.Unmarshal(row.Images, &images); err != nil {
			return domain.CatalogItem{}, fmt.Errorf("decode images of catalog item %d: %w", row.ID, err)
		}
	}
	return domain.CatalogItem{
		ID:                 row.ID,
		StoreID:            row.StoreID,
		ExternalProductID:  row.ExternalProductID,
		ExternalVariantID:  row.ExternalVariantID,
		InventoryItemID:    textValue(row.InventoryItemID),
		Title:              row.Title,
		VariantTitle:       textValue(row.VariantTitle),
		Vendor:             textValue(row.Vendor),
		ProductType:        textValue(row.ProductType),
		Price:              row.Price,
		InventoryQty:       row.InventoryQty,
		SKU:                textValue(row.SKU),
		Images:             images,
		MatchedCardID:      row.MatchedCardID,
		MatchedCardName:    row.MatchedCardName,
		NormalizedCardName: row.NormalizedCardName,
		MatchConfidence:    row.MatchConfidence,
		UpdatedAt:          row.UpdatedAt,
	}, nil
}

func toDomainCatalogItems(rows []models.CatalogItem) ([]domain.CatalogItem, error) {
	items := make([]domain.CatalogItem, 0, len(rows))
	for _, row := range rows {
		item, err := toDomainCatalogItem(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func encodeImages(images []domain.ProductImage) ([]byte, error) {
	if images == nil {
		images = []domain.ProductImage{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}
	return raw, nil
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func textValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
