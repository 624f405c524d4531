package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
)

var stagingColumns = []string{
	"batch_id", "row_index", "store_id", "external_product_id", "external_variant_id", "inventory_item_id",
	"title", "variant_title", "vendor", "product_type", "price", "inventory_qty", "sku", "images",
	"matched_card_id", "matched_card_name", "normalized_card_name", "match_confidence",
}

// CatalogPageWriter stores one upstream page in a single transaction: rows
// are copied into an unlogged staging table and merged from there.
type CatalogPageWriter struct {
	pool *pgxpool.Pool
}

func NewCatalogPageWriter(pool *pgxpool.Pool) *CatalogPageWriter {
	return &CatalogPageWriter{pool: pool}
}

func (w *CatalogPageWriter) UpsertPage(ctx context.Context, items []domain.CatalogItem) (domain.UpsertResult, error) {
	if len(items) == 0 {
		return domain.UpsertResult{}, nil
	}

	batchID := uuid.NewString()
	rows := make([][]any, 0, len(items))
	for i, item := range items {
		images, err := encodeImages(item.Images)
		if err != nil {
			return domain.UpsertResult{}, err
		}
		rows = append(rows, []any{
			batchID,
			int64(i),
			item.StoreID,
			item.ExternalProductID,
			item.ExternalVariantID,
			nullableText(item.InventoryItemID),
			item.Title,
			nullableText(item.VariantTitle),
			nullableText(item.Vendor),
			nullableText(item.ProductType),
			item.Price,
			item.InventoryQty,
			nullableText(item.SKU),
			string(images),
			item.MatchedCardID,
			item.MatchedCardName,
			item.NormalizedCardName,
			item.MatchConfidence,
		})
	}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"stg_catalog_items"}, stagingColumns, pgx.CopyFromRows(rows)); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("copy catalog items staging: %w", err)
	}

	inserted, updated, err := mergeStagedItems(ctx, tx, batchID)
	if err != nil {
		return domain.UpsertResult{}, err
	}

	if _, err := tx.Exec(ctx, "DELETE FROM stg_catalog_items WHERE batch_id = $1", batchID); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("cleanup stg_catalog_items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("commit catalog page: %w", err)
	}

	return domain.UpsertResult{InsertedCount: inserted, UpdatedCount: updated}, nil
}

func mergeStagedItems(ctx context.Context, tx pgx.Tx, batchID string) (int64, int64, error) {
	rows, err := tx.Query(ctx, `
WITH staged AS (
    SELECT DISTINCT ON (store_id, external_variant_id) *
    FROM stg_catalog_items
    WHERE batch_id = $1
    ORDER BY store_id, external_variant_id, row_index DESC
), upserted AS (
    INSERT INTO catalog_items (
      store_id, external_product_id, external_variant_id, inventory_item_id, title, variant_title,
      vendor, product_type, price, inventory_qty, sku, images, matched_card_id, matched_card_name,
      normalized_card_name, match_confidence, created_at, updated_at
    )
    SELECT
      store_id, external_product_id, external_variant_id, inventory_item_id, title, variant_title,
      vendor, product_type, price, inventory_qty, sku, images::jsonb, matched_card_id, matched_card_name,
      normalized_card_name, match_confidence, NOW(), NOW()
    FROM staged
    ON CONFLICT (store_id, external_variant_id) DO UPDATE
      SET external_product_id = EXCLUDED.external_product_id,
          inventory_item_id = EXCLUDED.inventory_item_id,
          title = EXCLUDED.title,
          variant_title = EXCLUDED.variant_title,
          vendor = EXCLUDED.vendor,
          product_type = EXCLUDED.product_type,
          price = EXCLUDED.price,
          inventory_qty = EXCLUDED.inventory_qty,
          sku = EXCLUDED.sku,
          images = EXCLUDED.images,
          matched_card_id = COALESCE(EXCLUDED.matched_card_id, catalog_items.matched_card_id),
          matched_card_name = COALESCE(EXCLUDED.matched_card_name, catalog_items.matched_card_name),
          match_confidence = COALESCE(EXCLUDED.match_confidence, catalog_items.match_confidence),
          normalized_card_name = CASE
            WHEN EXCLUDED.matched_card_id IS NULL AND catalog_items.matched_card_id IS NOT NULL
            THEN catalog_items.normalized_card_name
            ELSE EXCLUDED.normalized_card_name
          END,
          updated_at = NOW()
    RETURNING (xmax = 0) AS inserted
)
SELECT inserted FROM upserted
`, batchID)
	if err != nil {
		return 0, 0, fmt.Errorf("merge staged catalog items: %w", err)
	}
	defer rows.Close()

	return countInsertedUpdated(rows)
}

func countInsertedUpdated(rows pgx.Rows) (int64, int64, error) {
	var inserted int64
	var updated int64

	for rows.Next() {
		var isInsert bool
		if err := rows.Scan(&isInsert); err != nil {
			return 0, 0, err
		}
		if isInsert {
			inserted++
		} else {
			updated++
		}
	}

	if err := rows.Err(); err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}
