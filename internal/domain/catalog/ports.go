package catalog

import (
	"context"
	"time"

	"github.com/samber/mo"
)

type SyncJobRepository interface {
	Create(ctx context.Context, job SyncJob) (SyncJob, error)
	GetByID(ctx context.Context, jobID string) (SyncJob, error)
	MarkProcessing(ctx context.Context, jobID string, startedAt time.Time) error
	SaveProgress(ctx context.Context, jobID string, progress SyncProgress) error
	Fail(ctx context.Context, jobID string, reason string) error
	ListStalled(ctx context.Context, updatedBefore time.Time, limit int) ([]SyncJob, error)
}

type StoreRepository interface {
	GetByID(ctx context.Context, storeID string) (Store, error)
	GetByDomain(ctx context.Context, shopDomain string) (Store, error)
}

type CatalogItemRepository interface {
	Upsert(ctx context.Context, items []CatalogItem) error
	FindByVariant(ctx context.Context, storeID, variantID string) (mo.Option[CatalogItem], error)
	FindByVariants(ctx context.Context, storeID string, variantIDs []string) (map[string]CatalogItem, error)
	DeleteByProduct(ctx context.Context, storeID, productID string) (int64, error)
	UpdateInventory(ctx context.Context, storeID, inventoryRef string, qty int64) (int64, error)
	ListUnmatched(ctx context.Context, storeID string, afterID int64, limit int) ([]CatalogItem, error)
	SaveMatch(ctx context.Context, itemID int64, match Match, normalizedName string) error
	SearchByName(ctx context.Context, storeID, normalizedName string, limit int) ([]CatalogItem, error)
}

// CatalogItemBulkWriter applies one page of items atomically.
type CatalogItemBulkWriter interface {
	UpsertPage(ctx context.Context, items []CatalogItem) (UpsertResult, error)
}

type UpsertResult struct {
	InsertedCount int64
	UpdatedCount  int64
}

type CanonicalCardRepository interface {
	FindCandidates(ctx context.Context, normalizedName string, limit int) ([]CanonicalCard, error)
	Upsert(ctx context.Context, cards []CanonicalCard) error
}
