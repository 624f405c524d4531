package repository

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

type StoreRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) *StoreRepository {
	return &StoreRepository{db: db}
}

func (r *StoreRepository) GetByID(ctx context.Context, storeID string) (domain.Store, error) {
	return r.first(ctx, "id = ?", storeID)
}

func (r *StoreRepository) GetByDomain(ctx context.Context, shopDomain string) (domain.Store, error) {
	return r.first(ctx, "shop_domain = ?", shopDomain)
}

func (r *StoreRepository) first(ctx context.Context, query string, arg string) (domain.Store, error) {
	var row models.Store

	err := r.db.WithContext(ctx).First(&row, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Store{}, domain.ErrStoreNotFound
		}
		return domain.Store{}, fmt.Errorf("get store: %w", err)
	}

	return domain.Store{ID: row.ID, ShopDomain: row.ShopDomain, AccessToken: row.AccessToken}, nil
}
