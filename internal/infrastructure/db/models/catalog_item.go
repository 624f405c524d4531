package models

import (
	"time"

	"gorm.io/datatypes"
)

type CatalogItem struct {
	ID                 int64   `gorm:"primaryKey"`
	StoreID            string  `gorm:"type:uuid;not null;uniqueIndex:ux_catalog_items_store_variant,priority:1"`
	ExternalProductID  string  `gorm:"type:text;not null;index"`
	ExternalVariantID  string  `gorm:"type:text;not null;uniqueIndex:ux_catalog_items_store_variant,priority:2"`
	InventoryItemID    *string `gorm:"type:text"`
	Title              string  `gorm:"type:text;not null"`
	VariantTitle       *string `gorm:"type:text"`
	Vendor             *string `gorm:"type:text"`
	ProductType        *string `gorm:"type:text"`
	Price              float64 `gorm:"type:numeric(12,2);not null;default:0"`
	InventoryQty       int64   `gorm:"not null;default:0"`
	SKU                *string `gorm:"column:sku;type:text"`
	Images             datatypes.JSON
	MatchedCardID      *int64
	MatchedCardName    *string `gorm:"type:text"`
	NormalizedCardName string  `gorm:"type:text;not null;default:''"`
	MatchConfidence    *float64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (CatalogItem) TableName() string {
	return "catalog_items"
}
