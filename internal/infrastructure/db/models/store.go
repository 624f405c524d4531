package models

import "time"

type Store struct {
	ID          string `gorm:"type:uuid;primaryKey"`
	ShopDomain  string `gorm:"type:text;not null;uniqueIndex"`
	AccessToken string `gorm:"type:text;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Store) TableName() string {
	return "connected_stores"
}
