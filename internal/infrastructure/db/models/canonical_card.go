package models

import (
	"time"

	"gorm.io/datatypes"
)

type CanonicalCard struct {
	ID              int64   `gorm:"primaryKey;autoIncrement:false"`
	Name            string  `gorm:"type:text;not null"`
	NormalizedName  string  `gorm:"type:text;not null;index"`
	Type            *string `gorm:"type:text"`
	Race            *string `gorm:"type:text"`
	Attribute       *string `gorm:"type:text"`
	Archetype       *string `gorm:"type:text"`
	Atk             *int64
	Def             *int64
	Level           *int64
	Scale           *int64
	LinkValue       *int64
	Description     *string `gorm:"column:description;type:text"`
	ImageURL        *string `gorm:"column:image_url;type:text"`
	ImageURLSmall   *string `gorm:"column:image_url_small;type:text"`
	ImageURLCropped *string `gorm:"column:image_url_cropped;type:text"`
	CardSets        datatypes.JSON
	CardPrices      datatypes.JSON
	UpdatedAt       time.Time
}

func (CanonicalCard) TableName() string {
	return "canonical_cards"
}
