package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncJob struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	StoreID        string  `gorm:"type:uuid;not null;index"`
	Status         string  `gorm:"type:text;not null"`
	TotalItems     int64   `gorm:"not null;default:0"`
	ProcessedItems int64   `gorm:"not null;default:0"`
	FailedItems    int64   `gorm:"not null;default:0"`
	Cursor         *string `gorm:"type:text"`
	ErrorMessage   *string `gorm:"type:text"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (SyncJob) TableName() string {
	return "sync_jobs"
}

func (j *SyncJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
