package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
	"github.com/mohammadpnp/catalog-sync/internal/infrastructure/db/models"
	"gorm.io/gorm"
)

var terminalStatuses = []string{string(domain.SyncStatusCompleted), string(domain.SyncStatusFailed)}

type SyncJobRepository struct {
	db *gorm.DB
}

func NewSyncJobRepository(db *gorm.DB) *SyncJobRepository {
	return &SyncJobRepository{db: db}
}

func (r *SyncJobRepository) Create(ctx context.Context, job domain.SyncJob) (domain.SyncJob, error) {
	row := models.SyncJob{
		ID:             job.ID,
		StoreID:        job.StoreID,
		Status:         string(job.Status),
		TotalItems:     job.TotalItems,
		ProcessedItems: job.ProcessedItems,
		Cursor:         job.Cursor,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.SyncJob{}, fmt.Errorf("create sync job: %w", err)
	}

	return toDomainSyncJob(row), nil
}

func (r *SyncJobRepository) GetByID(ctx context.Context, jobID string) (domain.SyncJob, error) {
	var row models.SyncJob

	err := r.db.WithContext(ctx).First(&row, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SyncJob{}, domain.ErrSyncJobNotFound
		}
		return domain.SyncJob{}, fmt.Errorf("get sync job: %w", err)
	}

	return toDomainSyncJob(row), nil
}

func (r *SyncJobRepository) MarkProcessing(ctx context.Context, jobID string, startedAt time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.SyncJob{}).
		Where("id = ? AND status = ?", jobID, string(domain.SyncStatusPending)).
		Updates(map[string]any{
			"status":     string(domain.SyncStatusProcessing),
			"started_at": gorm.Expr("COALESCE(started_at, ?)", startedAt),
			"updated_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("mark sync job processing: %w", err)
	}
	return nil
}

// SaveProgress applies progress only while the stored cursor still equals
// progress.PreviousCursor and the job is not terminal.
func (r *SyncJobRepository) SaveProgress(ctx context.Context, jobID string, progress domain.SyncProgress) error {
	result := r.db.WithContext(ctx).
		Model(&models.SyncJob{}).
		Where("id = ? AND status NOT IN ? AND cursor IS NOT DISTINCT FROM ?", jobID, terminalStatuses, progress.PreviousCursor).
		Updates(map[string]any{
			"processed_items": gorm.Expr("GREATEST(processed_items, ?)", progress.ProcessedItems),
			"failed_items":    progress.FailedItems,
			"cursor":          progress.Cursor,
			"status":          string(progress.Status),
			"completed_at":    progress.CompletedAt,
			"updated_at":      time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("save sync job progress: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, jobID); err != nil {
			return err
		}
		return domain.ErrStaleProgress
	}
	return nil
}

func (r *SyncJobRepository) Fail(ctx context.Context, jobID string, reason string) error {
	err := r.db.WithContext(ctx).
		Model(&models.SyncJob{}).
		Where("id = ? AND status NOT IN ?", jobID, terminalStatuses).
		Updates(map[string]any{
			"status":        string(domain.SyncStatusFailed),
			"error_message": reason,
			"updated_at":    time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("fail sync job: %w", err)
	}
	return nil
}

func (r *SyncJobRepository) ListStalled(ctx context.Context, updatedBefore time.Time, limit int) ([]domain.SyncJob, error) {
	var rows []models.SyncJob

	err := r.db.WithContext(ctx).
		Where("status NOT IN ? AND updated_at < ?", terminalStatuses, updatedBefore).
		Order("updated_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list stalled sync jobs: %w", err)
	}

	jobs := make([]domain.SyncJob, 0, len(rows))
	for _, row := range rows {
		jobs = append(jobs, toDomainSyncJob(row))
	}
	return jobs, nil
}

func toDomainSyncJob(row models.SyncJob) domain.SyncJob {
	return domain.SyncJob{
		ID:             row.ID,
		StoreID:        row.StoreID,
		Status:         domain.SyncStatus(row.Status),
		TotalItems:     row.TotalItems,
		ProcessedItems: row.ProcessedItems,
		FailedItems:    row.FailedItems,
		Cursor:         row.Cursor,
		StartedAt:      row.StartedAt,
		CompletedAt:    row.CompletedAt,
		ErrorMessage:   row.ErrorMessage,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}
