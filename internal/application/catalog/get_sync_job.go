package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/mohammadpnp/catalog-sync/internal/domain/catalog"
)

type GetSyncJobInput struct {
	JobID string
}

type GetSyncJobOutput struct {
	ID             string            `json:"id"`
	StoreID        string            `json:"store_id"`
	Status         domain.SyncStatus `json:"status"`
	TotalItems     int64             `json:"total_items"`
	ProcessedItems int64             `json:"processed_items"`
	FailedItems    int64             `json:"failed_items"`
	StartedAt      *time.Time        `json:"started_at,omitempty"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
	ErrorMessage   *string           `json:"error_message,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type GetSyncJob interface {
	Execute(ctx context.Context, in GetSyncJobInput) (GetSyncJobOutput, error)
}

type syncJobReader interface {
	GetByID(ctx context.Context, jobID string) (domain.SyncJob, error)
}

type getSyncJob struct {
	jobs syncJobReader
}

func NewGetSyncJob(jobs syncJobReader) GetSyncJob {
	return &getSyncJob{jobs: jobs}
}

func (uc *getSyncJob) Execute(ctx context.Context, in GetSyncJobInput) (GetSyncJobOutput, error) {
	if !validUUID(in.JobID) {
		return GetSyncJobOutput{}, ErrInvalidJobID
	}

	job, err := uc.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, domain.ErrSyncJobNotFound) {
			return GetSyncJobOutput{}, ErrSyncJobNotFound
		}
		return GetSyncJobOutput{}, fmt.Errorf("%w: %v", ErrLoadSyncJob, err)
	}

	return GetSyncJobOutput{
		ID:             job.ID,
		StoreID:        job.StoreID,
		Status:         job.Status,
		TotalItems:     job.TotalItems,
		ProcessedItems: job.ProcessedItems,
		FailedItems:    job.FailedItems,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
		ErrorMessage:   job.ErrorMessage,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}, nil
}
