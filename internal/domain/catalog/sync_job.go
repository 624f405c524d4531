package catalog

import "time"

type SyncStatus string

const (
	SyncStatusPending    SyncStatus = "pending"
	SyncStatusProcessing SyncStatus = "processing"
	SyncStatusCompleted  SyncStatus = "completed"
	SyncStatusFailed     SyncStatus = "failed"
)

func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusCompleted || s == SyncStatusFailed
}

// CanTransition reports whether a job may move from s to next.
// Terminal states have no outgoing transitions.
func (s SyncStatus) CanTransition(next SyncStatus) bool {
	switch s {
	case SyncStatusPending:
		return next == SyncStatusProcessing || next == SyncStatusFailed
	case SyncStatusProcessing:
		return next == SyncStatusProcessing || next == SyncStatusCompleted || next == SyncStatusFailed
	default:
		return false
	}
}

type SyncJob struct {
	ID             string
	StoreID        string
	Status         SyncStatus
	TotalItems     int64
	ProcessedItems int64
	FailedItems    int64
	Cursor         *string
	StartedAt      *time.Time
	CompletedAt    *time.Time
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewSyncJob(storeID string, totalItems int64) SyncJob {
	return SyncJob{
		StoreID:    storeID,
		Status:     SyncStatusPending,
		TotalItems: totalItems,
	}
}

// SyncProgress is the job state persisted at the end of one batch.
// PreviousCursor is the cursor the batch started from; a repository only
// applies the progress while the stored cursor still equals it.
type SyncProgress struct {
	PreviousCursor *string
	ProcessedItems int64
	FailedItems    int64
	Cursor         *string
	Status         SyncStatus
	CompletedAt    *time.Time
}

// Advance computes the progress after a page of pageItems upstream items.
func (j SyncJob) Advance(pageItems, pageFailures int64, nextCursor string, now time.Time) SyncProgress {
	processed := j.ProcessedItems + pageItems
	hasMore := nextCursor != ""

	progress := SyncProgress{
		PreviousCursor: j.Cursor,
		ProcessedItems: processed,
		FailedItems:    j.FailedItems + pageFailures,
		Status:         SyncStatusProcessing,
	}
	if hasMore {
		progress.Cursor = &nextCursor
	}
	if !hasMore || processed >= j.TotalItems {
		completedAt := now
		progress.Status = SyncStatusCompleted
		progress.CompletedAt = &completedAt
	}
	return progress
}

func (p SyncProgress) Done() bool {
	return p.Status == SyncStatusCompleted
}
