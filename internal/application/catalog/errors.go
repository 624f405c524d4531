package catalog

import "errors"

var (
	ErrInvalidStoreID        = errors.New("invalid store id")
	ErrInvalidJobID          = errors.New("invalid sync job id")
	ErrStoreNotFound         = errors.New("store not found")
	ErrSyncJobNotFound       = errors.New("sync job not found")
	ErrLoadStore             = errors.New("failed to load store")
	ErrLoadSyncJob           = errors.New("failed to load sync job")
	ErrCountProducts         = errors.New("failed to count upstream products")
	ErrCreateSyncJob         = errors.New("failed to create sync job")
	ErrUpdateSyncJob         = errors.New("failed to update sync job")
	ErrUpstreamFetch         = errors.New("upstream catalog fetch failed")
	ErrStoreCatalogItems     = errors.New("failed to store catalog items")
	ErrInvalidWebhookPayload = errors.New("invalid webhook payload")
	ErrApplyWebhook          = errors.New("failed to apply webhook event")
	ErrListUnmatched         = errors.New("failed to list unmatched catalog items")
	ErrFetchCards            = errors.New("failed to fetch canonical cards")
	ErrInvalidQuery          = errors.New("invalid search query")
	ErrSearchInventory       = errors.New("failed to search inventory")
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrRunSweep         = errors.New("failed to run match sweep")
	ErrResumeJobs       = errors.New("failed to resume stalled sync jobs")
)
