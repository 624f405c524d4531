package catalog

import "errors"

var (
	ErrSyncJobNotFound = errors.New("sync job not found")
	ErrStoreNotFound   = errors.New("store not found")
	ErrStaleProgress   = errors.New("sync job progress already advanced")
	ErrInvalidPrice    = errors.New("invalid variant price")
)
