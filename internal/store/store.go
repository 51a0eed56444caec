// Package store persists cached previews and async jobs.
package store

import (
	"context"
	"time"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// Store defines the persistence interface for the preview pipeline.
type Store interface {
	// Preview cache
	GetPreview(ctx context.Context, key string) (*model.PreviewRecord, error)
	SetPreview(ctx context.Context, key string, record *model.PreviewRecord, ttl time.Duration) error
	DeleteExpiredPreviews(ctx context.Context) (int, error)
	PurgePreviews(ctx context.Context) (int, error)

	// Jobs
	CreateJob(ctx context.Context, url string) (*model.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error
	UpdateJobProgress(ctx context.Context, jobID string, progress int, message string) error
	FinishJob(ctx context.Context, jobID string, resultKey string) error
	FailJob(ctx context.Context, jobID string, errMsg string) error
	GetJob(ctx context.Context, jobID string) (*model.Job, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
