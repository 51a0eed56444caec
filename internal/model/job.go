package model

import "time"

// JobStatus represents the lifecycle state of an async preview job.
type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobStarted  JobStatus = "started"
	JobFinished JobStatus = "finished"
	JobFailed   JobStatus = "failed"
	// JobPending is reported (not stored) when a job row says finished
	// but the preview cache row is not yet visible. Callers should poll.
	JobPending JobStatus = "pending"
)

// Job is one async preview-generation request.
type Job struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Status    JobStatus `json:"status"`
	Progress  int       `json:"progress"` // 0-100
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
	ResultKey string    `json:"result_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
