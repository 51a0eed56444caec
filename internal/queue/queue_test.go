package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// fakeStore implements store.Store in memory for queue tests.
type fakeStore struct {
	mu       sync.Mutex
	nextID   int
	jobs     map[string]*model.Job
	previews map[string]*model.PreviewRecord
	failed   map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:     map[string]*model.Job{},
		previews: map[string]*model.PreviewRecord{},
		failed:   map[string]string{},
	}
}

func (f *fakeStore) CreateJob(_ context.Context, url string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	job := &model.Job{
		ID:        fmt.Sprintf("job-%d", f.nextID),
		URL:       url,
		Status:    model.JobQueued,
		CreatedAt: time.Now(),
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeStore) UpdateJobStatus(_ context.Context, jobID string, status model.JobStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID].Status = status
	return nil
}

func (f *fakeStore) UpdateJobProgress(_ context.Context, jobID string, progress int, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID].Progress = progress
	f.jobs[jobID].Message = message
	return nil
}

func (f *fakeStore) FinishJob(_ context.Context, jobID, resultKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID].Status = model.JobFinished
	f.jobs[jobID].ResultKey = resultKey
	return nil
}

func (f *fakeStore) FailJob(_ context.Context, jobID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[jobID] = errMsg
	if job, ok := f.jobs[jobID]; ok {
		job.Status = model.JobFailed
		job.Error = errMsg
	}
	return nil
}

func (f *fakeStore) GetJob(_ context.Context, jobID string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	out := *job
	return &out, nil
}

func (f *fakeStore) GetPreview(_ context.Context, key string) (*model.PreviewRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previews[key], nil
}

func (f *fakeStore) SetPreview(_ context.Context, key string, record *model.PreviewRecord, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previews[key] = record
	return nil
}

func (f *fakeStore) DeleteExpiredPreviews(context.Context) (int, error) { return 0, nil }
func (f *fakeStore) PurgePreviews(context.Context) (int, error)         { return 0, nil }
func (f *fakeStore) Migrate(context.Context) error                      { return nil }
func (f *fakeStore) Close() error                                       { return nil }

func TestEnqueue_CreatesPendingJob(t *testing.T) {
	st := newFakeStore()
	q := New(st, nil, 2)

	job, err := q.Enqueue(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, model.JobQueued, job.Status)
	assert.Equal(t, "https://example.com", job.URL)

	// The task must be sitting in the channel awaiting a worker.
	select {
	case got := <-q.tasks:
		assert.Equal(t, job.ID, got.jobID)
	default:
		t.Fatal("expected a queued task")
	}
}

func TestEnqueue_CanceledContextFailsJob(t *testing.T) {
	st := newFakeStore()
	q := New(st, nil, 1)

	// Fill the buffer so the send path cannot win the select.
	for i := 0; i < cap(q.tasks); i++ {
		_, err := q.Enqueue(context.Background(), "https://example.com/fill")
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Enqueue(ctx, "https://example.com/late")
	require.Error(t, err)

	st.mu.Lock()
	defer st.mu.Unlock()
	assert.Len(t, st.failed, 1, "the undeliverable job should be failed in the store")
}

func TestStatus_FinishedWithVisibleResult(t *testing.T) {
	st := newFakeStore()
	job, _ := st.CreateJob(context.Background(), "https://example.com")
	require.NoError(t, st.FinishJob(context.Background(), job.ID, "key-1"))
	require.NoError(t, st.SetPreview(context.Background(), "key-1", &model.PreviewRecord{Title: "Done"}, time.Hour))

	q := New(st, nil, 1)
	got, err := q.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFinished, got.Status)
}

func TestStatus_FinishedBeforeResultVisible(t *testing.T) {
	st := newFakeStore()
	job, _ := st.CreateJob(context.Background(), "https://example.com")
	require.NoError(t, st.FinishJob(context.Background(), job.ID, "key-1"))
	// No preview row yet: the finish write raced the read.

	q := New(st, nil, 1)
	got, err := q.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobPending, got.Status)
	assert.Contains(t, got.Message, "poll again")

	// The stored job itself stays finished.
	stored, err := st.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFinished, stored.Status)
}

func TestStatus_UnknownJob(t *testing.T) {
	q := New(newFakeStore(), nil, 1)
	_, err := q.Status(context.Background(), "nope")
	assert.Error(t, err)
}
