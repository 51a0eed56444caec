package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/preview-pipeline/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Preview cache ---

func TestSQLite_Preview_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	record := &model.PreviewRecord{
		URL:        "https://example.com",
		Title:      "Acme Rocket Skates",
		Confidence: 0.8,
	}
	require.NoError(t, st.SetPreview(ctx, "key123", record, time.Hour))

	got, err := st.GetPreview(ctx, "key123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Acme Rocket Skates", got.Title)
	assert.Equal(t, 0.8, got.Confidence)
}

func TestSQLite_Preview_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetPreview(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Preview_Expired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	record := &model.PreviewRecord{URL: "https://example.com", Title: "Old"}
	require.NoError(t, st.SetPreview(ctx, "expired-key", record, -time.Hour))

	got, err := st.GetPreview(ctx, "expired-key")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_Preview_UpsertReplaces(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetPreview(ctx, "k", &model.PreviewRecord{Title: "First"}, time.Hour))
	require.NoError(t, st.SetPreview(ctx, "k", &model.PreviewRecord{Title: "Second"}, time.Hour))

	got, err := st.GetPreview(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Title)
}

func TestSQLite_Preview_DeleteExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetPreview(ctx, "live", &model.PreviewRecord{Title: "Live"}, time.Hour))
	require.NoError(t, st.SetPreview(ctx, "dead", &model.PreviewRecord{Title: "Dead"}, -time.Hour))

	n, err := st.DeleteExpiredPreviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.GetPreview(ctx, "live")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLite_Preview_Purge(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetPreview(ctx, "a", &model.PreviewRecord{Title: "A"}, time.Hour))
	require.NoError(t, st.SetPreview(ctx, "b", &model.PreviewRecord{Title: "B"}, time.Hour))

	n, err := st.PurgePreviews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// --- Jobs ---

func TestSQLite_Job_Lifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, model.JobQueued, job.Status)
	assert.NotEmpty(t, job.ID)

	require.NoError(t, st.UpdateJobStatus(ctx, job.ID, model.JobStarted))
	require.NoError(t, st.UpdateJobProgress(ctx, job.ID, 50, "collecting"))
	require.NoError(t, st.FinishJob(ctx, job.ID, "resultkey"))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFinished, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, "resultkey", got.ResultKey)
}

func TestSQLite_Job_Fail(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, "https://example.com")
	require.NoError(t, err)

	require.NoError(t, st.FailJob(ctx, job.ID, "capture sidecar unreachable"))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, got.Status)
	assert.Equal(t, "capture sidecar unreachable", got.Error)
}

func TestSQLite_Job_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetJob(context.Background(), "missing")
	assert.Error(t, err)

	err = st.UpdateJobStatus(context.Background(), "missing", model.JobStarted)
	assert.Error(t, err)
}
