package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS preview_cache (
	key        TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	cached_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id         TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	progress   INTEGER NOT NULL DEFAULT 0,
	message    TEXT,
	error      TEXT,
	result_key TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_preview_cache_expires_at ON preview_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_url ON jobs(url);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetPreview returns the cached record for key, or nil when absent or
// expired.
func (s *SQLiteStore) GetPreview(ctx context.Context, key string) (*model.PreviewRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record FROM preview_cache
		 WHERE key = ? AND expires_at > datetime('now')`,
		key,
	)

	var recordJSON string
	err := row.Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get preview")
	}

	var record model.PreviewRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal preview")
	}
	return &record, nil
}

func (s *SQLiteStore) SetPreview(ctx context.Context, key string, record *model.PreviewRecord, ttl time.Duration) error {
	now := time.Now().UTC()

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal preview")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO preview_cache (key, record, cached_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET record = excluded.record,
		 cached_at = excluded.cached_at, expires_at = excluded.expires_at`,
		key, string(recordJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set preview")
}

func (s *SQLiteStore) DeleteExpiredPreviews(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM preview_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired previews")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) PurgePreviews(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM preview_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: purge previews")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CreateJob(ctx context.Context, url string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, url, status, progress, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)`,
		id, url, string(model.JobQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}

	return &model.Job{
		ID:        id,
		URL:       url,
		Status:    model.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, jobID string, progress int, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET progress = ?, message = ?, updated_at = ? WHERE id = ?`,
		progress, message, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job progress %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) FinishJob(ctx context.Context, jobID string, resultKey string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, progress = 100, result_key = ?, updated_at = ? WHERE id = ?`,
		string(model.JobFinished), resultKey, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish job %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) FailJob(ctx context.Context, jobID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.JobFailed), errMsg, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail job %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, status, progress, message, error, result_key, created_at, updated_at
		 FROM jobs WHERE id = ?`,
		jobID,
	)

	var j model.Job
	var message, errMsg, resultKey sql.NullString
	err := row.Scan(&j.ID, &j.URL, &j.Status, &j.Progress, &message, &errMsg, &resultKey, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("job not found: %s", jobID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}
	j.Message = message.String
	j.Error = errMsg.String
	j.ResultKey = resultKey.String
	return &j, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
