// Package queue runs async preview jobs over a bounded worker pool
// backed by the job store.
package queue

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/preview-pipeline/internal/model"
	"github.com/sells-group/preview-pipeline/internal/monitoring"
	"github.com/sells-group/preview-pipeline/internal/pipeline"
	"github.com/sells-group/preview-pipeline/internal/store"
)

type task struct {
	jobID string
	url   string
}

// Queue accepts preview jobs and processes them on worker goroutines.
type Queue struct {
	store   store.Store
	pipe    *pipeline.Pipeline
	workers int
	tasks   chan task
}

// New creates a Queue with the given worker count.
func New(s store.Store, pipe *pipeline.Pipeline, workers int) *Queue {
	if workers <= 0 {
		workers = 3
	}
	return &Queue{
		store:   s,
		pipe:    pipe,
		workers: workers,
		tasks:   make(chan task, workers*8),
	}
}

// Start launches the worker pool. It blocks until ctx is canceled and all
// in-flight jobs have drained.
func (q *Queue) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case t := <-q.tasks:
					q.process(gctx, t)
				}
			}
		})
	}
	return g.Wait()
}

// Enqueue records a new job and hands it to the pool. The only error is
// a store failure; a full queue blocks until a worker frees up or ctx
// expires.
func (q *Queue) Enqueue(ctx context.Context, url string) (*model.Job, error) {
	job, err := q.store.CreateJob(ctx, url)
	if err != nil {
		return nil, eris.Wrap(err, "queue: create job")
	}

	select {
	case q.tasks <- task{jobID: job.ID, url: url}:
	case <-ctx.Done():
		_ = q.store.FailJob(context.WithoutCancel(ctx), job.ID, "canceled before pickup")
		return nil, eris.Wrap(ctx.Err(), "queue: enqueue")
	}
	return job, nil
}

// Status reads a job. A job marked finished whose preview row is not yet
// readable is reported as pending: the write raced the read, and the
// caller should poll again.
func (q *Queue) Status(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := q.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == model.JobFinished && job.ResultKey != "" {
		record, err := q.store.GetPreview(ctx, job.ResultKey)
		if err != nil {
			return nil, err
		}
		if record == nil {
			out := *job
			out.Status = model.JobPending
			out.Message = "result not yet visible, poll again"
			return &out, nil
		}
	}
	return job, nil
}

func (q *Queue) process(ctx context.Context, t task) {
	monitoring.JobsActive.Inc()
	defer monitoring.JobsActive.Dec()

	log := zap.L().With(zap.String("job_id", t.jobID), zap.String("url", t.url))

	if err := q.store.UpdateJobStatus(ctx, t.jobID, model.JobStarted); err != nil {
		log.Error("queue: mark started failed", zap.Error(err))
		return
	}
	_ = q.store.UpdateJobProgress(ctx, t.jobID, 10, "collecting")

	record, err := q.pipe.Generate(ctx, t.url)
	if err != nil {
		log.Error("queue: job failed", zap.Error(err))
		_ = q.store.FailJob(context.WithoutCancel(ctx), t.jobID, err.Error())
		return
	}

	_ = q.store.UpdateJobProgress(ctx, t.jobID, 90, "finalizing")
	if err := q.store.FinishJob(ctx, t.jobID, q.pipe.CacheKey(t.url)); err != nil {
		log.Error("queue: mark finished failed", zap.Error(err))
		return
	}
	log.Info("queue: job finished",
		zap.Stringer("tier", record.Tier),
		zap.Float64("confidence", record.Confidence),
	)
}
