// Package degrade implements the four-tier degradation ladder: full
// multi-source extraction, single-source vision, markup-only, and a
// URL-only terminal tier that cannot fail.
package degrade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// HandlerFunc produces a preview record for one tier attempt. Handlers
// must respect ctx; the controller additionally abandons attempts whose
// deadline expires.
type HandlerFunc func(ctx context.Context, url string) (*model.PreviewRecord, error)

// Controller walks the ladder until a tier yields a record meeting its
// minimum confidence. The terminal tier is computed in-process from the
// URL alone, so Run always returns a record.
type Controller struct {
	ladder   []TierSpec
	handlers map[model.Tier]HandlerFunc
}

// New creates a Controller. A handler must be registered for every tier
// except TierMinimal, which is built in.
func New(ladder []TierSpec, handlers map[model.Tier]HandlerFunc) *Controller {
	return &Controller{ladder: ladder, handlers: handlers}
}

// Run attempts each tier in order. A tier advances to the next on error,
// timeout, or sub-threshold confidence, after any tier-local retries are
// exhausted. Every hop is recorded in the returned trail.
func (c *Controller) Run(ctx context.Context, url string) (*model.PreviewRecord, []model.DegradationResult) {
	var trail []model.DegradationResult

	for _, spec := range c.ladder {
		if spec.Tier == model.TierMinimal {
			break
		}
		handler, ok := c.handlers[spec.Tier]
		if !ok {
			continue
		}

		attempts := 1 + spec.Retries
		for attempt := 0; attempt < attempts; attempt++ {
			start := time.Now()
			record, err := c.attempt(ctx, spec, handler, url)
			latency := time.Since(start)

			if err == nil && record != nil && record.Confidence >= spec.MinConfidence {
				record.Tier = spec.Tier
				trail = append(trail, model.DegradationResult{
					Tier:    spec.Tier,
					Success: true,
					Record:  record,
					Latency: latency,
				})
				return record, trail
			}

			reason := failureReason(record, err, spec)
			trail = append(trail, model.DegradationResult{
				Tier:           spec.Tier,
				Success:        false,
				Latency:        latency,
				FallbackReason: reason,
			})
			zap.L().Info("degrade: tier attempt failed",
				zap.String("url", url),
				zap.Stringer("tier", spec.Tier),
				zap.Int("attempt", attempt+1),
				zap.Duration("latency", latency),
				zap.String("reason", reason),
			)
		}
	}

	// Terminal tier: a closed-form function of the URL string.
	start := time.Now()
	record := MinimalRecord(url)
	trail = append(trail, model.DegradationResult{
		Tier:    model.TierMinimal,
		Success: true,
		Record:  record,
		Latency: time.Since(start),
	})
	return record, trail
}

// attempt runs the handler under the tier's timeout. Expiry abandons the
// wait, not the work: the handler's goroutine may keep running in the
// background until its own context check fires. Best-effort abandonment,
// not true cancellation.
func (c *Controller) attempt(ctx context.Context, spec TierSpec, handler HandlerFunc, url string) (*model.PreviewRecord, error) {
	tctx, cancel := context.WithTimeout(ctx, spec.Timeout)
	defer cancel()

	type outcome struct {
		record *model.PreviewRecord
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := handler(tctx, url)
		done <- outcome{record: r, err: err}
	}()

	select {
	case <-tctx.Done():
		return nil, tctx.Err()
	case out := <-done:
		return out.record, out.err
	}
}

func failureReason(record *model.PreviewRecord, err error, spec TierSpec) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("timeout after %s", spec.Timeout)
	case err != nil:
		return err.Error()
	case record == nil:
		return "no record produced"
	default:
		return fmt.Sprintf("confidence %.2f below tier minimum %.2f", record.Confidence, spec.MinConfidence)
	}
}
