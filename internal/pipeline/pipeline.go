// Package pipeline orchestrates one URL-to-preview run: cache gate,
// tiered collection, fusion, classification and the critique loop.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/cache"
	"github.com/sells-group/preview-pipeline/internal/classify"
	"github.com/sells-group/preview-pipeline/internal/collect"
	"github.com/sells-group/preview-pipeline/internal/config"
	"github.com/sells-group/preview-pipeline/internal/critic"
	"github.com/sells-group/preview-pipeline/internal/degrade"
	"github.com/sells-group/preview-pipeline/internal/fusion"
	"github.com/sells-group/preview-pipeline/internal/model"
	"github.com/sells-group/preview-pipeline/internal/monitoring"
	"github.com/sells-group/preview-pipeline/pkg/capture"
)

// Uploader stores a screenshot and returns its public URL. Satisfied by
// *blobstore.BlobStore; nil disables uploads.
type Uploader interface {
	SaveScreenshot(ctx context.Context, cacheKey string, data []byte, contentType string) (string, error)
}

// Pipeline wires the collectors, fusion engine, classifier and critic
// behind the degradation controller.
type Pipeline struct {
	cfg        *config.Config
	cache      *cache.Cache
	capture    capture.Client
	markup     *collect.Markup
	structure  *collect.Structure
	vision     *collect.Vision
	fuser      *fusion.Engine
	classifier *classify.Classifier
	iterator   *critic.Iterator
	uploads    Uploader
	controller *degrade.Controller
}

// Deps carries the injectable collaborators.
type Deps struct {
	Cache   *cache.Cache
	Capture capture.Client
	Vision  *collect.Vision
	Uploads Uploader // optional
}

// New assembles a Pipeline from config and dependencies.
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	if deps.Cache == nil {
		return nil, eris.New("pipeline: cache is required")
	}
	if deps.Capture == nil {
		return nil, eris.New("pipeline: capture client is required")
	}
	if deps.Vision == nil {
		return nil, eris.New("pipeline: vision collector is required")
	}

	p := &Pipeline{
		cfg:        cfg,
		cache:      deps.Cache,
		capture:    deps.Capture,
		markup:     collect.NewMarkup(),
		structure:  collect.NewStructure(),
		vision:     deps.Vision,
		fuser:      fusion.New(),
		classifier: classify.New(),
		iterator:   critic.NewIterator(critic.New(), cfg.Critic.QualityThreshold, cfg.Critic.MaxIterations),
		uploads:    deps.Uploads,
	}

	ladder := degrade.Ladder(cfg.Pipeline)
	if path := cfg.Pipeline.TierOverridesPath; path != "" {
		var err error
		ladder, err = degrade.ApplyOverrides(ladder, path)
		if err != nil {
			return nil, err
		}
	}
	p.controller = degrade.New(ladder, map[model.Tier]degrade.HandlerFunc{
		model.TierFull:       p.tierFull,
		model.TierVisionOnly: p.tierVisionOnly,
		model.TierMarkupOnly: p.tierMarkupOnly,
	})

	return p, nil
}

// Generate produces the preview for a URL. A fresh cache entry is a hard
// gate: on hit the cached record returns unchanged and nothing downstream
// runs. On miss the degradation ladder guarantees a record; the only
// errors are cache-store failures.
func (p *Pipeline) Generate(ctx context.Context, url string) (*model.PreviewRecord, error) {
	cached, err := p.cache.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		monitoring.ObserveCache(true)
		return cached, nil
	}
	monitoring.ObserveCache(false)

	start := time.Now()
	record, trail := p.controller.Run(ctx, url)
	for _, hop := range trail {
		outcome := "fail"
		if hop.Success {
			outcome = "success"
		}
		monitoring.TierAttempts.WithLabelValues(hop.Tier.String(), outcome).Inc()
		monitoring.TierDuration.WithLabelValues(hop.Tier.String()).Observe(hop.Latency.Seconds())
	}

	refined, critique, rounds := p.iterator.Refine(record)
	monitoring.RefinementRounds.Observe(float64(rounds))
	refined.GeneratedAt = time.Now().UTC()

	zap.L().Info("pipeline: preview generated",
		zap.String("url", url),
		zap.Stringer("tier", refined.Tier),
		zap.Float64("confidence", refined.Confidence),
		zap.Float64("critique", critique.Overall),
		zap.Int("refinement_rounds", rounds),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := p.cache.Set(ctx, url, refined); err != nil {
		// The preview is still good; a write failure only costs the
		// next caller a recompute.
		zap.L().Warn("pipeline: cache write failed", zap.String("url", url), zap.Error(err))
	}

	return refined, nil
}

// CacheKey exposes the derived cache key for a URL, used as the job
// result pointer.
func (p *Pipeline) CacheKey(url string) string {
	return p.cache.Key(url)
}
