package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/cache"
	"github.com/sells-group/preview-pipeline/internal/collect"
	"github.com/sells-group/preview-pipeline/internal/pipeline"
	"github.com/sells-group/preview-pipeline/internal/store"
	"github.com/sells-group/preview-pipeline/pkg/blobstore"
	"github.com/sells-group/preview-pipeline/pkg/capture"
	"github.com/sells-group/preview-pipeline/pkg/reasoning"
)

// pipelineEnv holds the initialized store, clients and pipeline shared by
// the generate/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Cache    *cache.Cache
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline sets up the store, the capture and reasoning clients, the
// optional blob store, and builds the Pipeline. Callers should defer
// env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	previewCache := cache.New(st, cfg.Cache.Version, time.Duration(cfg.Cache.TTLHours)*time.Hour)

	captureClient := capture.NewClient(
		capture.WithBaseURL(cfg.Capture.BaseURL),
		capture.WithTimeout(time.Duration(cfg.Capture.TimeoutSecs)*time.Second),
	)

	reasoningClient := reasoning.NewClient(cfg.Reasoning.Key, reasoning.Options{
		Model:      cfg.Reasoning.Model,
		MaxTokens:  int64(cfg.Reasoning.MaxTokens),
		RatePerSec: cfg.Reasoning.RatePerSec,
	})

	var uploads pipeline.Uploader
	if cfg.Blobstore.Bucket != "" {
		bs, err := blobstore.New(ctx, blobstore.Config{
			Endpoint:        cfg.Blobstore.Endpoint,
			Region:          cfg.Blobstore.Region,
			Bucket:          cfg.Blobstore.Bucket,
			AccessKeyID:     cfg.Blobstore.AccessKeyID,
			SecretAccessKey: cfg.Blobstore.SecretAccessKey,
			PublicBaseURL:   cfg.Blobstore.PublicBaseURL,
			UsePathStyle:    cfg.Blobstore.UsePathStyle,
		})
		if err != nil {
			zap.L().Warn("blobstore init failed, screenshots will not be persisted", zap.Error(err))
		} else {
			uploads = bs
		}
	}

	p, err := pipeline.New(cfg, pipeline.Deps{
		Cache:   previewCache,
		Capture: captureClient,
		Vision:  collect.NewVision(reasoningClient),
		Uploads: uploads,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{Store: st, Cache: previewCache, Pipeline: p}, nil
}
