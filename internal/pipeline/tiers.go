package pipeline

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/preview-pipeline/internal/classify"
	"github.com/sells-group/preview-pipeline/internal/collect"
	"github.com/sells-group/preview-pipeline/internal/gate"
	"github.com/sells-group/preview-pipeline/internal/model"
	"github.com/sells-group/preview-pipeline/internal/monitoring"
	"github.com/sells-group/preview-pipeline/internal/resilience"
	"github.com/sells-group/preview-pipeline/pkg/capture"
)

// fallbackPrimaryColor is used when no source proposed a usable color.
const fallbackPrimaryColor = "#2d3748"

// tierFull is the richest path: render the page, fan out all collectors,
// fuse and classify. The reasoning call is skipped when markup alone
// already clears the tier-1 bar.
func (p *Pipeline) tierFull(ctx context.Context, url string) (*model.PreviewRecord, error) {
	capRes, err := p.capture.Capture(ctx, capture.Request{URL: url})
	if err != nil {
		return nil, &resilience.CaptureError{URL: url, Err: err}
	}
	page := pageFromCapture(url, capRes)

	var (
		markupRes *collect.MarkupResult
		ind       *model.StructureIndicators
	)
	var g errgroup.Group
	g.SetLimit(p.cfg.Pipeline.CollectorPoolSize)
	g.Go(func() error {
		var merr error
		markupRes, merr = p.markup.Extract(page)
		if merr != nil {
			zap.L().Debug("pipeline: markup extraction failed", zap.String("url", url), zap.Error(merr))
		}
		return nil
	})
	g.Go(func() error {
		ind = p.structure.Analyze(page)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var visionRes *collect.VisionResult
	var warnings []string
	if markupSufficient(markupRes, p.cfg.Pipeline.Tier1MinConf) {
		zap.L().Debug("pipeline: markup complete, skipping reasoning call", zap.String("url", url))
	} else {
		visionRes, err = p.vision.Extract(ctx, page)
		if err != nil {
			// Degraded multi-source run; the tier's confidence floor
			// decides whether the remaining evidence suffices.
			warnings = append(warnings, "vision extraction failed: "+err.Error())
			zap.L().Warn("pipeline: vision extraction failed", zap.String("url", url), zap.Error(err))
		}
	}

	record := p.buildRecord(ctx, page, markupRes, ind, visionRes, warnings)
	return record, nil
}

// tierVisionOnly renders the page and builds the preview from the
// reasoning service alone.
func (p *Pipeline) tierVisionOnly(ctx context.Context, url string) (*model.PreviewRecord, error) {
	capRes, err := p.capture.Capture(ctx, capture.Request{URL: url})
	if err != nil {
		return nil, &resilience.CaptureError{URL: url, Err: err}
	}
	page := pageFromCapture(url, capRes)
	page.HTML = "" // single-source by construction

	visionRes, err := p.vision.Extract(ctx, page)
	if err != nil {
		return nil, err
	}

	record := p.buildRecord(ctx, page, nil, nil, visionRes, nil)
	return record, nil
}

// tierMarkupOnly fetches the document over plain HTTP, bypassing both the
// render sidecar and the reasoning service.
func (p *Pipeline) tierMarkupOnly(ctx context.Context, url string) (*model.PreviewRecord, error) {
	html, err := fetchHTML(ctx, url)
	if err != nil {
		return nil, err
	}
	page := collect.Page{URL: url, HTML: html}

	markupRes, err := p.markup.Extract(page)
	if err != nil {
		return nil, err
	}
	ind := p.structure.Analyze(page)

	record := p.buildRecord(ctx, page, markupRes, ind, nil, nil)
	return record, nil
}

// buildRecord fuses whatever evidence the tier produced into a record.
func (p *Pipeline) buildRecord(
	ctx context.Context,
	page collect.Page,
	markupRes *collect.MarkupResult,
	ind *model.StructureIndicators,
	visionRes *collect.VisionResult,
	warnings []string,
) *model.PreviewRecord {
	var candidates []model.ExtractionCandidate
	if markupRes != nil {
		candidates = append(candidates, markupRes.Candidates...)
	}
	if visionRes != nil {
		candidates = append(candidates, visionRes.Candidates...)
		warnings = append(warnings, visionRes.Warnings...)
	}

	fused := p.fuser.Fuse(page.URL, candidates)
	warnings = append(warnings, fused.Warnings...)
	for field, qs := range fused.Scores {
		monitoring.ObserveGate(field, qs.Passed)
	}

	in := classify.Input{URL: page.URL, Indicators: ind}
	if markupRes != nil {
		in.OGType = markupRes.OGType
		in.JSONLDTypes = markupRes.JSONLDTypes
	}
	if visionRes != nil {
		in.VisionCategory = visionRes.Category
		in.VisionConfidence = visionRes.Confidence
		in.VisionNotIndividual = visionRes.IsIndividual != nil && !*visionRes.IsIndividual
	}
	cls := p.classifier.Classify(in)

	bp := model.Blueprint{
		PrimaryColor: fused.Values[model.FieldColors],
		TemplateID:   cls.Strategy.TemplateID,
	}
	if visionRes != nil && bp.SecondaryColor == "" {
		bp.SecondaryColor = visionRes.SecondaryColor
	}
	if bp.PrimaryColor == "" {
		bp.PrimaryColor = fallbackPrimaryColor
	}

	record := &model.PreviewRecord{
		URL:           page.URL,
		Title:         fused.Values[model.FieldTitle],
		Description:   fused.Values[model.FieldDescription],
		Tags:          splitTags(fused.Values[model.FieldTags]),
		ImageURL:      fused.Values[model.FieldImage],
		Blueprint:     bp,
		Category:      cls.Primary,
		Strategy:      cls.Strategy,
		QualityScores: fused.Scores,
		Warnings:      warnings,
		FieldSources:  fused.Sources,
		Confidence:    fused.Confidence,
	}

	// Completeness is scored on the assembled record, not per field.
	record.QualityScores["record"] = gate.Completeness{}.Validate("", gate.Context{Record: record})

	p.uploadScreenshot(ctx, record, page)
	return record
}

// uploadScreenshot persists the rendered screenshot and records its URL.
// Best effort: a failed upload costs the preview its image, not its life.
func (p *Pipeline) uploadScreenshot(ctx context.Context, record *model.PreviewRecord, page collect.Page) {
	if p.uploads == nil || len(page.Screenshot) == 0 {
		return
	}
	url, err := p.uploads.SaveScreenshot(ctx, p.cache.Key(page.URL), page.Screenshot, "image/png")
	if err != nil {
		zap.L().Warn("pipeline: screenshot upload failed", zap.String("url", page.URL), zap.Error(err))
		return
	}
	record.ScreenshotURL = url
	if record.ImageURL == "" {
		record.ImageURL = url
	}
}

// markupSufficient reports whether markup alone already carries a
// gate-passing title and description plus an image, at or above the
// tier's confidence floor.
func markupSufficient(res *collect.MarkupResult, minConf float64) bool {
	if res == nil || res.Title == "" || res.Description == "" || res.ImageURL == "" {
		return false
	}
	var confSum float64
	var confN int
	for _, c := range res.Candidates {
		if c.Field != model.FieldTitle && c.Field != model.FieldDescription {
			continue
		}
		qs := gate.Content{}.Validate(c.Value, gate.Context{Field: c.Field})
		if !qs.Passed {
			return false
		}
		confSum += c.Confidence
		confN++
	}
	return confN >= 2 && confSum/float64(confN) >= minConf
}

func pageFromCapture(url string, capRes *capture.Result) collect.Page {
	page := collect.Page{URL: url, HTML: capRes.HTML}
	if capRes.Screenshot != "" {
		if data, err := base64.StdEncoding.DecodeString(capRes.Screenshot); err == nil {
			page.Screenshot = data
		} else {
			zap.L().Warn("pipeline: undecodable screenshot", zap.String("url", url), zap.Error(err))
		}
	}
	return page
}

func splitTags(joined string) []string {
	if joined == "" {
		return nil
	}
	parts := strings.Split(joined, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

var htmlClient = &http.Client{
	Timeout: 12 * time.Second,
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// fetchHTML retrieves the raw document directly, with retries on
// transient failures.
func fetchHTML(ctx context.Context, url string) (string, error) {
	return resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", eris.Wrap(err, "pipeline: create fetch request")
		}
		req.Header.Set("User-Agent", "preview-pipeline/1.0")
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		resp, err := htmlClient.Do(req)
		if err != nil {
			return "", resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close()

		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(eris.Errorf("fetch %s: HTTP %d", url, resp.StatusCode), resp.StatusCode)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return "", &resilience.RateLimitError{Err: eris.Errorf("fetch %s", url)}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", eris.Errorf("pipeline: fetch %s: HTTP %d", url, resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return "", resilience.NewTransientError(err, 0)
		}
		return string(body), nil
	})
}
