// Package fallback provides the single-call extraction chain: a narrower
// cousin of the degradation ladder used when one extraction attempt needs
// a guaranteed non-failing result.
package fallback

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/collect"
	"github.com/sells-group/preview-pipeline/internal/model"
)

// Step identifies which chain step produced the extraction.
type Step string

const (
	StepVision         Step = "vision"
	StepSemanticMarkup Step = "semantic_markup"
	StepBareMarkup     Step = "bare_markup"
	StepURLSynthesis   Step = "url_synthesis"
)

// Extraction is a minimal preview extraction: success means a non-empty
// hook.
type Extraction struct {
	Hook        string
	Description string
	Step        Step
	Source      model.Source
}

// visionExtractor is the subset of the vision collector the chain needs.
type visionExtractor interface {
	Extract(ctx context.Context, page collect.Page) (*collect.VisionResult, error)
}

// markupExtractor is the subset of the markup collector the chain needs.
type markupExtractor interface {
	Extract(page collect.Page) (*collect.MarkupResult, error)
}

// Chain tries extraction steps in order, returning the first success.
// The final step synthesizes from the URL and cannot fail.
type Chain struct {
	vision visionExtractor
	markup markupExtractor
}

// NewChain creates a Chain. Either collector may be nil; its step is then
// skipped.
func NewChain(vision visionExtractor, markup markupExtractor) *Chain {
	return &Chain{vision: vision, markup: markup}
}

// Extract runs the chain. Each step is attempted only when its required
// input is present (screenshot for vision, HTML for markup). Failures are
// logged and control passes to the next step; the result is never an
// error.
func (c *Chain) Extract(ctx context.Context, page collect.Page) Extraction {
	if c.vision != nil && len(page.Screenshot) > 0 {
		if res, err := c.vision.Extract(ctx, page); err == nil && res.Title != "" {
			return Extraction{
				Hook:        res.Title,
				Description: res.Description,
				Step:        StepVision,
				Source:      model.SourceReasoning,
			}
		} else if err != nil {
			zap.L().Debug("fallback: vision step failed, trying next",
				zap.String("url", page.URL),
				zap.Error(err),
			)
		}
	}

	var markupRes *collect.MarkupResult
	if c.markup != nil && page.HTML != "" {
		var err error
		markupRes, err = c.markup.Extract(page)
		if err != nil {
			zap.L().Debug("fallback: markup parse failed",
				zap.String("url", page.URL),
				zap.Error(err),
			)
			markupRes = nil
		}
	}

	// Semantic markup: typed metadata plus headings.
	if markupRes != nil {
		hook := markupRes.Title
		if hook == "" && len(markupRes.Headings) > 0 {
			hook = markupRes.Headings[0]
		}
		if hook != "" && (markupRes.OGType != "" || len(markupRes.JSONLDTypes) > 0 || len(markupRes.Headings) > 0) {
			return Extraction{
				Hook:        hook,
				Description: markupRes.Description,
				Step:        StepSemanticMarkup,
				Source:      model.SourceMarkup,
			}
		}

		// Bare markup: whatever title/description tags carry.
		if strings.TrimSpace(markupRes.Title) != "" {
			return Extraction{
				Hook:        markupRes.Title,
				Description: markupRes.Description,
				Step:        StepBareMarkup,
				Source:      model.SourceMarkup,
			}
		}
	}

	// URL synthesis never fails.
	return Extraction{
		Hook:        TitleFromURL(page.URL),
		Description: DescriptionFromURL(page.URL),
		Step:        StepURLSynthesis,
		Source:      model.SourceMarkup,
	}
}
