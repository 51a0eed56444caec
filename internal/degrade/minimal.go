package degrade

import (
	"time"

	"github.com/sells-group/preview-pipeline/internal/classify"
	"github.com/sells-group/preview-pipeline/internal/fallback"
	"github.com/sells-group/preview-pipeline/internal/model"
)

// minimalConfidence is the fixed confidence of a URL-only record: low,
// but non-zero, because the domain name is genuine signal.
const minimalConfidence = 0.3

// MinimalRecord constructs a preview from the URL string alone. This is
// the ladder's reliability guarantee: no network, no parsing, no failure
// modes.
func MinimalRecord(url string) *model.PreviewRecord {
	return &model.PreviewRecord{
		URL:         url,
		Title:       fallback.TitleFromURL(url),
		Description: fallback.DescriptionFromURL(url),
		Blueprint: model.Blueprint{
			PrimaryColor: "#2d3748",
			TemplateID:   "generic-card",
		},
		Category: model.CategoryUnknown,
		Strategy: classify.StrategyFor(model.CategoryUnknown),
		Warnings: []string{"minimal preview synthesized from url only"},
		FieldSources: map[string]model.Source{
			model.FieldTitle:       model.SourceMarkup,
			model.FieldDescription: model.SourceMarkup,
		},
		Confidence:  minimalConfidence,
		Tier:        model.TierMinimal,
		GeneratedAt: time.Now().UTC(),
	}
}
