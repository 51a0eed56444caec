package model

import "time"

// Tier identifies one level of the degradation ladder.
type Tier int

const (
	TierFull       Tier = 1 // multi-source + richest reasoning
	TierVisionOnly Tier = 2 // single-source reasoning + template
	TierMarkupOnly Tier = 3 // markup extraction only
	TierMinimal    Tier = 4 // URL-only, never fails
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierVisionOnly:
		return "vision_only"
	case TierMarkupOnly:
		return "markup_only"
	case TierMinimal:
		return "minimal"
	}
	return "unknown"
}

// Blueprint holds the visual composition parameters for a preview.
type Blueprint struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	TemplateID     string `json:"template_id"`
	Typography     string `json:"typography,omitempty"`
	Layout         string `json:"layout,omitempty"`
}

// PreviewRecord is the fused, classified, critiqued output of one pipeline
// run. Written to the cache once and read-only afterward.
type PreviewRecord struct {
	URL           string                  `json:"url"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description,omitempty"`
	Tags          []string                `json:"tags,omitempty"`
	ImageURL      string                  `json:"image_url,omitempty"`
	ScreenshotURL string                  `json:"screenshot_url,omitempty"`
	Blueprint     Blueprint               `json:"blueprint"`
	Category      PageCategory            `json:"category"`
	Strategy      PreviewStrategy         `json:"strategy"`
	QualityScores map[string]QualityScore `json:"quality_scores,omitempty"`
	Warnings      []string                `json:"warnings,omitempty"`
	// FieldSources records which source won each field, for observability.
	FieldSources map[string]Source `json:"field_sources,omitempty"`
	Confidence   float64           `json:"confidence"`
	Tier         Tier              `json:"tier"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// DegradationResult records one tier attempt in the ladder. The terminal
// tier always has Success=true by construction.
type DegradationResult struct {
	Tier           Tier           `json:"tier"`
	Success        bool           `json:"success"`
	Record         *PreviewRecord `json:"record,omitempty"`
	Latency        time.Duration  `json:"latency"`
	FallbackReason string         `json:"fallback_reason,omitempty"`
}
