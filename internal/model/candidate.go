package model

// Source identifies which collector produced an extraction candidate.
type Source string

const (
	SourceMarkup    Source = "markup"
	SourceStructure Source = "structure"
	SourceReasoning Source = "reasoning"
)

// AllSources returns the defined sources in fusion priority order.
// Markup wins ties over structure, structure over reasoning.
func AllSources() []Source {
	return []Source{SourceMarkup, SourceStructure, SourceReasoning}
}

// SourcePriority returns the tie-break rank of a source (lower wins).
// Unknown sources rank last.
func SourcePriority(s Source) int {
	switch s {
	case SourceMarkup:
		return 0
	case SourceStructure:
		return 1
	case SourceReasoning:
		return 2
	}
	return 3
}

// Field names used by candidates, gates and fusion.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldTags        = "tags"
	FieldImage       = "image"
	FieldColors      = "colors"
)

// ExtractionCandidate is one source's proposed value for one output field.
// Created once per collector invocation and never mutated; consumed only
// by the fusion engine.
type ExtractionCandidate struct {
	Source      Source   `json:"source"`
	Field       string   `json:"field"`
	Value       string   `json:"value"`
	Confidence  float64  `json:"confidence"`
	PassedGates bool     `json:"passed_gates"`
	Issues      []string `json:"issues,omitempty"`
}

// QualityLevel buckets a quality score into a coarse label.
type QualityLevel string

const (
	LevelExcellent QualityLevel = "excellent"
	LevelGood      QualityLevel = "good"
	LevelFair      QualityLevel = "fair"
	LevelPoor      QualityLevel = "poor"
)

// LevelFor maps a 0.0-1.0 score to a QualityLevel.
func LevelFor(score float64) QualityLevel {
	switch {
	case score >= 0.85:
		return LevelExcellent
	case score >= 0.70:
		return LevelGood
	case score >= 0.55:
		return LevelFair
	default:
		return LevelPoor
	}
}

// QualityScore is the outcome of running one candidate value through a gate.
type QualityScore struct {
	Score      float64      `json:"score"`
	Confidence float64      `json:"confidence"`
	Level      QualityLevel `json:"level"`
	Issues     []string     `json:"issues,omitempty"`
	Passed     bool         `json:"passed"`
}

// StructureIndicators holds the heuristic content-structure signals
// detected on a page without any AI involvement.
type StructureIndicators struct {
	HasPrice        bool `json:"has_price"`
	HasAddToCart    bool `json:"has_add_to_cart"`
	HasBio          bool `json:"has_bio"`
	HasTestimonials bool `json:"has_testimonials"`
	HasArticleBody  bool `json:"has_article_body"`
	HasSignupForm   bool `json:"has_signup_form"`
	HeadingCount    int  `json:"heading_count"`
	FormCount       int  `json:"form_count"`
	ImageCount      int  `json:"image_count"`
}
