package model

// PageCategory represents a classified page category.
type PageCategory string

const (
	CategoryProduct   PageCategory = "product"
	CategoryProfile   PageCategory = "profile"
	CategoryArticle   PageCategory = "article"
	CategoryService   PageCategory = "service"
	CategoryLanding   PageCategory = "landing"
	CategoryPortfolio PageCategory = "portfolio"
	CategoryEvent     PageCategory = "event"
	CategoryCourse    PageCategory = "course"
	CategoryUnknown   PageCategory = "unknown"
)

// AllCategories returns all defined page categories.
func AllCategories() []PageCategory {
	return []PageCategory{
		CategoryProduct,
		CategoryProfile,
		CategoryArticle,
		CategoryService,
		CategoryLanding,
		CategoryPortfolio,
		CategoryEvent,
		CategoryCourse,
		CategoryUnknown,
	}
}

// ClassificationSignal is one weighted piece of evidence for (or against)
// a category. Negative signals disprove a currently-leading category.
// Signals are ephemeral: consumed during one classification call.
type ClassificationSignal struct {
	Source     Source       `json:"source"`
	Category   PageCategory `json:"category"`
	Confidence float64      `json:"confidence"`
	Weight     float64      `json:"weight"`
	Reasoning  string       `json:"reasoning,omitempty"`
	Negative   bool         `json:"negative,omitempty"`
}

// RankedCategory is a category with its adjusted aggregate score.
type RankedCategory struct {
	Category PageCategory `json:"category"`
	Score    float64      `json:"score"`
}

// PreviewStrategy is the composition plan derived from a classification:
// which template to render and in what order elements should appear.
type PreviewStrategy struct {
	TemplateID  string            `json:"template_id"`
	Elements    []string          `json:"elements"`
	LayoutHints map[string]string `json:"layout_hints,omitempty"`
}

// PageClassification is the classifier's final decision for one request.
// Exactly one primary category is chosen even under conflicting evidence.
type PageClassification struct {
	Primary      PageCategory           `json:"primary"`
	Confidence   float64                `json:"confidence"`
	Alternatives []RankedCategory       `json:"alternatives,omitempty"`
	Signals      []ClassificationSignal `json:"signals,omitempty"`
	Strategy     PreviewStrategy        `json:"strategy"`
}
