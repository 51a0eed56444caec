// Package critic scores a produced preview across five weighted
// dimensions and drives the bounded improvement loop.
package critic

import (
	"regexp"
	"strings"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// Dimension weights. Sum to 1.0; hook dominates because the title is what
// earns the click.
var dimensionWeights = map[string]float64{
	model.DimHook:       0.30,
	model.DimClarity:    0.20,
	model.DimMotivation: 0.20,
	model.DimTrust:      0.15,
	model.DimDesign:     0.15,
}

// scoreRule is one declarative adjustment: if Applies, Delta is added to
// the dimension's running score.
type scoreRule struct {
	Name    string
	Delta   float64
	Applies func(r *model.PreviewRecord) bool
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+`)
var digitRe = regexp.MustCompile(`\d`)

// motivationWords are action/benefit words that give a reader a reason to
// click through.
var motivationWords = []string{
	"get", "learn", "discover", "build", "save", "free", "new", "how",
	"best", "guide", "start", "try", "join", "grow", "boost",
}

// vagueProofRe matches social-proof claims with no number behind them.
var vagueProofRe = regexp.MustCompile(`(?i)(thousands|millions|countless|many) of (happy |satisfied )?(customers|users|clients|readers)`)

var hookRules = []scoreRule{
	{"title_present", 0.5, func(r *model.PreviewRecord) bool { return r.Title != "" }},
	{"title_good_length", 0.25, func(r *model.PreviewRecord) bool {
		return len(r.Title) >= 15 && len(r.Title) <= 80
	}},
	{"title_specific", 0.15, func(r *model.PreviewRecord) bool {
		return len(strings.Fields(r.Title)) >= 3
	}},
	{"title_overlong", -0.2, func(r *model.PreviewRecord) bool { return len(r.Title) > 120 }},
	{"title_from_url_only", -0.15, func(r *model.PreviewRecord) bool {
		return containsWarning(r, "synthesized from url")
	}},
	{"title_carries_number", 0.1, func(r *model.PreviewRecord) bool {
		return digitRe.MatchString(r.Title)
	}},
}

var trustRules = []scoreRule{
	{"has_image", 0.3, func(r *model.PreviewRecord) bool {
		return r.ImageURL != "" || r.ScreenshotURL != ""
	}},
	{"has_tags", 0.2, func(r *model.PreviewRecord) bool { return len(r.Tags) > 0 }},
	{"gate_passing_fields", 0.3, func(r *model.PreviewRecord) bool {
		for _, qs := range r.QualityScores {
			if !qs.Passed {
				return false
			}
		}
		return len(r.QualityScores) > 0
	}},
	{"quantified_claims", 0.2, func(r *model.PreviewRecord) bool {
		return digitRe.MatchString(r.Description)
	}},
	{"vague_social_proof", -0.25, func(r *model.PreviewRecord) bool {
		return vagueProofRe.MatchString(r.Description)
	}},
}

var clarityRules = []scoreRule{
	{"description_present", 0.4, func(r *model.PreviewRecord) bool { return r.Description != "" }},
	{"description_concise", 0.3, func(r *model.PreviewRecord) bool {
		if r.Description == "" {
			return false
		}
		return len(sentenceSplitRe.Split(r.Description, -1)) <= 3 && len(r.Description) <= 300
	}},
	{"description_not_redundant", 0.3, func(r *model.PreviewRecord) bool {
		return r.Description != "" && !restatesTitle(r.Title, r.Description)
	}},
}

var designRules = []scoreRule{
	{"primary_color", 0.4, func(r *model.PreviewRecord) bool {
		return strings.HasPrefix(r.Blueprint.PrimaryColor, "#")
	}},
	{"secondary_color", 0.2, func(r *model.PreviewRecord) bool {
		return r.Blueprint.SecondaryColor != ""
	}},
	{"template_matches_category", 0.4, func(r *model.PreviewRecord) bool {
		return r.Blueprint.TemplateID != "" && r.Blueprint.TemplateID == r.Strategy.TemplateID
	}},
}

var motivationRules = []scoreRule{
	{"motivating_language", 0.4, func(r *model.PreviewRecord) bool {
		text := strings.ToLower(r.Title + " " + r.Description)
		for _, w := range motivationWords {
			if strings.Contains(text, w) {
				return true
			}
		}
		return false
	}},
	{"category_known", 0.3, func(r *model.PreviewRecord) bool {
		return r.Category != model.CategoryUnknown
	}},
	{"description_substantial", 0.3, func(r *model.PreviewRecord) bool {
		return len(r.Description) >= 40
	}},
}

var dimensionRules = map[string][]scoreRule{
	model.DimHook:       hookRules,
	model.DimTrust:      trustRules,
	model.DimClarity:    clarityRules,
	model.DimDesign:     designRules,
	model.DimMotivation: motivationRules,
}

// Critic evaluates preview records. Stateless; safe for concurrent use.
type Critic struct{}

// New creates a Critic.
func New() *Critic {
	return &Critic{}
}

// Evaluate scores the record on all five dimensions and proposes ranked
// improvement actions. Never fails; a nil record scores zero everywhere.
func (c *Critic) Evaluate(record *model.PreviewRecord) model.CritiqueResult {
	dims := make(map[string]float64, len(dimensionRules))

	if record != nil {
		for dim, rules := range dimensionRules {
			score := 0.0
			for _, rule := range rules {
				if rule.Applies(record) {
					score += rule.Delta
				}
			}
			dims[dim] = clamp01(score)
		}
	} else {
		for dim := range dimensionRules {
			dims[dim] = 0
		}
	}

	overall := 0.0
	weakest, weakestScore := "", 2.0
	for dim, score := range dims {
		overall += score * dimensionWeights[dim]
		if score < weakestScore {
			weakest, weakestScore = dim, score
		}
	}

	actions := proposeActions(record, dims)

	return model.CritiqueResult{
		Dimensions:      dims,
		Overall:         overall,
		Verdict:         model.LevelFor(overall),
		BiggestWeakness: weakest,
		Actions:         actions,
		ShouldIterate:   len(actions) > 0,
		IterationFocus:  weakest,
		Confidence:      confidenceFor(record),
	}
}

// confidenceFor reflects how much evidence backs the critique: a record
// fused from many sources is critiqued with more certainty than a
// URL-only one.
func confidenceFor(record *model.PreviewRecord) float64 {
	if record == nil {
		return 0
	}
	distinct := make(map[model.Source]bool)
	for _, s := range record.FieldSources {
		distinct[s] = true
	}
	switch len(distinct) {
	case 0:
		return 0.3
	case 1:
		return 0.6
	case 2:
		return 0.8
	default:
		return 0.9
	}
}

func restatesTitle(title, description string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	d := strings.ToLower(strings.TrimSpace(description))
	if t == "" || d == "" {
		return false
	}
	return strings.HasPrefix(d, t)
}

func containsWarning(r *model.PreviewRecord, substr string) bool {
	for _, w := range r.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
