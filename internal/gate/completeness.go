package gate

import (
	"github.com/sells-group/preview-pipeline/internal/model"
)

// completenessPassThreshold is the minimum score for a record to pass.
const completenessPassThreshold = 0.6

// completenessRule is one declarative penalty against a full record.
type completenessRule struct {
	Name    string
	Penalty float64
	Applies func(r *model.PreviewRecord) bool
}

var completenessRules = []completenessRule{
	{
		Name:    "missing_title",
		Penalty: 0.4,
		Applies: func(r *model.PreviewRecord) bool { return r.Title == "" },
	},
	{
		Name:    "missing_description",
		Penalty: 0.4,
		Applies: func(r *model.PreviewRecord) bool { return r.Description == "" },
	},
	{
		Name:    "missing_image",
		Penalty: 0.1,
		Applies: func(r *model.PreviewRecord) bool { return r.ImageURL == "" && r.ScreenshotURL == "" },
	},
	{
		Name:    "missing_tags",
		Penalty: 0.1,
		Applies: func(r *model.PreviewRecord) bool { return len(r.Tags) == 0 },
	},
}

// Completeness gates an assembled preview record as a whole.
type Completeness struct{}

func (Completeness) Name() string { return "completeness" }

// Validate scores the record in ctx. The value argument is ignored;
// a nil record scores zero.
func (Completeness) Validate(_ string, ctx Context) model.QualityScore {
	if ctx.Record == nil {
		return score(0, 0, completenessPassThreshold, []string{"no record"})
	}

	raw := 1.0
	var issues []string
	for _, rule := range completenessRules {
		if rule.Applies(ctx.Record) {
			raw -= rule.Penalty
			issues = append(issues, rule.Name)
		}
	}

	return score(raw, raw, completenessPassThreshold, issues)
}
