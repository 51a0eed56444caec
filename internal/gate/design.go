package gate

import (
	"regexp"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// designPassThreshold is the minimum score for a blueprint to pass.
const designPassThreshold = 0.5

var hexColorRe = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// designRule is one declarative penalty against a blueprint.
type designRule struct {
	Name    string
	Penalty float64
	Applies func(bp *model.Blueprint) bool
}

var designRules = []designRule{
	{
		// Missing the primary color is the only critical failure: the
		// renderer cannot derive a palette without it.
		Name:    "missing_primary_color",
		Penalty: 0.6,
		Applies: func(bp *model.Blueprint) bool {
			return !hexColorRe.MatchString(bp.PrimaryColor)
		},
	},
	{
		Name:    "missing_secondary_color",
		Penalty: 0.1,
		Applies: func(bp *model.Blueprint) bool {
			return bp.SecondaryColor == ""
		},
	},
	{
		Name:    "missing_typography",
		Penalty: 0.1,
		Applies: func(bp *model.Blueprint) bool {
			return bp.Typography == ""
		},
	},
	{
		Name:    "missing_layout",
		Penalty: 0.1,
		Applies: func(bp *model.Blueprint) bool {
			return bp.Layout == ""
		},
	},
}

// Design gates the visual blueprint of a preview.
type Design struct{}

func (Design) Name() string { return "design" }

// Validate scores the blueprint in ctx. The value argument is ignored;
// a nil blueprint scores zero.
func (Design) Validate(_ string, ctx Context) model.QualityScore {
	if ctx.Blueprint == nil {
		return score(0, 0, designPassThreshold, []string{"no blueprint"})
	}

	raw := 1.0
	var issues []string
	for _, rule := range designRules {
		if rule.Applies(ctx.Blueprint) {
			raw -= rule.Penalty
			issues = append(issues, rule.Name)
		}
	}

	return score(raw, raw, designPassThreshold, issues)
}
