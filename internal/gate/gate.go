// Package gate implements the quality gates that decide whether a
// candidate value meets the minimum bar for its field. Gates are pure
// scoring functions: they never return errors, and absence of input
// yields a zero score with Passed=false.
package gate

import (
	"github.com/sells-group/preview-pipeline/internal/model"
)

// Context carries the non-value inputs a gate may need.
type Context struct {
	Field     string
	Blueprint *model.Blueprint
	Record    *model.PreviewRecord
}

// Gate scores one candidate value against a quality rubric.
type Gate interface {
	Name() string
	Validate(value string, ctx Context) model.QualityScore
}

// ForField returns the gate used by fusion for a given field. Text-like
// fields go through the content gate; color fields through the design gate.
func ForField(field string) Gate {
	switch field {
	case model.FieldColors:
		return Design{}
	default:
		return Content{}
	}
}

// score assembles a QualityScore from a raw score, threshold and issues.
func score(raw, confidence, threshold float64, issues []string) model.QualityScore {
	if raw < 0 {
		raw = 0
	}
	return model.QualityScore{
		Score:      raw,
		Confidence: confidence,
		Level:      model.LevelFor(raw),
		Issues:     issues,
		Passed:     raw >= threshold,
	}
}
