// Package fusion merges per-field extraction candidates from all sources
// into a single set of winning values, arbitrated by quality gates.
package fusion

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/fallback"
	"github.com/sells-group/preview-pipeline/internal/gate"
	"github.com/sells-group/preview-pipeline/internal/model"
)

// fusedFields is the fixed field order the engine resolves.
var fusedFields = []string{
	model.FieldTitle,
	model.FieldDescription,
	model.FieldTags,
	model.FieldImage,
	model.FieldColors,
}

// Result is the outcome of fusing all candidates for one page.
type Result struct {
	Values     map[string]string
	Sources    map[string]model.Source
	Scores     map[string]model.QualityScore
	Warnings   []string
	Confidence float64
}

// Engine selects, per field, the best candidate among all sources.
// Stateless; safe for concurrent use.
type Engine struct{}

// New creates a fusion Engine.
func New() *Engine {
	return &Engine{}
}

// Fuse resolves each field deterministically: among gate-passing
// candidates the highest confidence wins; ties break by source priority
// (markup > structure > reasoning). If no candidate passes, the best
// failing candidate is used and a quality warning recorded. If no
// candidate exists at all, title and description fall back to values
// synthesized from the URL.
func (e *Engine) Fuse(rawURL string, candidates []model.ExtractionCandidate) Result {
	byField := make(map[string][]model.ExtractionCandidate)
	for _, c := range candidates {
		if c.Value == "" {
			continue
		}
		byField[c.Field] = append(byField[c.Field], c)
	}

	res := Result{
		Values:  make(map[string]string),
		Sources: make(map[string]model.Source),
		Scores:  make(map[string]model.QualityScore),
	}

	var confSum float64
	var confN int

	for _, field := range fusedFields {
		g := gate.ForField(field)

		var passing, failing []scored
		for _, c := range byField[field] {
			qs := g.Validate(c.Value, gateContext(field, c))
			sc := scored{cand: c, score: qs}
			if qs.Passed {
				passing = append(passing, sc)
			} else {
				failing = append(failing, sc)
			}
		}

		switch {
		case len(passing) > 0:
			win := best(passing)
			res.Values[field] = win.cand.Value
			res.Sources[field] = win.cand.Source
			res.Scores[field] = win.score
			confSum += win.cand.Confidence
			confN++

		case len(failing) > 0:
			win := best(failing)
			res.Values[field] = win.cand.Value
			res.Sources[field] = win.cand.Source
			res.Scores[field] = win.score
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: no candidate passed gates, using best available from %s", field, win.cand.Source))
			confSum += win.cand.Confidence
			confN++

		default:
			if lr, ok := lastResort(field, rawURL); ok {
				res.Values[field] = lr
				res.Sources[field] = model.SourceMarkup
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("%s: no candidates, synthesized from url", field))
				confSum += lastResortConfidence
				confN++
			}
		}
	}

	if confN > 0 {
		res.Confidence = confSum / float64(confN)
	}

	zap.L().Debug("fusion: resolved fields",
		zap.String("url", rawURL),
		zap.Int("fields", len(res.Values)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Float64("confidence", res.Confidence),
	)

	return res
}

// lastResortConfidence is attributed to URL-synthesized values.
const lastResortConfidence = 0.3

// lastResort produces a deterministic closed-form value for mandatory
// fields. Optional fields (tags, image, colors) have no last resort.
func lastResort(field, rawURL string) (string, bool) {
	switch field {
	case model.FieldTitle:
		return fallback.TitleFromURL(rawURL), true
	case model.FieldDescription:
		return fallback.DescriptionFromURL(rawURL), true
	}
	return "", false
}

// gateContext builds the gate input for one candidate. The design gate
// reads the blueprint, so color candidates carry their value there.
func gateContext(field string, c model.ExtractionCandidate) gate.Context {
	ctx := gate.Context{Field: field}
	if field == model.FieldColors {
		ctx.Blueprint = &model.Blueprint{PrimaryColor: c.Value}
	}
	return ctx
}

type scored struct {
	cand  model.ExtractionCandidate
	score model.QualityScore
}

// best picks max confidence, breaking ties by source priority. The input
// is never empty.
func best(cands []scored) scored {
	win := cands[0]
	for _, c := range cands[1:] {
		if c.cand.Confidence > win.cand.Confidence {
			win = c
			continue
		}
		if c.cand.Confidence == win.cand.Confidence &&
			model.SourcePriority(c.cand.Source) < model.SourcePriority(win.cand.Source) {
			win = c
		}
	}
	return win
}
