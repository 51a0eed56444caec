// Package classify assigns a page to a category by aggregating weighted,
// cross-validated signals from the URL shape, markup metadata, structure
// heuristics and the reasoning-service guess.
package classify

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// minPrimaryScore is the floor below which the classifier refuses to
// commit to a category and reports UNKNOWN.
const minPrimaryScore = 0.40

// Source-diversity multipliers: a category supported by one source is
// suspect, by three or more trustworthy. Prevents one noisy signal from
// dominating.
const (
	diversityPenaltySingle = 0.65
	diversityPenaltyDouble = 0.85
	diversityBonusTriple   = 1.05
)

// Input carries the evidence available for one classification call.
// Every field except URL is optional.
type Input struct {
	URL         string
	OGType      string
	JSONLDTypes []string
	Indicators  *model.StructureIndicators

	// Reasoning-service evidence.
	VisionCategory      string
	VisionConfidence    float64
	VisionNotIndividual bool
}

// Classifier derives one primary category and a preview strategy from the
// available signals. Stateless; safe for concurrent use.
type Classifier struct{}

// New creates a Classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify never fails: absence of all signals yields UNKNOWN with
// confidence 0.
func (c *Classifier) Classify(in Input) model.PageClassification {
	signals := c.gatherPositive(in)
	signals = append(signals, c.gatherNegative(in, signals)...)

	ranked := aggregate(signals)

	primary := model.CategoryUnknown
	confidence := 0.0
	var alternatives []model.RankedCategory

	if len(ranked) > 0 {
		top := ranked[0]
		if top.Score >= minPrimaryScore {
			primary = top.Category
			confidence = top.Score
			alternatives = ranked[1:]
		} else {
			// Nothing scored convincingly; keep the ranking visible as
			// alternatives but refuse to commit.
			alternatives = ranked
		}
	}

	zap.L().Debug("classify: decision",
		zap.String("url", in.URL),
		zap.String("primary", string(primary)),
		zap.Float64("confidence", confidence),
		zap.Int("signals", len(signals)),
	)

	return model.PageClassification{
		Primary:      primary,
		Confidence:   confidence,
		Alternatives: alternatives,
		Signals:      signals,
		Strategy:     StrategyFor(primary),
	}
}

func (c *Classifier) gatherPositive(in Input) []model.ClassificationSignal {
	var signals []model.ClassificationSignal
	signals = append(signals, urlSignals(in.URL)...)
	signals = append(signals, metadataSignals(in.OGType, in.JSONLDTypes)...)
	signals = append(signals, structureSignals(in.Indicators)...)
	signals = append(signals, visionSignal(in.VisionCategory, in.VisionConfidence)...)
	return signals
}

// gatherNegative emits signals that disprove the currently-leading
// category when contradictory evidence exists.
func (c *Classifier) gatherNegative(in Input, positive []model.ClassificationSignal) []model.ClassificationSignal {
	profileSupport := false
	for _, s := range positive {
		if s.Category == model.CategoryProfile {
			profileSupport = true
			break
		}
	}

	var signals []model.ClassificationSignal

	// Profile evidence alongside commerce controls means a product page
	// whose URL or metadata happens to look personal (e.g. /in/shop-name).
	if profileSupport && in.Indicators != nil &&
		in.Indicators.HasPrice && in.Indicators.HasAddToCart {
		signals = append(signals,
			model.ClassificationSignal{
				Source:     model.SourceStructure,
				Category:   model.CategoryProfile,
				Confidence: 0.9,
				Weight:     2.0,
				Reasoning:  "commerce controls contradict profile",
				Negative:   true,
			},
			model.ClassificationSignal{
				Source:     model.SourceStructure,
				Category:   model.CategoryProduct,
				Confidence: 0.9,
				Weight:     2.0,
				Reasoning:  "reclassified toward product by commerce controls",
			},
		)
	}

	if in.VisionNotIndividual {
		signals = append(signals, model.ClassificationSignal{
			Source:     model.SourceReasoning,
			Category:   model.CategoryProfile,
			Confidence: 0.8,
			Weight:     1.5,
			Reasoning:  "reasoning service flagged not an individual",
			Negative:   true,
		})
	}

	return signals
}

// aggregate computes per-category adjusted scores and returns them ranked
// descending. Negative signals contribute zero confidence at full weight,
// dragging the weighted average down. The source-diversity multiplier only
// counts positive signals.
func aggregate(signals []model.ClassificationSignal) []model.RankedCategory {
	num := make(map[model.PageCategory]float64)
	den := make(map[model.PageCategory]float64)
	sources := make(map[model.PageCategory]map[model.Source]bool)

	for _, s := range signals {
		den[s.Category] += s.Weight
		if s.Negative {
			continue
		}
		num[s.Category] += s.Confidence * s.Weight
		if sources[s.Category] == nil {
			sources[s.Category] = make(map[model.Source]bool)
		}
		sources[s.Category][s.Source] = true
	}

	var ranked []model.RankedCategory
	for cat, d := range den {
		if d == 0 {
			continue
		}
		score := num[cat] / d

		switch n := len(sources[cat]); {
		case n <= 1:
			score *= diversityPenaltySingle
		case n == 2:
			score *= diversityPenaltyDouble
		default:
			score *= diversityBonusTriple
		}
		if score > 1.0 {
			score = 1.0
		}

		ranked = append(ranked, model.RankedCategory{Category: cat, Score: score})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		// Tie: prefer broader source support, then name for determinism.
		si, sj := len(sources[ranked[i].Category]), len(sources[ranked[j].Category])
		if si != sj {
			return si > sj
		}
		return ranked[i].Category < ranked[j].Category
	})

	return ranked
}
