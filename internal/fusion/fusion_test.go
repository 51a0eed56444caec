package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/preview-pipeline/internal/model"
)

func cand(source model.Source, field, value string, conf float64) model.ExtractionCandidate {
	return model.ExtractionCandidate{Source: source, Field: field, Value: value, Confidence: conf}
}

func TestFuse_HighestConfidenceWins(t *testing.T) {
	res := New().Fuse("https://example.com/page", []model.ExtractionCandidate{
		cand(model.SourceReasoning, model.FieldTitle, "Rocket Skates by Acme", 0.9),
		cand(model.SourceMarkup, model.FieldTitle, "Acme Rocket Skates Catalog", 0.75),
	})

	assert.Equal(t, "Rocket Skates by Acme", res.Values[model.FieldTitle])
	assert.Equal(t, model.SourceReasoning, res.Sources[model.FieldTitle])
}

func TestFuse_TieBreaksBySourcePriority(t *testing.T) {
	res := New().Fuse("https://example.com/page", []model.ExtractionCandidate{
		cand(model.SourceReasoning, model.FieldTitle, "Reasoning Title Here", 0.8),
		cand(model.SourceMarkup, model.FieldTitle, "Markup Title Here", 0.8),
	})

	assert.Equal(t, "Markup Title Here", res.Values[model.FieldTitle])
	assert.Equal(t, model.SourceMarkup, res.Sources[model.FieldTitle])
}

func TestFuse_IsDeterministic(t *testing.T) {
	candidates := []model.ExtractionCandidate{
		cand(model.SourceReasoning, model.FieldTitle, "Reasoning Title Here", 0.8),
		cand(model.SourceMarkup, model.FieldTitle, "Markup Title Here", 0.8),
		cand(model.SourceMarkup, model.FieldDescription, "A perfectly serviceable description of the page.", 0.7),
	}
	first := New().Fuse("https://example.com/page", candidates)
	for i := 0; i < 10; i++ {
		// Reversed input order must not change the outcome.
		reversed := []model.ExtractionCandidate{candidates[2], candidates[1], candidates[0]}
		again := New().Fuse("https://example.com/page", reversed)
		assert.Equal(t, first.Values, again.Values)
		assert.Equal(t, first.Sources, again.Sources)
	}
}

func TestFuse_FailingCandidateUsedWithWarning(t *testing.T) {
	// Both candidates fail the content gate; the best one is still used.
	res := New().Fuse("https://example.com/page", []model.ExtractionCandidate{
		cand(model.SourceMarkup, model.FieldTitle, "Home", 0.6),
	})

	assert.Equal(t, "Home", res.Values[model.FieldTitle])
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "no candidate passed gates")
}

func TestFuse_NoCandidatesSynthesizesFromURL(t *testing.T) {
	res := New().Fuse("https://rocket-skates.example.com/products/mk2", nil)

	assert.Equal(t, "Rocket Skates Example", res.Values[model.FieldTitle])
	assert.NotEmpty(t, res.Values[model.FieldDescription])
	assert.Empty(t, res.Values[model.FieldImage])
	assert.Empty(t, res.Values[model.FieldTags])
	assert.InDelta(t, 0.3, res.Confidence, 0.001)
	assert.Len(t, res.Warnings, 2)
}

func TestFuse_ColorCandidatesGoThroughDesignGate(t *testing.T) {
	res := New().Fuse("https://example.com", []model.ExtractionCandidate{
		cand(model.SourceReasoning, model.FieldColors, "#ff6600", 0.7),
	})

	assert.Equal(t, "#ff6600", res.Values[model.FieldColors])
	assert.True(t, res.Scores[model.FieldColors].Passed)
}

func TestFuse_InvalidColorFailsGate(t *testing.T) {
	res := New().Fuse("https://example.com", []model.ExtractionCandidate{
		cand(model.SourceReasoning, model.FieldColors, "orange", 0.7),
	})

	assert.False(t, res.Scores[model.FieldColors].Passed)
}

func TestFuse_ConfidenceIsMeanOfWinners(t *testing.T) {
	res := New().Fuse("https://example.com/page", []model.ExtractionCandidate{
		cand(model.SourceMarkup, model.FieldTitle, "Acme Rocket Skates Catalog", 0.9),
		cand(model.SourceMarkup, model.FieldDescription, "Strap-on rocket propulsion for the discerning coyote.", 0.7),
	})

	assert.InDelta(t, 0.8, res.Confidence, 0.001)
}
