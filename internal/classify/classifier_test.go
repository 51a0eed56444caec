package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/preview-pipeline/internal/model"
)

func TestClassify_NoSignalsIsUnknown(t *testing.T) {
	cls := New().Classify(Input{URL: "https://example.com/xyzzy"})

	assert.Equal(t, model.CategoryUnknown, cls.Primary)
	assert.Equal(t, 0.0, cls.Confidence)
	assert.Equal(t, "generic-card", cls.Strategy.TemplateID)
}

func TestClassify_RootPathAloneIsNotEnough(t *testing.T) {
	// One landing signal at 0.5 lands below the commit floor after the
	// single-source penalty; the ranking stays visible as alternatives.
	cls := New().Classify(Input{URL: "https://example.com/"})

	assert.Equal(t, model.CategoryUnknown, cls.Primary)
	require.NotEmpty(t, cls.Alternatives)
	assert.Equal(t, model.CategoryLanding, cls.Alternatives[0].Category)
}

func TestClassify_SingleSourcePenalty(t *testing.T) {
	cls := New().Classify(Input{
		URL:    "https://example.com/pricing",
		OGType: "article",
	})

	assert.Equal(t, model.CategoryArticle, cls.Primary)
	assert.InDelta(t, 0.8*0.65, cls.Confidence, 0.001)
}

func TestClassify_ThreeSourceBonus(t *testing.T) {
	cls := New().Classify(Input{
		URL:    "https://example.com/product/rocket-skates",
		OGType: "product",
		Indicators: &model.StructureIndicators{
			HasPrice:     true,
			HasAddToCart: true,
		},
		VisionCategory:   "product",
		VisionConfidence: 0.95,
	})

	require.Equal(t, model.CategoryProduct, cls.Primary)
	// Weighted average 0.816 boosted by the triple-source multiplier.
	assert.InDelta(t, 0.8568, cls.Confidence, 0.005)
	assert.True(t, cls.Confidence <= 1.0)
}

func TestClassify_VisionConfidenceIsCapped(t *testing.T) {
	cls := New().Classify(Input{
		URL:              "https://example.com/xyzzy",
		VisionCategory:   "product",
		VisionConfidence: 1.0,
	})

	assert.Equal(t, model.CategoryProduct, cls.Primary)
	assert.InDelta(t, 0.85*0.65, cls.Confidence, 0.001)
}

func TestClassify_CommerceControlsBeatProfilePath(t *testing.T) {
	// A storefront under /in/ looks like a profile by URL shape; the
	// price and cart controls must win.
	cls := New().Classify(Input{
		URL: "https://shop.example.com/in/acme-gadgets",
		Indicators: &model.StructureIndicators{
			HasPrice:     true,
			HasAddToCart: true,
		},
	})

	require.Equal(t, model.CategoryProduct, cls.Primary)

	var profileScore float64
	for _, alt := range cls.Alternatives {
		if alt.Category == model.CategoryProfile {
			profileScore = alt.Score
		}
	}
	assert.Less(t, profileScore, cls.Confidence)

	negatives := 0
	for _, s := range cls.Signals {
		if s.Negative {
			negatives++
		}
	}
	assert.Equal(t, 1, negatives)
}

func TestClassify_NotIndividualSuppressesProfile(t *testing.T) {
	with := New().Classify(Input{
		URL:                 "https://example.com/people/jane",
		VisionNotIndividual: true,
	})
	without := New().Classify(Input{
		URL: "https://example.com/people/jane",
	})

	require.Equal(t, model.CategoryProfile, without.Primary)
	assert.Less(t, scoreFor(with, model.CategoryProfile), without.Confidence)
}

func scoreFor(cls model.PageClassification, cat model.PageCategory) float64 {
	if cls.Primary == cat {
		return cls.Confidence
	}
	for _, alt := range cls.Alternatives {
		if alt.Category == cat {
			return alt.Score
		}
	}
	return 0
}

func TestStrategyFor_KnownCategories(t *testing.T) {
	tests := []struct {
		cat      model.PageCategory
		template string
	}{
		{model.CategoryProduct, "product-card"},
		{model.CategoryProfile, "profile-card"},
		{model.CategoryArticle, "article-card"},
		{model.CategoryUnknown, "generic-card"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			s := StrategyFor(tt.cat)
			assert.Equal(t, tt.template, s.TemplateID)
			assert.NotEmpty(t, s.Elements)
		})
	}
}
