package critic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/preview-pipeline/internal/model"
)

func goodRecord() *model.PreviewRecord {
	return &model.PreviewRecord{
		URL:         "https://example.com/rockets",
		Title:       "Get Acme Rocket Skates in 3 Sizes",
		Description: "Strap-on rocket propulsion trusted by 12,000 coyotes. Free shipping on every order.",
		Tags:        []string{"rockets", "skates"},
		ImageURL:    "https://cdn.example.com/skates.png",
		Blueprint: model.Blueprint{
			PrimaryColor:   "#ff6600",
			SecondaryColor: "#222222",
			TemplateID:     "product-card",
		},
		Strategy: model.PreviewStrategy{TemplateID: "product-card"},
		Category: model.CategoryProduct,
		QualityScores: map[string]model.QualityScore{
			model.FieldTitle: {Score: 1.0, Passed: true},
		},
		FieldSources: map[string]model.Source{
			model.FieldTitle:       model.SourceMarkup,
			model.FieldDescription: model.SourceReasoning,
		},
		Confidence: 0.85,
	}
}

func TestEvaluate_GoodRecordScoresHigh(t *testing.T) {
	result := New().Evaluate(goodRecord())

	assert.GreaterOrEqual(t, result.Overall, 0.85)
	assert.Equal(t, model.LevelExcellent, result.Verdict)
	assert.Empty(t, result.Actions)
	assert.False(t, result.ShouldIterate)
}

func TestEvaluate_NilRecordScoresZero(t *testing.T) {
	result := New().Evaluate(nil)

	assert.Equal(t, 0.0, result.Overall)
	assert.Len(t, result.Dimensions, 5)
}

func TestEvaluate_DimensionWeightsSumToOne(t *testing.T) {
	sum := 0.0
	for _, w := range dimensionWeights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 0.0001)
}

func TestEvaluate_OverlongTitleProposesTrim(t *testing.T) {
	rec := goodRecord()
	rec.Title = strings.Repeat("Very Important Words ", 8) // > 120 chars

	result := New().Evaluate(rec)

	require.NotEmpty(t, result.Actions)
	assert.Equal(t, "trim_title", result.Actions[0].Kind)
	assert.Equal(t, model.PriorityCritical, result.Actions[0].Priority)
	assert.True(t, result.ShouldIterate)
}

func TestEvaluate_RedundantDescriptionFlagged(t *testing.T) {
	rec := goodRecord()
	rec.Description = rec.Title + ". Also some more words about the product."

	result := New().Evaluate(rec)

	var kinds []string
	for _, a := range result.Actions {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, "dedupe_description")
}

func TestEvaluate_VagueSocialProofFlagged(t *testing.T) {
	rec := goodRecord()
	rec.Description = "Loved by thousands of happy customers around the world."

	result := New().Evaluate(rec)

	var kinds []string
	for _, a := range result.Actions {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, "strip_vague_proof")
}

func TestApplyAction_TrimTitlePrefersSentenceBoundary(t *testing.T) {
	rec := goodRecord()
	rec.Title = strings.Repeat("a", 90) + ". " + strings.Repeat("b", 60)

	out := applyAction(rec, model.ImprovementAction{Target: model.FieldTitle, Kind: "trim_title"})

	assert.Equal(t, strings.Repeat("a", 90)+".", out.Title)
	// Input record untouched.
	assert.Greater(t, len(rec.Title), 120)
}

func TestApplyAction_DedupeDropsTitleLead(t *testing.T) {
	rec := goodRecord()
	rec.Description = rec.Title + ": now with improved bearings for daily commutes."

	out := applyAction(rec, model.ImprovementAction{Target: model.FieldDescription, Kind: "dedupe_description"})

	assert.Equal(t, "Now with improved bearings for daily commutes.", out.Description)
}

func TestRefine_StopsAtThreshold(t *testing.T) {
	it := NewIterator(New(), 0.80, 2)

	record, critique, rounds := it.Refine(goodRecord())

	assert.Equal(t, 0, rounds)
	assert.GreaterOrEqual(t, critique.Overall, 0.80)
	assert.Equal(t, goodRecord().Title, record.Title)
}

func TestRefine_BoundedIterations(t *testing.T) {
	it := NewIterator(New(), 0.99, 2) // threshold no record can reach

	rec := goodRecord()
	rec.Title = strings.Repeat("Very Important Words ", 8)
	rec.Description = rec.Title + " and then some further elaboration follows here."

	_, _, rounds := it.Refine(rec)

	assert.LessOrEqual(t, rounds, 2)
}

func TestRefine_NeverReturnsWorseThanInput(t *testing.T) {
	it := NewIterator(New(), 0.99, 2)

	rec := goodRecord()
	rec.Title = strings.Repeat("Very Important Words ", 8)

	before := New().Evaluate(rec).Overall
	best, critique, _ := it.Refine(rec)

	assert.GreaterOrEqual(t, critique.Overall, before)
	assert.NotNil(t, best)
}

func TestRefine_MediumPriorityActionsStayAdvisory(t *testing.T) {
	it := NewIterator(New(), 0.99, 2) // threshold no record can reach

	rec := goodRecord()
	rec.Description = "Acme builds battery powered rocket skates with regenerative braking. " +
		strings.Repeat("Each pair ships with replaceable ceramic bearings rated for city use. ", 4)
	require.Greater(t, len(rec.Description), 300)

	best, critique, rounds := it.Refine(rec)

	assert.Equal(t, 0, rounds)
	assert.Equal(t, rec.Description, best.Description)
	var kinds []string
	for _, a := range critique.Actions {
		kinds = append(kinds, a.Kind)
	}
	assert.Contains(t, kinds, actionCondenseDesc)
}

func TestRefine_ImprovesOverlongTitle(t *testing.T) {
	it := NewIterator(New(), 0.90, 2)

	rec := goodRecord()
	rec.Title = "Get Acme Rocket Skates in 3 Sizes. " + strings.Repeat("Extra trailing marketing copy. ", 5)

	best, critique, rounds := it.Refine(rec)

	assert.GreaterOrEqual(t, rounds, 1)
	assert.LessOrEqual(t, len(best.Title), 120)
	assert.Greater(t, critique.Overall, New().Evaluate(rec).Overall)
}
