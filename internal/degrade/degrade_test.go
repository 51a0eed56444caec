package degrade

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/preview-pipeline/internal/config"
	"github.com/sells-group/preview-pipeline/internal/model"
)

func testLadder() []TierSpec {
	return []TierSpec{
		{Tier: model.TierFull, Timeout: time.Second, MinConfidence: 0.7},
		{Tier: model.TierVisionOnly, Timeout: time.Second, MinConfidence: 0.5},
		{Tier: model.TierMarkupOnly, Timeout: time.Second, MinConfidence: 0.3, Retries: 1},
		{Tier: model.TierMinimal, Timeout: time.Second},
	}
}

func recordWith(conf float64) *model.PreviewRecord {
	return &model.PreviewRecord{Title: "Something", Confidence: conf}
}

func TestRun_FirstTierSucceeds(t *testing.T) {
	c := New(testLadder(), map[model.Tier]HandlerFunc{
		model.TierFull: func(ctx context.Context, url string) (*model.PreviewRecord, error) {
			return recordWith(0.9), nil
		},
	})

	record, trail := c.Run(context.Background(), "https://example.com")

	require.NotNil(t, record)
	assert.Equal(t, model.TierFull, record.Tier)
	require.Len(t, trail, 1)
	assert.True(t, trail[0].Success)
}

func TestRun_LowConfidenceFallsThrough(t *testing.T) {
	c := New(testLadder(), map[model.Tier]HandlerFunc{
		model.TierFull: func(ctx context.Context, url string) (*model.PreviewRecord, error) {
			return recordWith(0.4), nil // below tier-1 floor of 0.7
		},
		model.TierVisionOnly: func(ctx context.Context, url string) (*model.PreviewRecord, error) {
			return recordWith(0.6), nil
		},
	})

	record, trail := c.Run(context.Background(), "https://example.com")

	assert.Equal(t, model.TierVisionOnly, record.Tier)
	require.Len(t, trail, 2)
	assert.False(t, trail[0].Success)
	assert.Contains(t, trail[0].FallbackReason, "confidence 0.40 below tier minimum")
	assert.True(t, trail[1].Success)
}

func TestRun_MarkupTierRetriesOnce(t *testing.T) {
	attempts := 0
	c := New(testLadder(), map[model.Tier]HandlerFunc{
		model.TierMarkupOnly: func(ctx context.Context, url string) (*model.PreviewRecord, error) {
			attempts++
			if attempts == 1 {
				return nil, eris.New("flaky fetch")
			}
			return recordWith(0.5), nil
		},
	})

	record, trail := c.Run(context.Background(), "https://example.com")

	assert.Equal(t, 2, attempts)
	assert.Equal(t, model.TierMarkupOnly, record.Tier)
	require.Len(t, trail, 2)
	assert.False(t, trail[0].Success)
	assert.True(t, trail[1].Success)
}

func TestRun_AllTiersFailYieldsMinimal(t *testing.T) {
	fail := func(ctx context.Context, url string) (*model.PreviewRecord, error) {
		return nil, eris.New("everything is down")
	}
	c := New(testLadder(), map[model.Tier]HandlerFunc{
		model.TierFull:       fail,
		model.TierVisionOnly: fail,
		model.TierMarkupOnly: fail,
	})

	record, trail := c.Run(context.Background(), "https://example.com")

	require.NotNil(t, record)
	assert.Equal(t, model.TierMinimal, record.Tier)
	assert.NotEmpty(t, record.Title)
	// 1 + 1 + 2 failed attempts, then the terminal hop.
	require.Len(t, trail, 5)
	assert.True(t, trail[4].Success)
}

func TestRun_TimeoutAdvancesTier(t *testing.T) {
	ladder := testLadder()
	ladder[0].Timeout = 20 * time.Millisecond

	c := New(ladder, map[model.Tier]HandlerFunc{
		model.TierFull: func(ctx context.Context, url string) (*model.PreviewRecord, error) {
			select {
			case <-time.After(500 * time.Millisecond):
				return recordWith(0.9), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
		model.TierVisionOnly: func(ctx context.Context, url string) (*model.PreviewRecord, error) {
			return recordWith(0.6), nil
		},
	})

	record, trail := c.Run(context.Background(), "https://example.com")

	assert.Equal(t, model.TierVisionOnly, record.Tier)
	assert.Contains(t, trail[0].FallbackReason, "timeout")
}

func TestMinimalRecord(t *testing.T) {
	record := MinimalRecord("https://acme-rockets.example.com/catalog")

	assert.Equal(t, "Acme Rockets Example", record.Title)
	assert.NotEmpty(t, record.Description)
	assert.Equal(t, model.TierMinimal, record.Tier)
	assert.Equal(t, model.CategoryUnknown, record.Category)
	assert.Equal(t, "generic-card", record.Blueprint.TemplateID)
	assert.NotEmpty(t, record.Blueprint.PrimaryColor)
	assert.InDelta(t, 0.3, record.Confidence, 0.001)
	assert.NotEmpty(t, record.Warnings)
}

func TestMinimalRecord_NeverEmptyTitle(t *testing.T) {
	for _, url := range []string{"", "::bad::", "https://example.com", "not a url at all"} {
		record := MinimalRecord(url)
		assert.NotEmpty(t, record.Title, "url %q", url)
		assert.NotEmpty(t, record.Description, "url %q", url)
	}
}

func TestLadder_FromConfig(t *testing.T) {
	specs := Ladder(config.PipelineConfig{
		Tier1TimeoutSecs: 45, Tier2TimeoutSecs: 30, Tier3TimeoutSecs: 15, Tier4TimeoutSecs: 5,
		Tier1MinConf: 0.7, Tier2MinConf: 0.5, Tier3MinConf: 0.3,
	})

	require.Len(t, specs, 4)
	assert.Equal(t, 45*time.Second, specs[0].Timeout)
	assert.Equal(t, 0.7, specs[0].MinConfidence)
	assert.Equal(t, 1, specs[2].Retries)
	assert.Equal(t, 0.0, specs[3].MinConfidence)
}

func TestApplyOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tiers:
  markup_only:
    timeout_secs: 20
    retries: 2
  full:
    min_confidence: 0.8
`), 0o644))

	out, err := ApplyOverrides(testLadder(), path)
	require.NoError(t, err)

	assert.Equal(t, 0.8, out[0].MinConfidence)
	assert.Equal(t, 20*time.Second, out[2].Timeout)
	assert.Equal(t, 2, out[2].Retries)
	// Untouched tiers keep their values.
	assert.Equal(t, 0.5, out[1].MinConfidence)
}

func TestApplyOverrides_UnknownTier(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers:\n  bogus:\n    retries: 1\n"), 0o644))

	_, err := ApplyOverrides(testLadder(), path)
	assert.Error(t, err)
}
