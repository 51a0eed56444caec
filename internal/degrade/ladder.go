package degrade

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/preview-pipeline/internal/config"
	"github.com/sells-group/preview-pipeline/internal/model"
)

// TierSpec defines one rung of the ladder: how long the attempt may take,
// how confident its result must be, and how often it may retry in place.
type TierSpec struct {
	Tier          model.Tier    `yaml:"-"`
	Timeout       time.Duration `yaml:"-"`
	MinConfidence float64       `yaml:"min_confidence"`
	Retries       int           `yaml:"retries"`

	TimeoutSecs int `yaml:"timeout_secs"`
}

// Ladder builds the tier specs from config. Tier 3 retries once in place;
// all other tiers fall straight through on failure. Tier 4 accepts any
// confidence and cannot fail.
func Ladder(cfg config.PipelineConfig) []TierSpec {
	return []TierSpec{
		{Tier: model.TierFull, Timeout: secs(cfg.Tier1TimeoutSecs, 45), MinConfidence: cfg.Tier1MinConf},
		{Tier: model.TierVisionOnly, Timeout: secs(cfg.Tier2TimeoutSecs, 30), MinConfidence: cfg.Tier2MinConf},
		{Tier: model.TierMarkupOnly, Timeout: secs(cfg.Tier3TimeoutSecs, 15), MinConfidence: cfg.Tier3MinConf, Retries: 1},
		{Tier: model.TierMinimal, Timeout: secs(cfg.Tier4TimeoutSecs, 5), MinConfidence: 0},
	}
}

func secs(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}

// overridesFile mirrors an optional tiers.yaml with per-tier overrides.
type overridesFile struct {
	Tiers map[string]TierSpec `yaml:"tiers"`
}

var tierNames = map[string]model.Tier{
	"full":        model.TierFull,
	"vision_only": model.TierVisionOnly,
	"markup_only": model.TierMarkupOnly,
	"minimal":     model.TierMinimal,
}

// ApplyOverrides overlays tier settings from a YAML file onto the ladder.
// Missing file entries keep their configured values.
func ApplyOverrides(ladder []TierSpec, path string) ([]TierSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "degrade: read overrides %s", path)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "degrade: parse overrides")
	}

	out := make([]TierSpec, len(ladder))
	copy(out, ladder)
	for name, ov := range f.Tiers {
		tier, ok := tierNames[name]
		if !ok {
			return nil, eris.Errorf("degrade: unknown tier %q in overrides", name)
		}
		for i := range out {
			if out[i].Tier != tier {
				continue
			}
			if ov.TimeoutSecs > 0 {
				out[i].Timeout = time.Duration(ov.TimeoutSecs) * time.Second
			}
			if ov.MinConfidence > 0 {
				out[i].MinConfidence = ov.MinConfidence
			}
			if ov.Retries > 0 {
				out[i].Retries = ov.Retries
			}
		}
	}
	return out, nil
}
