package gate

import (
	"strings"
	"unicode"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// contentPassThreshold is the minimum score for a content value to pass.
const contentPassThreshold = 0.6

// contentRule is one declarative penalty: if Applies returns true for the
// value, Penalty is subtracted from the running score.
type contentRule struct {
	Name    string
	Penalty float64
	Applies func(value string, field string) bool
}

// boilerplatePhrases are generic filler strings that carry no information
// about the page. Matched case-insensitively as substrings.
var boilerplatePhrases = []string{
	"welcome to our website",
	"under construction",
	"lorem ipsum",
	"click here",
	"untitled",
	"home page",
	"default title",
	"just a moment",
	"page not found",
}

// navVocabulary is menu-chrome wording that suggests the value was scraped
// from navigation rather than page content.
var navVocabulary = []string{
	"home", "about", "contact", "menu", "login", "sign in", "sign up",
	"search", "cart", "next", "previous", "skip to content",
}

var contentRules = []contentRule{
	{
		Name:    "too_short",
		Penalty: 0.3,
		Applies: func(v, field string) bool {
			return isTitleLike(field) && len(v) < 10
		},
	},
	{
		Name:    "too_long",
		Penalty: 0.2,
		Applies: func(v, field string) bool {
			return isTitleLike(field) && len(v) > 200
		},
	},
	{
		Name:    "boilerplate",
		Penalty: 0.3,
		Applies: func(v, _ string) bool {
			lower := strings.ToLower(v)
			for _, p := range boilerplatePhrases {
				if strings.Contains(lower, p) {
					return true
				}
			}
			return false
		},
	},
	{
		Name:    "navigation_vocabulary",
		Penalty: 0.2,
		Applies: func(v, _ string) bool {
			if len(v) >= 30 {
				return false
			}
			lower := strings.TrimSpace(strings.ToLower(v))
			for _, w := range navVocabulary {
				if lower == w {
					return true
				}
			}
			return false
		},
	},
	{
		Name:    "all_caps",
		Penalty: 0.1,
		Applies: func(v, _ string) bool {
			if len(v) < 12 {
				return false
			}
			hasLetter := false
			for _, r := range v {
				if unicode.IsLetter(r) {
					hasLetter = true
					if unicode.IsLower(r) {
						return false
					}
				}
			}
			return hasLetter
		},
	},
	{
		Name:    "non_alphabetic",
		Penalty: 0.3,
		Applies: func(v, _ string) bool {
			for _, r := range v {
				if unicode.IsLetter(r) {
					return false
				}
			}
			return len(v) > 0
		},
	},
	{
		Name:    "image_not_url",
		Penalty: 0.5,
		Applies: func(v, field string) bool {
			if field != model.FieldImage {
				return false
			}
			return !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://")
		},
	},
}

func isTitleLike(field string) bool {
	return field == model.FieldTitle || field == model.FieldDescription
}

// Content gates text values: titles, descriptions, tags, image refs.
type Content struct{}

func (Content) Name() string { return "content" }

// Validate starts at 1.0 and applies every matching rule's penalty.
func (Content) Validate(value string, ctx Context) model.QualityScore {
	value = strings.TrimSpace(value)
	if value == "" {
		return score(0, 0, contentPassThreshold, []string{"empty value"})
	}

	raw := 1.0
	var issues []string
	for _, rule := range contentRules {
		if rule.Applies(value, ctx.Field) {
			raw -= rule.Penalty
			issues = append(issues, rule.Name)
		}
	}

	return score(raw, raw, contentPassThreshold, issues)
}
