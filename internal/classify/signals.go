package classify

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// Signal source weights. URL shape and metadata are cheap but reliable;
// structure indicators are noisier; the reasoning service is rich but
// overconfident, so its confidence is capped instead of down-weighted.
const (
	weightURL       = 1.0
	weightMetadata  = 1.2
	weightStructure = 1.0
	weightReasoning = 1.5

	// visionConfidenceCap offsets reasoning-service overconfidence.
	visionConfidenceCap = 0.85
)

// urlPatternFamilies maps path regexes to categories. First match per
// family wins; multiple families may each emit a signal.
var urlPatternFamilies = []struct {
	re       *regexp.Regexp
	category model.PageCategory
	conf     float64
}{
	{regexp.MustCompile(`(?i)/(products?|item|p|shop|store|buy)(/|$)`), model.CategoryProduct, 0.7},
	{regexp.MustCompile(`(?i)/(in|user|users|profile|people|member|u|@[\w.-]+)(/|$)`), model.CategoryProfile, 0.7},
	{regexp.MustCompile(`(?i)/(blog|articles?|news|posts?|stories)(/|$)`), model.CategoryArticle, 0.7},
	{regexp.MustCompile(`(?i)/(services?|solutions|what-we-do)(/|$)`), model.CategoryService, 0.7},
	{regexp.MustCompile(`(?i)/(portfolio|work|projects?|gallery)(/|$)`), model.CategoryPortfolio, 0.65},
	{regexp.MustCompile(`(?i)/(events?|webinars?|conference|meetup)(/|$)`), model.CategoryEvent, 0.7},
	{regexp.MustCompile(`(?i)/(courses?|learn|training|classes)(/|$)`), model.CategoryCourse, 0.7},
}

// urlSignals derives positive signals from the URL path shape alone.
func urlSignals(rawURL string) []model.ClassificationSignal {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	path := u.Path
	if path == "" || path == "/" {
		return []model.ClassificationSignal{{
			Source:     model.SourceMarkup,
			Category:   model.CategoryLanding,
			Confidence: 0.5,
			Weight:     weightURL,
			Reasoning:  "root path",
		}}
	}

	var signals []model.ClassificationSignal
	for _, fam := range urlPatternFamilies {
		if fam.re.MatchString(path) {
			signals = append(signals, model.ClassificationSignal{
				Source:     model.SourceMarkup,
				Category:   fam.category,
				Confidence: fam.conf,
				Weight:     weightURL,
				Reasoning:  fmt.Sprintf("url path matches %s family", fam.category),
			})
		}
	}
	return signals
}

// ogTypeCategories maps OpenGraph og:type values to categories.
var ogTypeCategories = map[string]model.PageCategory{
	"product":           model.CategoryProduct,
	"product.item":      model.CategoryProduct,
	"profile":           model.CategoryProfile,
	"article":           model.CategoryArticle,
	"blog":              model.CategoryArticle,
	"website":           model.CategoryLanding,
	"video.other":       model.CategoryPortfolio,
	"music.song":        model.CategoryPortfolio,
	"business.business": model.CategoryService,
}

// jsonLDCategories maps schema.org @type values to categories.
var jsonLDCategories = map[string]model.PageCategory{
	"product":        model.CategoryProduct,
	"offer":          model.CategoryProduct,
	"person":         model.CategoryProfile,
	"profilepage":    model.CategoryProfile,
	"article":        model.CategoryArticle,
	"newsarticle":    model.CategoryArticle,
	"blogposting":    model.CategoryArticle,
	"service":        model.CategoryService,
	"localbusiness":  model.CategoryService,
	"organization":   model.CategoryService,
	"event":          model.CategoryEvent,
	"course":         model.CategoryCourse,
	"creativework":   model.CategoryPortfolio,
	"collectionpage": model.CategoryPortfolio,
	"aboutpage":      model.CategoryProfile,
	"webpage":        model.CategoryLanding,
}

// metadataSignals derives positive signals from typed markup metadata.
func metadataSignals(ogType string, jsonLDTypes []string) []model.ClassificationSignal {
	var signals []model.ClassificationSignal

	if cat, ok := ogTypeCategories[strings.ToLower(strings.TrimSpace(ogType))]; ok {
		signals = append(signals, model.ClassificationSignal{
			Source:     model.SourceMarkup,
			Category:   cat,
			Confidence: 0.8,
			Weight:     weightMetadata,
			Reasoning:  "og:type " + ogType,
		})
	}

	for _, t := range jsonLDTypes {
		if cat, ok := jsonLDCategories[strings.ToLower(strings.TrimSpace(t))]; ok {
			signals = append(signals, model.ClassificationSignal{
				Source:     model.SourceMarkup,
				Category:   cat,
				Confidence: 0.85,
				Weight:     weightMetadata,
				Reasoning:  "json-ld @type " + t,
			})
		}
	}

	return signals
}

// structureSignals derives positive signals from heuristic indicators.
// Commerce indicators compound: price alone is weak (prices show up in
// articles too), price plus cart control is near-conclusive.
func structureSignals(ind *model.StructureIndicators) []model.ClassificationSignal {
	if ind == nil {
		return nil
	}

	var signals []model.ClassificationSignal
	add := func(cat model.PageCategory, conf float64, why string) {
		signals = append(signals, model.ClassificationSignal{
			Source:     model.SourceStructure,
			Category:   cat,
			Confidence: conf,
			Weight:     weightStructure,
			Reasoning:  why,
		})
	}

	switch {
	case ind.HasPrice && ind.HasAddToCart:
		add(model.CategoryProduct, 0.9, "price and add-to-cart present")
	case ind.HasPrice:
		add(model.CategoryProduct, 0.5, "price indicator present")
	case ind.HasAddToCart:
		add(model.CategoryProduct, 0.6, "add-to-cart control present")
	}

	if ind.HasBio {
		add(model.CategoryProfile, 0.65, "bio-style section present")
	}
	if ind.HasTestimonials {
		add(model.CategoryService, 0.55, "testimonial section present")
	}
	if ind.HasArticleBody {
		add(model.CategoryArticle, 0.7, "long-form article body present")
	}
	if ind.HasSignupForm {
		add(model.CategoryLanding, 0.5, "signup form present")
	}

	return signals
}

// visionCategoryMap translates the reasoning-service category guess into
// our taxonomy. Unknown guesses produce no signal.
var visionCategoryMap = map[string]model.PageCategory{
	"product":    model.CategoryProduct,
	"ecommerce":  model.CategoryProduct,
	"shop":       model.CategoryProduct,
	"profile":    model.CategoryProfile,
	"person":     model.CategoryProfile,
	"personal":   model.CategoryProfile,
	"article":    model.CategoryArticle,
	"blog":       model.CategoryArticle,
	"news":       model.CategoryArticle,
	"service":    model.CategoryService,
	"business":   model.CategoryService,
	"agency":     model.CategoryService,
	"landing":    model.CategoryLanding,
	"homepage":   model.CategoryLanding,
	"saas":       model.CategoryLanding,
	"portfolio":  model.CategoryPortfolio,
	"gallery":    model.CategoryPortfolio,
	"event":      model.CategoryEvent,
	"conference": model.CategoryEvent,
	"course":     model.CategoryCourse,
	"education":  model.CategoryCourse,
}

// visionSignal maps the reasoning-service guess through the fixed lookup
// table, capping confidence at visionConfidenceCap.
func visionSignal(category string, confidence float64) []model.ClassificationSignal {
	cat, ok := visionCategoryMap[strings.ToLower(strings.TrimSpace(category))]
	if !ok {
		return nil
	}
	if confidence > visionConfidenceCap {
		confidence = visionConfidenceCap
	}
	if confidence <= 0 {
		return nil
	}
	return []model.ClassificationSignal{{
		Source:     model.SourceReasoning,
		Category:   cat,
		Confidence: confidence,
		Weight:     weightReasoning,
		Reasoning:  "reasoning service guessed " + category,
	}}
}
