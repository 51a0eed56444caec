package collect

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// priceRe matches currency amounts like $19.99, €1 299, £45.
var priceRe = regexp.MustCompile(`[$€£¥]\s?\d[\d,. ]*|\d+[.,]\d{2}\s?(USD|EUR|GBP)`)

// cartVerbs are commerce-control labels.
var cartVerbs = []string{
	"add to cart", "add to bag", "add to basket", "buy now", "checkout",
	"purchase", "order now",
}

// bioMarkers suggest a personal or team profile.
var bioMarkers = []string{
	"about me", "biography", "my story", "follow me", "years of experience",
	"joined in", "member since",
}

// testimonialMarkers suggest social-proof sections.
var testimonialMarkers = []string{
	"testimonial", "what our customers", "what our clients", "reviews",
	"rated us", "stars",
}

// Structure is the heuristic content-structure analyzer: it detects
// price/cart/bio/testimonial-style indicators without any AI involvement.
type Structure struct{}

// NewStructure creates the structure analyzer.
func NewStructure() *Structure {
	return &Structure{}
}

// Analyze scans the page for indicators. Never fails; unparseable or
// empty HTML yields empty indicators.
func (s *Structure) Analyze(page Page) *model.StructureIndicators {
	ind := &model.StructureIndicators{}
	if strings.TrimSpace(page.HTML) == "" {
		return ind
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return ind
	}

	body := strings.ToLower(doc.Find("body").Text())

	ind.HasPrice = priceRe.MatchString(body)
	ind.HasAddToCart = containsAny(body, cartVerbs) || hasCartControl(doc)
	ind.HasBio = containsAny(body, bioMarkers)
	ind.HasTestimonials = containsAny(body, testimonialMarkers) ||
		doc.Find("blockquote").Length() >= 2
	ind.HasArticleBody = doc.Find("article").Length() > 0 ||
		len(strings.Fields(body)) > 800
	ind.HasSignupForm = hasSignupForm(doc)
	ind.HeadingCount = doc.Find("h1, h2, h3").Length()
	ind.FormCount = doc.Find("form").Length()
	ind.ImageCount = doc.Find("img").Length()

	zap.L().Debug("structure: indicators",
		zap.String("url", page.URL),
		zap.Bool("price", ind.HasPrice),
		zap.Bool("cart", ind.HasAddToCart),
		zap.Bool("bio", ind.HasBio),
		zap.Bool("article", ind.HasArticleBody),
	)

	return ind
}

// hasCartControl looks for buttons and inputs whose label or metadata
// names a cart action.
func hasCartControl(doc *goquery.Document) bool {
	found := false
	doc.Find(`button, input[type="submit"], a[class*="cart"], [data-action*="cart"]`).
		EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			label := strings.ToLower(sel.Text())
			if label == "" {
				label, _ = sel.Attr("value")
				label = strings.ToLower(label)
			}
			if containsAny(label, cartVerbs) {
				found = true
				return false
			}
			return true
		})
	return found
}

// hasSignupForm detects a form with an email input.
func hasSignupForm(doc *goquery.Document) bool {
	return doc.Find(`form input[type="email"]`).Length() > 0
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
