package collect

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/model"
)

// MarkupResult holds everything the structural-markup extractor found,
// both the candidate values and the typed hints the classifier consumes.
type MarkupResult struct {
	Title       string
	Description string
	ImageURL    string
	ThemeColor  string
	Keywords    []string
	OGType      string
	JSONLDTypes []string
	Headings    []string
	Candidates  []model.ExtractionCandidate
}

// Markup extracts titles, descriptions, image refs and type hints from
// document metadata: OpenGraph, Twitter cards, JSON-LD, plain meta tags
// and headings, with a readability pass as the description fallback.
type Markup struct{}

// NewMarkup creates the markup extractor.
func NewMarkup() *Markup {
	return &Markup{}
}

// Extract parses the page HTML. It fails only when the HTML cannot be
// parsed at all; thin or metadata-free pages return an empty result.
func (m *Markup) Extract(page Page) (*MarkupResult, error) {
	if strings.TrimSpace(page.HTML) == "" {
		return nil, eris.New("markup: empty document")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, eris.Wrap(err, "markup: parse document")
	}

	res := &MarkupResult{}

	meta := func(names ...string) string {
		for _, n := range names {
			if v, ok := doc.Find(`meta[property="` + n + `"]`).Attr("content"); ok && v != "" {
				return strings.TrimSpace(v)
			}
			if v, ok := doc.Find(`meta[name="` + n + `"]`).Attr("content"); ok && v != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	// Title candidates, strongest hint first.
	ogTitle := meta("og:title", "twitter:title")
	docTitle := strings.TrimSpace(doc.Find("title").First().Text())
	h1 := strings.TrimSpace(doc.Find("h1").First().Text())

	res.Title = firstNonEmpty(ogTitle, docTitle, h1)
	addCandidate(res, model.FieldTitle, ogTitle, 0.9)
	addCandidate(res, model.FieldTitle, docTitle, 0.75)
	if ogTitle == "" && docTitle == "" {
		addCandidate(res, model.FieldTitle, h1, 0.7)
	}

	// Description candidates.
	ogDesc := meta("og:description", "twitter:description")
	metaDesc := meta("description")
	res.Description = firstNonEmpty(ogDesc, metaDesc)
	addCandidate(res, model.FieldDescription, ogDesc, 0.85)
	addCandidate(res, model.FieldDescription, metaDesc, 0.8)

	// Readability fallback: pull an excerpt from the main content when
	// the page carries no meta description.
	if res.Description == "" {
		if excerpt := readableExcerpt(page); excerpt != "" {
			res.Description = excerpt
			addCandidate(res, model.FieldDescription, excerpt, 0.6)
		}
	}

	// Image refs.
	ogImage := meta("og:image", "twitter:image")
	res.ImageURL = resolveRef(page.URL, ogImage)
	addCandidate(res, model.FieldImage, res.ImageURL, 0.85)
	if res.ImageURL == "" {
		if icon, ok := doc.Find(`link[rel="apple-touch-icon"], link[rel="icon"]`).Attr("href"); ok {
			res.ImageURL = resolveRef(page.URL, icon)
			addCandidate(res, model.FieldImage, res.ImageURL, 0.4)
		}
	}

	// Colors and keywords.
	res.ThemeColor = meta("theme-color", "msapplication-TileColor")
	addCandidate(res, model.FieldColors, res.ThemeColor, 0.7)

	if kw := meta("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				res.Keywords = append(res.Keywords, k)
			}
		}
		if len(res.Keywords) > 0 {
			addCandidate(res, model.FieldTags, strings.Join(res.Keywords, ","), 0.6)
		}
	}

	// Classifier hints.
	res.OGType = meta("og:type")
	res.JSONLDTypes = jsonLDTypes(doc)
	doc.Find("h1, h2").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" && len(res.Headings) < 10 {
			res.Headings = append(res.Headings, t)
		}
	})

	zap.L().Debug("markup: extracted",
		zap.String("url", page.URL),
		zap.Int("candidates", len(res.Candidates)),
		zap.String("og_type", res.OGType),
	)

	return res, nil
}

// readableExcerpt runs go-readability over the page and trims the result
// to a description-sized snippet.
func readableExcerpt(page Page) string {
	u, err := url.Parse(page.URL)
	if err != nil {
		u = nil
	}
	article, err := readability.FromReader(strings.NewReader(page.HTML), u)
	if err != nil {
		return ""
	}

	text := strings.TrimSpace(article.Excerpt)
	if text == "" {
		text = strings.Join(strings.Fields(article.TextContent), " ")
	}
	if len(text) > 200 {
		cut := text[:200]
		if idx := strings.LastIndex(cut, " "); idx > 100 {
			cut = cut[:idx]
		}
		text = cut + "…"
	}
	return text
}

// jsonLDTypes collects @type values from ld+json script blocks. Malformed
// blocks are skipped, not errors.
func jsonLDTypes(doc *goquery.Document) []string {
	var types []string
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		collectTypes(payload, &types)
	})
	return types
}

func collectTypes(v any, out *[]string) {
	switch t := v.(type) {
	case map[string]any:
		switch typ := t["@type"].(type) {
		case string:
			*out = append(*out, typ)
		case []any:
			for _, x := range typ {
				if s, ok := x.(string); ok {
					*out = append(*out, s)
				}
			}
		}
		if g, ok := t["@graph"]; ok {
			collectTypes(g, out)
		}
	case []any:
		for _, x := range t {
			collectTypes(x, out)
		}
	}
}

// resolveRef makes a possibly-relative reference absolute against the
// page URL. Returns "" for empty input.
func resolveRef(pageURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(r).String()
}

func addCandidate(res *MarkupResult, field, value string, conf float64) {
	if strings.TrimSpace(value) == "" {
		return
	}
	res.Candidates = append(res.Candidates, model.ExtractionCandidate{
		Source:     model.SourceMarkup,
		Field:      field,
		Value:      strings.TrimSpace(value),
		Confidence: conf,
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
