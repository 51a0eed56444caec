package collect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/preview-pipeline/internal/model"
)

const productHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Rocket Skates | Acme Store</title>
  <meta property="og:title" content="Acme Rocket Skates Mk2">
  <meta property="og:description" content="Strap-on rocket propulsion for the discerning coyote.">
  <meta property="og:image" content="/img/skates.png">
  <meta property="og:type" content="product">
  <meta name="keywords" content="rockets, skates, acme">
  <meta name="theme-color" content="#ff6600">
  <script type="application/ld+json">
    {"@context": "https://schema.org", "@type": "Product", "name": "Rocket Skates"}
  </script>
</head>
<body>
  <h1>Rocket Skates Mk2</h1>
  <p>Price: $49.99</p>
  <button>Add to Cart</button>
</body>
</html>`

func TestMarkup_ExtractProductPage(t *testing.T) {
	res, err := NewMarkup().Extract(Page{URL: "https://store.example.com/products/skates", HTML: productHTML})
	require.NoError(t, err)

	assert.Equal(t, "Acme Rocket Skates Mk2", res.Title)
	assert.Equal(t, "Strap-on rocket propulsion for the discerning coyote.", res.Description)
	assert.Equal(t, "https://store.example.com/img/skates.png", res.ImageURL)
	assert.Equal(t, "product", res.OGType)
	assert.Contains(t, res.JSONLDTypes, "Product")
	assert.Equal(t, []string{"rockets", "skates", "acme"}, res.Keywords)
	assert.Equal(t, "#ff6600", res.ThemeColor)
}

func TestMarkup_CandidateConfidences(t *testing.T) {
	res, err := NewMarkup().Extract(Page{URL: "https://store.example.com/p", HTML: productHTML})
	require.NoError(t, err)

	confidences := make(map[string]map[string]float64)
	for _, c := range res.Candidates {
		if confidences[c.Field] == nil {
			confidences[c.Field] = make(map[string]float64)
		}
		confidences[c.Field][c.Value] = c.Confidence
		assert.Equal(t, model.SourceMarkup, c.Source)
	}

	assert.Equal(t, 0.9, confidences[model.FieldTitle]["Acme Rocket Skates Mk2"])
	assert.Equal(t, 0.75, confidences[model.FieldTitle]["Rocket Skates | Acme Store"])
	assert.Equal(t, 0.7, confidences[model.FieldColors]["#ff6600"])
}

func TestMarkup_H1FallbackWhenNoTitleTags(t *testing.T) {
	html := `<html><head></head><body><h1>Plain Heading</h1></body></html>`
	res, err := NewMarkup().Extract(Page{URL: "https://example.com", HTML: html})
	require.NoError(t, err)

	assert.Equal(t, "Plain Heading", res.Title)
	var titleCands []model.ExtractionCandidate
	for _, c := range res.Candidates {
		if c.Field == model.FieldTitle {
			titleCands = append(titleCands, c)
		}
	}
	require.Len(t, titleCands, 1)
	assert.Equal(t, 0.7, titleCands[0].Confidence)
}

func TestMarkup_EmptyHTMLErrors(t *testing.T) {
	_, err := NewMarkup().Extract(Page{URL: "https://example.com", HTML: "   "})
	assert.Error(t, err)
}

func TestMarkup_GraphJSONLD(t *testing.T) {
	html := `<html><head><script type="application/ld+json">
	{"@graph": [{"@type": "Person", "name": "Jane"}, {"@type": ["WebPage", "AboutPage"]}]}
	</script></head><body></body></html>`

	res, err := NewMarkup().Extract(Page{URL: "https://example.com", HTML: html})
	require.NoError(t, err)

	assert.Contains(t, res.JSONLDTypes, "Person")
	assert.Contains(t, res.JSONLDTypes, "WebPage")
	assert.Contains(t, res.JSONLDTypes, "AboutPage")
}

func TestStructure_ProductIndicators(t *testing.T) {
	ind := NewStructure().Analyze(Page{URL: "https://example.com", HTML: productHTML})

	assert.True(t, ind.HasPrice)
	assert.True(t, ind.HasAddToCart)
	assert.False(t, ind.HasBio)
	assert.False(t, ind.HasSignupForm)
	assert.Equal(t, 1, ind.HeadingCount)
}

func TestStructure_SignupForm(t *testing.T) {
	html := `<html><body><form><input type="email" name="email"><button>Join</button></form></body></html>`
	ind := NewStructure().Analyze(Page{URL: "https://example.com", HTML: html})

	assert.True(t, ind.HasSignupForm)
	assert.Equal(t, 1, ind.FormCount)
}

func TestStructure_EmptyHTMLNeverFails(t *testing.T) {
	ind := NewStructure().Analyze(Page{URL: "https://example.com"})

	require.NotNil(t, ind)
	assert.False(t, ind.HasPrice)
	assert.Equal(t, 0, ind.HeadingCount)
}
