package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/preview-pipeline/internal/model"
	"github.com/sells-group/preview-pipeline/internal/resilience"
	"github.com/sells-group/preview-pipeline/pkg/reasoning"
)

const visionSystemPrompt = `You are a web page analyst. Given a screenshot of a page, you extract preview content. Always respond with a single valid JSON object and nothing else.`

const visionPromptTemplate = `Analyze this page screenshot and extract preview content.

Page URL: %s

Respond with a JSON object matching exactly this schema:
{
  "title": "<concise page title, 10-200 chars>",
  "description": "<one or two sentence summary>",
  "tags": ["<up to 5 topical tags>"],
  "category": "<one of: product, profile, article, service, landing, portfolio, event, course>",
  "is_individual": <true if the page is about a single person, else false>,
  "primary_color": "<dominant brand color as #rrggbb>",
  "secondary_color": "<secondary color as #rrggbb or empty string>",
  "confidence": <0.0-1.0 your confidence in this extraction>
}`

// defaultVisionConfidence is inserted when the model omits a numeric
// confidence. A hardcoded placeholder, not a computed value; the record
// carries a warning whenever it is used.
const defaultVisionConfidence = 0.6

// VisionResult is the parsed reasoning-service extraction.
type VisionResult struct {
	Title          string
	Description    string
	Tags           []string
	Category       string
	IsIndividual   *bool
	PrimaryColor   string
	SecondaryColor string
	Confidence     float64
	Warnings       []string
	Candidates     []model.ExtractionCandidate
}

// Vision is the reasoning-service collector: screenshot in, structured
// preview guesses out.
type Vision struct {
	client reasoning.Client
}

// NewVision creates the vision collector.
func NewVision(client reasoning.Client) *Vision {
	return &Vision{client: client}
}

// Extract sends the screenshot and parses the structured reply. Errors:
// *resilience.RateLimitError passes through untouched;
// *resilience.MalformedResponseError when no JSON object can be parsed.
func (v *Vision) Extract(ctx context.Context, page Page) (*VisionResult, error) {
	if len(page.Screenshot) == 0 {
		return nil, eris.New("vision: no screenshot available")
	}

	resp, err := v.client.Interpret(ctx, reasoning.Request{
		System:     visionSystemPrompt,
		Prompt:     fmt.Sprintf(visionPromptTemplate, page.URL),
		Screenshot: page.Screenshot,
	})
	if err != nil {
		if resilience.IsRateLimited(err) {
			return nil, err
		}
		return nil, eris.Wrap(err, "vision: interpret")
	}

	return parseVisionResponse(page.URL, resp.Text)
}

// parseVisionResponse tolerates prose and code fences around the JSON.
func parseVisionResponse(pageURL, text string) (*VisionResult, error) {
	raw := reasoning.ExtractJSON(text)
	if raw == "" {
		return nil, &resilience.MalformedResponseError{Detail: "no JSON object in reply"}
	}

	var payload struct {
		Title          string   `json:"title"`
		Description    string   `json:"description"`
		Tags           []string `json:"tags"`
		Category       string   `json:"category"`
		IsIndividual   *bool    `json:"is_individual"`
		PrimaryColor   string   `json:"primary_color"`
		SecondaryColor string   `json:"secondary_color"`
		Confidence     *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &resilience.MalformedResponseError{Detail: "unparseable JSON: " + err.Error()}
	}

	res := &VisionResult{
		Title:          strings.TrimSpace(payload.Title),
		Description:    strings.TrimSpace(payload.Description),
		Tags:           payload.Tags,
		Category:       payload.Category,
		IsIndividual:   payload.IsIndividual,
		PrimaryColor:   payload.PrimaryColor,
		SecondaryColor: payload.SecondaryColor,
	}

	if payload.Confidence != nil && *payload.Confidence > 0 {
		res.Confidence = clamp01(*payload.Confidence)
	} else {
		res.Confidence = defaultVisionConfidence
		res.Warnings = append(res.Warnings, "vision: confidence missing, defaulted to 0.6")
		zap.L().Warn("vision: reply omitted confidence, using default",
			zap.String("url", pageURL),
		)
	}

	add := func(field, value string) {
		if value == "" {
			return
		}
		res.Candidates = append(res.Candidates, model.ExtractionCandidate{
			Source:     model.SourceReasoning,
			Field:      field,
			Value:      value,
			Confidence: res.Confidence,
		})
	}
	add(model.FieldTitle, res.Title)
	add(model.FieldDescription, res.Description)
	if len(res.Tags) > 0 {
		add(model.FieldTags, strings.Join(res.Tags, ","))
	}
	add(model.FieldColors, res.PrimaryColor)

	return res, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
