// Package reasoning adapts the Anthropic API as the pipeline's external
// multimodal reasoning service: it sends a page screenshot plus a
// schema-bearing prompt and returns the raw text of the model's reply.
package reasoning

import (
	"context"
	"encoding/base64"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/preview-pipeline/internal/monitoring"
	"github.com/sells-group/preview-pipeline/internal/resilience"
)

// Client defines the reasoning-service operations used by the pipeline.
type Client interface {
	// Interpret sends a screenshot (optional) and prompt, returning the
	// model's text reply. Rate-limit errors come back as
	// *resilience.RateLimitError and are not retried here.
	Interpret(ctx context.Context, req Request) (*Response, error)
}

// Request is one reasoning call.
type Request struct {
	Prompt     string
	System     string
	Screenshot []byte // PNG bytes; omitted from the message when empty
	MediaType  string // defaults to image/png
}

// Response is the model's reply.
type Response struct {
	Text  string
	Model string
	Usage TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
}

// EstimateCost computes an estimated cost in USD from a TokenUsage and
// model ID. Returns 0 for unknown models.
func (u TokenUsage) EstimateCost(model string) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	inCost := (float64(u.InputTokens) / 1e6) * pricing[0]
	outCost := (float64(u.OutputTokens) / 1e6) * pricing[1]
	return inCost + outCost
}

// LogCost logs token usage and estimated cost with structured zap fields.
func (u TokenUsage) LogCost(model, phase string) {
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Float64("estimated_cost_usd", u.EstimateCost(model)),
	)
}

// Options configure the SDK-backed client.
type Options struct {
	Model      string
	MaxTokens  int64
	RatePerSec float64 // client-side limiter; 0 disables
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client  sdk.Client
	model   string
	maxTok  int64
	limiter *rate.Limiter
}

// NewClient creates a reasoning client backed by the Anthropic SDK.
func NewClient(apiKey string, opts Options) Client {
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = 1024
	}
	var limiter *rate.Limiter
	if opts.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:   opts.Model,
		maxTok:  maxTok,
		limiter: limiter,
	}
}

func (c *sdkClient) Interpret(ctx context.Context, req Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "reasoning: limiter wait")
		}
	}

	var blocks []sdk.ContentBlockParamUnion
	if len(req.Screenshot) > 0 {
		mediaType := req.MediaType
		if mediaType == "" {
			mediaType = "image/png"
		}
		encoded := base64.StdEncoding.EncodeToString(req.Screenshot)
		blocks = append(blocks, sdk.NewImageBlockBase64(mediaType, encoded))
	}
	blocks = append(blocks, sdk.NewTextBlock(req.Prompt))

	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTok,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(blocks...),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		if isRateLimit(err) {
			return nil, &resilience.RateLimitError{Err: err}
		}
		return nil, eris.Wrap(err, "reasoning: create message")
	}

	var parts []string
	for _, b := range msg.Content {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}

	resp := &Response{
		Text:  strings.Join(parts, "\n"),
		Model: string(msg.Model),
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}
	resp.Usage.LogCost(resp.Model, "interpret")
	monitoring.ReasoningTokens.WithLabelValues("input").Add(float64(resp.Usage.InputTokens))
	monitoring.ReasoningTokens.WithLabelValues("output").Add(float64(resp.Usage.OutputTokens))

	return resp, nil
}

// isRateLimit checks for an HTTP 429 from the SDK.
func isRateLimit(err error) bool {
	var apiErr *sdk.Error
	if eris.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
