// Package capture talks to the headless-browser sidecar that renders a
// page and returns its screenshot and document HTML.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the capture sidecar.
const defaultBaseURL = "http://localhost:3300"

// Client defines the capture sidecar operations.
type Client interface {
	Capture(ctx context.Context, req Request) (*Result, error)
}

// Request is the body for POST /capture.
type Request struct {
	URL      string `json:"url"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	FullPage bool   `json:"full_page,omitempty"`
}

// Result is one rendered page: the viewport screenshot (base64 PNG) and
// the post-render document HTML.
type Result struct {
	URL        string `json:"url"`
	Screenshot string `json:"screenshot"`
	MediaType  string `json:"media_type"`
	HTML       string `json:"html"`
	StatusCode int    `json:"status_code"`
}

// APIError is returned when the sidecar responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("capture: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a capture client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Capture(ctx context.Context, req Request) (*Result, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "capture: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/capture", bytes.NewReader(buf))
	if err != nil {
		return nil, eris.Wrap(err, "capture: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "capture: execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, eris.Wrap(err, "capture: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var out Result
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "capture: decode response")
	}
	if out.MediaType == "" {
		out.MediaType = "image/png"
	}
	return &out, nil
}
