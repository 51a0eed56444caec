package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// TransientError wraps an error that is safe to retry (e.g., 5xx, network
// timeout). Rate limits are NOT transient here; see RateLimitError.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// RateLimitError marks a rate-limited upstream response. It is surfaced
// upward as a distinct condition and never silently retried by the layer
// that produced it.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string {
	return "rate limited: " + e.Err.Error()
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether the error chain contains a RateLimitError.
func IsRateLimited(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// CaptureError marks a failed screenshot capture. The pipeline continues
// markup-only when it sees one.
type CaptureError struct {
	URL string
	Err error
}

func (e *CaptureError) Error() string {
	return "capture failed for " + e.URL + ": " + e.Err.Error()
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// IsCaptureFailed reports whether the error chain contains a CaptureError.
func IsCaptureFailed(err error) bool {
	var ce *CaptureError
	return errors.As(err, &ce)
}

// MalformedResponseError marks an upstream response that could not be
// parsed into the expected shape. It triggers fallback to the next
// tier/step, never a retry of the same one.
type MalformedResponseError struct {
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return "malformed response: " + e.Detail
}

// IsMalformed reports whether the error chain contains a MalformedResponseError.
func IsMalformed(err error) bool {
	var me *MalformedResponseError
	return errors.As(err, &me)
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient network patterns.
// Rate-limit, capture and malformed-response errors are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if IsRateLimited(err) || IsCaptureFailed(err) || IsMalformed(err) {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry. 429 is excluded:
// rate limits are classified separately.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, // Request Timeout
		500, // Internal Server Error
		502, // Bad Gateway
		503, // Service Unavailable
		504: // Gateway Timeout
		return true
	default:
		return false
	}
}
