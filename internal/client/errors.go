package client

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sony/gobreaker"
)

// ErrUnknownAPIType is returned for API types outside the supported set
var ErrUnknownAPIType = errors.New("unknown API type")

// Kind is a diagnostic hint about what went wrong. Callers should treat every
// *SearchError alike; Kind exists for logs and error messages.
type Kind int

const (
	KindNetwork Kind = iota
	KindTimeout
	KindStatus
	KindParse
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "http status"
	case KindParse:
		return "malformed response"
	case KindUnavailable:
		return "service unavailable"
	default:
		return "network"
	}
}

// SearchError is the single error kind returned by every SearchClient
type SearchError struct {
	Backend string
	URL     string // credentials redacted
	Kind    Kind
	Err     error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Kind, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// StatusError is the cause of a SearchError for non-200 responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// newSearchError wraps err, picking the Kind from its cause
func newSearchError(backend, rawURL string, err error) *SearchError {
	var se *SearchError
	if errors.As(err, &se) {
		return se
	}
	return &SearchError{
		Backend: backend,
		URL:     redactURL(rawURL),
		Kind:    classify(err),
		Err:     err,
	}
}

func classify(err error) Kind {
	var status *StatusError
	var netErr net.Error
	switch {
	case errors.As(err, &status):
		return KindStatus
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return KindUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	default:
		return KindNetwork
	}
}

// parseError builds the error returned when a response body can't be used
func parseError(backend, rawURL string, err error) *SearchError {
	return &SearchError{
		Backend: backend,
		URL:     redactURL(rawURL),
		Kind:    KindParse,
		Err:     err,
	}
}
