package client

import (
	"context"

	"codeberg.org/snonux/nori/internal/booru"
)

// AuthenticationType tells a caller whether to prompt for credentials
type AuthenticationType int

const (
	// AuthRequired means searches fail without valid credentials
	AuthRequired AuthenticationType = iota
	// AuthOptional means credentials are accepted but not needed
	AuthOptional
	// AuthNone means the backend never uses credentials
	AuthNone
)

func (a AuthenticationType) String() string {
	switch a {
	case AuthRequired:
		return "required"
	case AuthOptional:
		return "optional"
	default:
		return "none"
	}
}

// Response carries the outcome of an asynchronous search
type Response struct {
	Result *booru.SearchResult
	Err    error
}

// Callback receives either a result or a *SearchError, never both
type Callback func(result *booru.SearchResult, err error)

// SearchClient defines the interface every booru backend satisfies
type SearchClient interface {
	// Search fetches one page (0-indexed) of results for a space-separated
	// tag query and blocks until it is parsed.
	Search(ctx context.Context, tags string, page int) (*booru.SearchResult, error)

	// SearchAsync starts the same request in the background. The channel
	// yields exactly one Response and is then closed.
	SearchAsync(ctx context.Context, tags string, page int) <-chan Response

	// DefaultQuery is a work-safe query to show on first launch
	DefaultQuery() string

	// RequiresAuthentication reports how the backend uses credentials
	RequiresAuthentication() AuthenticationType

	// Settings returns the descriptor this client was built from
	Settings() Settings
}

// SearchFirst fetches the first page of results
func SearchFirst(ctx context.Context, c SearchClient, tags string) (*booru.SearchResult, error) {
	return c.Search(ctx, tags, 0)
}

// SearchWithCallback runs a search in the background and hands the outcome
// to cb. cb runs on an unspecified goroutine.
func SearchWithCallback(ctx context.Context, c SearchClient, tags string, page int, cb Callback) {
	ch := c.SearchAsync(ctx, tags, page)
	go func() {
		resp := <-ch
		cb(resp.Result, resp.Err)
	}()
}
