// Package clienttest provides an in-memory SearchClient for tests of code
// built on top of package client.
package clienttest

import (
	"context"
	"sync"

	"codeberg.org/snonux/nori/internal/booru"
	"codeberg.org/snonux/nori/internal/client"
)

// Call records one search request
type Call struct {
	Tags string
	Page int
}

// Fake serves canned pages. Pages not in Pages come back empty.
type Fake struct {
	Config client.Settings
	Pages  map[int][]booru.Image
	Err    error
	Query  string
	Auth   client.AuthenticationType

	// Gate, when set, blocks every search until it is closed or receives
	Gate chan struct{}

	mu    sync.Mutex
	calls []Call
}

var _ client.SearchClient = (*Fake)(nil)

// Search blocks on SearchAsync
func (f *Fake) Search(ctx context.Context, tags string, page int) (*booru.SearchResult, error) {
	resp := <-f.SearchAsync(ctx, tags, page)
	return resp.Result, resp.Err
}

// SearchAsync returns the canned page for page
func (f *Fake) SearchAsync(ctx context.Context, tags string, page int) <-chan client.Response {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Tags: tags, Page: page})
	f.mu.Unlock()

	ch := make(chan client.Response, 1)
	go func() {
		defer close(ch)
		if f.Gate != nil {
			select {
			case <-f.Gate:
			case <-ctx.Done():
				ch <- client.Response{Err: &client.SearchError{Backend: "fake", Kind: client.KindTimeout, Err: ctx.Err()}}
				return
			}
		}
		if f.Err != nil {
			ch <- client.Response{Err: f.Err}
			return
		}
		images := append([]booru.Image(nil), f.Pages[page]...)
		ch <- client.Response{Result: booru.NewSearchResult(images, booru.TagsFromString(tags), page)}
	}()
	return ch
}

// DefaultQuery returns Query
func (f *Fake) DefaultQuery() string {
	return f.Query
}

// RequiresAuthentication returns Auth
func (f *Fake) RequiresAuthentication() client.AuthenticationType {
	return f.Auth
}

// Settings returns Config
func (f *Fake) Settings() client.Settings {
	return f.Config
}

// Calls returns the searches made so far
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
