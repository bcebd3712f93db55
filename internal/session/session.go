// Package session drives an infinite-scroll search over one SearchClient.
//
// A Session owns its SearchResult. Pages are fetched in the background with
// SearchAsync, but only the session merges them, under its own mutex, so a
// caller never observes a result that is being written to.
package session

import (
	"context"
	"errors"
	"sync"

	"codeberg.org/snonux/nori/internal/booru"
	"codeberg.org/snonux/nori/internal/client"
	"codeberg.org/snonux/nori/internal/log"
)

// MaxEmptyPages bounds how many consecutive pages that filter down to
// nothing are fetched before LoadNext gives up and returns.
const MaxEmptyPages = 5

var (
	// ErrBusy is returned while another page fetch is outstanding
	ErrBusy = errors.New("a page fetch is already in progress")
	// ErrLastPage is returned once the backend has no further pages
	ErrLastPage = errors.New("no more pages")
	// ErrCancelled is returned when Cancel or a new Start overtakes a fetch
	ErrCancelled = errors.New("search cancelled")
	// ErrNotStarted is returned by LoadNext before Start
	ErrNotStarted = errors.New("search not started")
)

// Session is safe for concurrent use
type Session struct {
	client client.SearchClient

	mu         sync.Mutex
	filters    Filters
	result     *booru.SearchResult
	tags       string
	nextPage   int
	loading    bool
	cancelled  bool
	generation int
	abort      context.CancelFunc
}

// New creates an idle session
func New(c client.SearchClient, f Filters) *Session {
	return &Session{client: c, filters: f}
}

// Client returns the backend the session searches
func (s *Session) Client() client.SearchClient {
	return s.client
}

// Start discards any previous result and loads the first page of tags.
// A fetch still running for an earlier query is cancelled.
func (s *Session) Start(ctx context.Context, tags string) (int, error) {
	return s.StartAt(ctx, tags, 0)
}

// StartAt is Start beginning at page instead of the first page
func (s *Session) StartAt(ctx context.Context, tags string, page int) (int, error) {
	if page < 0 {
		page = 0
	}

	s.mu.Lock()
	if s.abort != nil {
		s.abort()
		s.abort = nil
	}
	s.generation++
	s.loading = false
	s.cancelled = false
	s.tags = tags
	s.nextPage = page
	s.result = booru.NewSearchResult(nil, booru.TagsFromString(tags), page)
	s.mu.Unlock()

	return s.LoadNext(ctx)
}

// LoadNext fetches the next page and merges it. It returns how many images
// became visible, which may be zero if every page up to MaxEmptyPages was
// filtered away.
func (s *Session) LoadNext(ctx context.Context) (int, error) {
	s.mu.Lock()
	switch {
	case s.result == nil:
		s.mu.Unlock()
		return 0, ErrNotStarted
	case s.cancelled:
		s.mu.Unlock()
		return 0, ErrCancelled
	case s.loading:
		s.mu.Unlock()
		return 0, ErrBusy
	case !s.result.HasNextPage():
		s.mu.Unlock()
		return 0, ErrLastPage
	}

	ctx, cancel := context.WithCancel(ctx)
	s.loading = true
	s.abort = cancel
	gen := s.generation
	tags := s.tags
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.generation == gen {
			s.loading = false
			s.abort = nil
		}
		s.mu.Unlock()
	}()

	logger := log.Ctx(ctx).With().
		Str(log.FieldService, s.client.Settings().Name).
		Str(log.FieldQuery, tags).
		Logger()

	added := 0
	for empty := 0; ; {
		s.mu.Lock()
		page := s.nextPage
		s.mu.Unlock()

		resp := <-s.client.SearchAsync(ctx, tags, page)

		s.mu.Lock()
		if s.cancelled || s.generation != gen {
			s.mu.Unlock()
			logger.Debug().Int(log.FieldPage, page).Msg("Discarding late page")
			return added, ErrCancelled
		}
		if resp.Err != nil {
			s.mu.Unlock()
			return added, resp.Err
		}

		before := s.result.Len()
		s.result.Merge(resp.Result)
		s.filters.Apply(s.result)
		s.nextPage = page + 1
		visible := s.result.Len() - before
		hasNext := s.result.HasNextPage()
		s.mu.Unlock()

		added += visible
		if visible > 0 || !hasNext {
			return added, nil
		}

		empty++
		if empty >= MaxEmptyPages {
			logger.Debug().Int(log.FieldPage, page).Msg("Giving up after filtered-out pages")
			return added, nil
		}
	}
}

// Cancel stops the outstanding fetch, if any. Its page is discarded.
// Start resets the cancelled state.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = true
	if s.abort != nil {
		s.abort()
		s.abort = nil
	}
}

// Loading reports whether a fetch is outstanding
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// HasNextPage reports whether LoadNext may return more images
func (s *Session) HasNextPage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result != nil && s.result.HasNextPage()
}

// SetFilters replaces the filters and applies them to what is loaded
func (s *Session) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = f
	if s.result != nil {
		f.Apply(s.result)
	}
}

// Result returns a snapshot of the merged, filtered result, or nil
// before Start.
func (s *Session) Result() *booru.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return nil
	}
	return s.result.Clone()
}
