package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"codeberg.org/snonux/nori/internal"
	"codeberg.org/snonux/nori/internal/booru"
	"codeberg.org/snonux/nori/internal/log"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 16 << 20
	maxErrorBody   = 256

	breakerFailures = 5
	breakerTimeout  = 30 * time.Second
)

// backend is the request/parse pair each API family provides
type backend interface {
	searchURL(tags string, page, limit int) string
	parse(body []byte, tags string, page int) ([]booru.Image, error)
}

// engine does the transport work shared by all backends: the async search
// primitive, HTTP, circuit breaking, request collapsing and pacing.
type engine struct {
	name     string
	settings Settings
	backend  backend
	limit    int
	timeout  time.Duration

	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	group      singleflight.Group
	rateLimit  *rateLimiter
	logger     zerolog.Logger
}

func newEngine(name string, settings Settings, be backend, opts *options, defaultLimit int) *engine {
	limit := defaultLimit
	if opts.pageSize > 0 {
		limit = opts.pageSize
	}

	httpClient := opts.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.timeout}
	}

	return &engine{
		name:       name,
		settings:   settings,
		backend:    be,
		limit:      limit,
		timeout:    opts.timeout,
		httpClient: httpClient,
		breaker:    newBreaker(settings.Name),
		logger:     opts.logger.With().Str(log.FieldBackend, name).Str(log.FieldService, settings.Name).Logger(),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		IsSuccessful: func(err error) bool {
			// only server-side trouble counts against the backend
			var status *StatusError
			if errors.As(err, &status) {
				return status.Code < http.StatusInternalServerError
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// Settings returns the descriptor this client was built from
func (e *engine) Settings() Settings {
	return e.settings
}

// Search blocks on SearchAsync
func (e *engine) Search(ctx context.Context, tags string, page int) (*booru.SearchResult, error) {
	resp := <-e.SearchAsync(ctx, tags, page)
	return resp.Result, resp.Err
}

// SearchAsync fetches and parses one page in the background
func (e *engine) SearchAsync(ctx context.Context, tags string, page int) <-chan Response {
	ch := make(chan Response, 1)
	go func() {
		defer close(ch)
		result, err := e.fetchPage(ctx, tags, page)
		if err != nil {
			ch <- Response{Err: err}
			return
		}
		ch <- Response{Result: result}
	}()
	return ch
}

func (e *engine) fetchPage(ctx context.Context, tags string, page int) (*booru.SearchResult, error) {
	if page < 0 {
		page = 0
	}

	reqURL := e.backend.searchURL(tags, page, e.limit)
	body, err := e.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	images, err := e.backend.parse(body, tags, page)
	if err != nil {
		e.logger.Warn().Err(err).Str(log.FieldURL, redactURL(reqURL)).Msg("failed to parse response")
		return nil, parseError(e.name, reqURL, err)
	}

	e.logger.Debug().
		Str(log.FieldQuery, tags).
		Int(log.FieldPage, page).
		Int(log.FieldImages, len(images)).
		Msg("search page fetched")

	return booru.NewSearchResult(images, booru.TagsFromString(tags), page), nil
}

// get fetches reqURL through the breaker. Identical requests in flight share
// one round trip, detached from the callers' cancellation and bounded by the
// request timeout. Each caller returns as soon as its own ctx is done.
func (e *engine) get(ctx context.Context, reqURL string) ([]byte, error) {
	ch := e.group.DoChan(reqURL, func() (interface{}, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.requestTimeout())
		defer cancel()
		return e.breaker.Execute(func() (interface{}, error) {
			return e.do(sctx, reqURL)
		})
	})

	select {
	case <-ctx.Done():
		return nil, newSearchError(e.name, reqURL, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			e.logger.Warn().Err(res.Err).Str(log.FieldURL, redactURL(reqURL)).Msg("search request failed")
			return nil, newSearchError(e.name, reqURL, res.Err)
		}
		return res.Val.([]byte), nil
	}
}

func (e *engine) requestTimeout() time.Duration {
	if e.timeout > 0 {
		return e.timeout
	}
	return defaultTimeout
}

func (e *engine) do(ctx context.Context, reqURL string) ([]byte, error) {
	if e.rateLimit != nil {
		if err := e.rateLimit.wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", internal.UserAgent())

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = redactURL(ue.URL)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	e.logger.Debug().
		Str(log.FieldURL, redactURL(reqURL)).
		Int(log.FieldStatus, resp.StatusCode).
		Int64(log.FieldLatency, time.Since(start).Milliseconds()).
		Msg("search request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// rateLimiter paces requests to at most limit per window
type rateLimiter struct {
	mu       sync.Mutex
	limit    int
	window   time.Duration
	requests []time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:    limit,
		window:   window,
		requests: make([]time.Time, 0, limit),
	}
}

// wait reserves the next free slot and sleeps until it starts. The lock is
// only held while reserving, so every queued caller can honour its own ctx.
func (rl *rateLimiter) wait(ctx context.Context) error {
	rl.mu.Lock()
	now := time.Now()

	// Drop requests that left the window
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.requests) && rl.requests[i].Before(cutoff) {
		i++
	}
	rl.requests = rl.requests[i:]

	slot := now
	if n := len(rl.requests); n >= rl.limit {
		if next := rl.requests[n-rl.limit].Add(rl.window); next.After(slot) {
			slot = next
		}
	}
	rl.requests = append(rl.requests, slot)
	rl.mu.Unlock()

	waitDuration := time.Until(slot)
	if waitDuration <= 0 {
		return nil
	}

	timer := time.NewTimer(waitDuration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		rl.release(slot)
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// release gives back a slot reserved by a caller that stopped waiting
func (rl *rateLimiter) release(slot time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for i, t := range rl.requests {
		if t.Equal(slot) {
			rl.requests = append(rl.requests[:i], rl.requests[i+1:]...)
			return
		}
	}
}
