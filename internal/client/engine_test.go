package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/nori/internal/log"
	"codeberg.org/snonux/nori/internal/testutil"
)

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, 100*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.wait(ctx); err != nil {
			t.Fatalf("wait() failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("Expected the third request to wait for the window, took %v", elapsed)
	}
}

func TestRateLimiterHonoursContext(t *testing.T) {
	rl := newRateLimiter(1, time.Hour)
	if err := rl.wait(context.Background()); err != nil {
		t.Fatalf("wait() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.Handle("/posts.json", &testutil.MockResponse{StatusCode: http.StatusBadGateway})

	c := newTestClient(t, APIDanbooru, server)
	for i := 0; i < breakerFailures; i++ {
		if _, err := c.Search(context.Background(), "cat", i); err == nil {
			t.Fatal("Expected an error from a failing backend")
		}
	}

	_, err := c.Search(context.Background(), "cat", 99)
	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *SearchError, got %v", err)
	}
	if se.Kind != KindUnavailable {
		t.Errorf("Expected open breaker to report unavailable, got %s", se.Kind)
	}
	if calls := len(server.Calls()); calls != breakerFailures {
		t.Errorf("Expected %d requests to reach the server, got %d", breakerFailures, calls)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.Handle("/posts.json", &testutil.MockResponse{StatusCode: http.StatusNotFound})

	c := newTestClient(t, APIDanbooru, server)
	for i := 0; i < breakerFailures+2; i++ {
		_, err := c.Search(context.Background(), "cat", i)
		var se *SearchError
		if !errors.As(err, &se) || se.Kind != KindStatus {
			t.Fatalf("Request %d: expected status error, got %v", i, err)
		}
	}
}

func TestConcurrentSearchesShareClient(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.HandleBody("/posts.json", "[]")

	c := newTestClient(t, APIDanbooru, server)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			if _, err := c.Search(context.Background(), "cat", page%3); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent search failed: %v", err)
	}
}

func TestRateLimiterQueuedCallerHonoursContext(t *testing.T) {
	rl := newRateLimiter(1, time.Hour)
	if err := rl.wait(context.Background()); err != nil {
		t.Fatalf("wait() failed: %v", err)
	}

	// a first queued caller sleeps for the whole window
	blockedCtx, cancelBlocked := context.WithCancel(context.Background())
	defer cancelBlocked()
	go rl.wait(blockedCtx)
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := rl.wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Queued caller ignored its context for %v", elapsed)
	}
}

func TestSharedRequestSurvivesCallerCancel(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		time.Sleep(150 * time.Millisecond)
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	c, err := New(Settings{APIType: APIDanbooru, Name: "slow", Endpoint: server.URL},
		WithLogger(log.Nop()), WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	respA := c.SearchAsync(ctxA, "cat", 0)
	time.Sleep(20 * time.Millisecond)
	respB := c.SearchAsync(context.Background(), "cat", 0)
	time.Sleep(20 * time.Millisecond)
	cancelA()

	if a := <-respA; !errors.Is(a.Err, context.Canceled) {
		t.Errorf("Expected the cancelled caller to see context.Canceled, got %v", a.Err)
	}
	if b := <-respB; b.Err != nil {
		t.Errorf("Expected the live caller to succeed, got %v", b.Err)
	}

	mu.Lock()
	defer mu.Unlock()
	if requests != 1 {
		t.Errorf("Expected one shared request, got %d", requests)
	}
}

func TestTransportErrorRedactsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(200 * time.Millisecond):
		}
	}))
	defer server.Close()

	var logs bytes.Buffer
	settings := Settings{
		APIType:  APIDanbooru,
		Name:     "auth",
		Endpoint: server.URL,
		Username: "alice",
		Password: "secret-key",
	}
	c, err := New(settings, WithLogger(zerolog.New(&logs)), WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	_, err = c.Search(context.Background(), "cat", 0)
	var se *SearchError
	if !errors.As(err, &se) {
		t.Fatalf("Expected *SearchError, got %v", err)
	}
	if se.Kind != KindTimeout {
		t.Errorf("Expected a timeout, got %s", se.Kind)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Errorf("Error text leaks the API key: %s", err)
	}
	if strings.Contains(logs.String(), "secret-key") {
		t.Errorf("Log leaks the API key: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "search request failed") {
		t.Errorf("Expected the failure to be logged, got %q", logs.String())
	}
}
