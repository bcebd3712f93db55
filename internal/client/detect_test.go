package client

import (
	"context"
	"net/http"
	"testing"
	"time"

	"codeberg.org/snonux/nori/internal/testutil"
)

const probeTimeout = 2 * time.Second

func TestDetectServiceNotFound(t *testing.T) {
	server := testutil.NewMockServer(t)

	for _, apiType := range AllAPITypes() {
		if got := DetectService(context.Background(), apiType, server.URL, probeTimeout); got != "" {
			t.Errorf("%s: expected no endpoint on 404, got %q", apiType, got)
		}
	}
}

func TestDetectServiceFound(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.HandleBody("/search.json", `{"search":[]}`)

	got := DetectService(context.Background(), APIDerpibooru, server.URL+"/", probeTimeout)
	if got != server.URL {
		t.Errorf("Expected %q, got %q", server.URL, got)
	}

	q := server.LastQuery()
	if q.Get("perpage") != "1" || q.Get("q") != "*" {
		t.Errorf("Expected a minimal probe, got %v", q)
	}
	if server.LastHeader().Get("Cache-Control") != "no-cache" {
		t.Error("Expected the probe to bypass caches")
	}
}

func TestDetectServiceDoesNotFollowRedirects(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.Handle("/posts.json", &testutil.MockResponse{
		StatusCode: http.StatusFound,
		Headers:    map[string]string{"Location": "/login"},
	})
	server.HandleBody("/login", "ok")

	if got := DetectService(context.Background(), APIDanbooru, server.URL, probeTimeout); got != "" {
		t.Errorf("Expected a redirect to fail detection, got %q", got)
	}
	if calls := server.Calls(); len(calls) != 1 {
		t.Errorf("Expected exactly one request, got %v", calls)
	}
}

func TestDetectServiceUnreachable(t *testing.T) {
	server := testutil.NewMockServer(t)
	url := server.URL
	server.Close()

	if got := DetectService(context.Background(), APIDanbooru, url, probeTimeout); got != "" {
		t.Errorf("Expected no endpoint for a dead server, got %q", got)
	}
	if got := DetectService(context.Background(), APIFlickr, "https://api.flickr.com", probeTimeout); got != "" {
		t.Errorf("Expected flickr to be undetectable, got %q", got)
	}
	if got := DetectService(context.Background(), APIDanbooru, "  ", probeTimeout); got != "" {
		t.Errorf("Expected blank url to be rejected, got %q", got)
	}
}

func TestDetectServiceType(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  APIType
	}{
		{"gelbooru", []string{"/index.php"}, APIGelbooru},
		{"shimmie", []string{"/api/danbooru/find_posts/index.xml"}, APIShimmie},
		{"legacy", []string{"/post/index.xml"}, APIDanbooruLegacy},
		// some sites answer both; the newer API wins
		{"danbooru over legacy", []string{"/post/index.xml", "/posts.json"}, APIDanbooru},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewMockServer(t)
			for _, p := range tt.paths {
				server.HandleBody(p, "ok")
			}

			got, endpoint, ok := DetectServiceType(context.Background(), server.URL, probeTimeout)
			if !ok {
				t.Fatal("Expected a detected service")
			}
			if got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			if endpoint != server.URL {
				t.Errorf("Expected endpoint %q, got %q", server.URL, endpoint)
			}
		})
	}
}

func TestDetectServiceTypeNothing(t *testing.T) {
	server := testutil.NewMockServer(t)
	if _, _, ok := DetectServiceType(context.Background(), server.URL, probeTimeout); ok {
		t.Error("Expected nothing to be detected")
	}
}
