package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"codeberg.org/snonux/nori/internal/booru"
)

// MockResponse represents a mocked HTTP response
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockServer is an httptest server answering by request path. Unknown paths
// get a 404.
type MockServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]*MockResponse
	calls     []*url.URL
	headers   []http.Header
}

// NewMockServer starts a server that is closed when the test ends
func NewMockServer(t *testing.T) *MockServer {
	t.Helper()

	m := &MockServer{responses: make(map[string]*MockResponse)}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

// Handle sets the response for path
func (m *MockServer) Handle(path string, resp *MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = resp
}

// HandleBody answers path with 200 and body
func (m *MockServer) HandleBody(path, body string) {
	m.Handle(path, &MockResponse{StatusCode: http.StatusOK, Body: body})
}

// Calls returns the request URIs received so far
func (m *MockServer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]string, len(m.calls))
	for i, u := range m.calls {
		calls[i] = u.RequestURI()
	}
	return calls
}

// LastQuery returns the query parameters of the latest request
func (m *MockServer) LastQuery() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1].Query()
}

// LastHeader returns the headers of the latest request
func (m *MockServer) LastHeader() http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.headers) == 0 {
		return nil
	}
	return m.headers[len(m.headers)-1]
}

func (m *MockServer) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	u := *r.URL
	m.calls = append(m.calls, &u)
	m.headers = append(m.headers, r.Header.Clone())
	resp, ok := m.responses[r.URL.Path]
	m.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	fmt.Fprint(w, resp.Body)
}

// TestDataGenerator generates test data
type TestDataGenerator struct{}

// GenerateImages builds one page of images, one per rating, tagged with the
// rating's long name.
func (g *TestDataGenerator) GenerateImages(page int, ratings ...booru.SafeSearchRating) []booru.Image {
	images := make([]booru.Image, len(ratings))
	for i, r := range ratings {
		id := strconv.Itoa(page*100 + i)
		images[i] = booru.Image{
			ID:                 id,
			FileURL:            "https://example.org/images/" + id + ".png",
			SampleURL:          "https://example.org/samples/" + id + ".jpg",
			PreviewURL:         "https://example.org/previews/" + id + ".jpg",
			Width:              1000,
			Height:             800,
			Tags:               []booru.Tag{booru.NewTag(r.String())},
			SafeSearchRating:   r,
			SearchPage:         page,
			SearchPagePosition: i,
		}
	}
	return images
}
