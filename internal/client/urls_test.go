package client

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
)

func TestEndpointURL(t *testing.T) {
	params := url.Values{}
	params.Set("tags", "blue sky")
	params.Set("page", "1")

	got := endpointURL("https://example.org/", "/posts.json", params)
	want := "https://example.org/posts.json?page=1&tags=blue%20sky"
	if got != want {
		t.Errorf("endpointURL() = %q, want %q", got, want)
	}

	if got := endpointURL("https://example.org", "/x", nil); got != "https://example.org/x" {
		t.Errorf("Expected no query string, got %q", got)
	}
}

func TestAbsoluteURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"//example.org/img.png", "https://example.org/img.png"},
		{"https://cdn.example.org/a.jpg", "https://cdn.example.org/a.jpg"},
		{"/data/a.jpg", "https://booru.example/data/a.jpg"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := absoluteURL("https://booru.example/", tt.raw); got != tt.want {
			t.Errorf("absoluteURL(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://user:pw@example.org/posts.json?tags=a&api_key=s3cret&login=alice")
	if strings.Contains(got, "s3cret") || strings.Contains(got, "pw@") {
		t.Errorf("Expected secrets to be redacted, got %q", got)
	}
	if !strings.Contains(got, "login=alice") || !strings.Contains(got, "tags=a") {
		t.Errorf("Expected other parameters to survive, got %q", got)
	}

	plain := "https://example.org/posts.json?tags=a"
	if got := redactURL(plain); got != plain {
		t.Errorf("Expected URL without secrets unchanged, got %q", got)
	}
}

func TestScaleToFit(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{2000, 1000, 150, 150, 75},
		{1000, 2000, 150, 75, 150},
		{100, 50, 150, 100, 50},
		{0, 0, 150, 150, 150},
	}
	for _, tt := range tests {
		w, h := scaleToFit(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("scaleToFit(%d, %d, %d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}

	if w, h := scaleToWidth(1700, 1200, 850); w != 850 || h != 600 {
		t.Errorf("scaleToWidth() = %dx%d, want 850x600", w, h)
	}
}

func TestParseTime(t *testing.T) {
	if got := parseTime("1600000000"); got == nil || got.Unix() != 1600000000 {
		t.Errorf("Expected unix seconds to parse, got %v", got)
	}
	if got := parseTime("2021-05-06 07:08:09", shimmieDateLayout); got == nil || got.Hour() != 7 {
		t.Errorf("Expected layout to parse, got %v", got)
	}
	if got := parseTime("yesterday", shimmieDateLayout); got != nil {
		t.Errorf("Expected nil for garbage, got %v", got)
	}
	if got := parseTime(""); got != nil {
		t.Errorf("Expected nil for empty input, got %v", got)
	}
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
		D flexInt `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a": 12, "b": "34", "c": null, "d": 5.0}`), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if v.A != 12 || v.B != 34 || v.C != 0 || v.D != 5 {
		t.Errorf("Unexpected values %+v", v)
	}

	if err := json.Unmarshal([]byte(`{"a": "x"}`), &v); err == nil {
		t.Error("Expected an error for a non-numeric string")
	}
}
