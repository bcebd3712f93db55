package client

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"codeberg.org/snonux/nori/internal"
	"codeberg.org/snonux/nori/internal/log"
)

// probePaths request the smallest page each API family serves. Flickr has a
// single fixed endpoint and is not probed.
var probePaths = map[APIType]string{
	APIDanbooru:       "/posts.json?limit=1",
	APIDanbooruLegacy: "/post/index.xml?limit=1",
	APIGelbooru:       "/index.php?page=dapi&s=post&q=index&limit=1",
	APIShimmie:        "/api/danbooru/find_posts/index.xml?limit=1",
	APIE621:           "/posts.json?limit=1",
	APIDerpibooru:     "/search.json?q=*&perpage=1",
}

// detectOrder is the precedence used when several probes succeed. e621
// answers the Danbooru probe identically, so it is never auto-detected.
var detectOrder = []APIType{
	APIDanbooru,
	APIDerpibooru,
	APIGelbooru,
	APIShimmie,
	APIDanbooruLegacy,
}

// DetectService checks whether baseURL serves the given API. It returns the
// endpoint to store in Settings, or "" when nothing was detected.
func DetectService(ctx context.Context, t APIType, baseURL string, timeout time.Duration) string {
	path, ok := probePaths[t]
	if !ok {
		return ""
	}
	endpoint := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if endpoint == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+path, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", internal.UserAgent())
	req.Header.Set("Cache-Control", "no-cache")

	httpClient := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	logger := log.Ctx(ctx)
	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Debug().Err(err).Str(log.FieldBackend, t.String()).Str(log.FieldURL, endpoint).Msg("probe failed")
		return ""
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	logger.Debug().
		Str(log.FieldBackend, t.String()).
		Str(log.FieldURL, endpoint).
		Int(log.FieldStatus, resp.StatusCode).
		Msg("probe finished")

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return endpoint
}

// DetectServiceType probes baseURL for every detectable API at once and
// reports the first match by precedence.
func DetectServiceType(ctx context.Context, baseURL string, timeout time.Duration) (APIType, string, bool) {
	found := make([]string, len(detectOrder))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range detectOrder {
		i, t := i, t
		g.Go(func() error {
			found[i] = DetectService(gctx, t, baseURL, timeout)
			return nil
		})
	}
	_ = g.Wait()

	for i, t := range detectOrder {
		if found[i] != "" {
			return t, found[i], true
		}
	}
	return 0, "", false
}
