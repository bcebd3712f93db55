package cache

import (
	"context"
	"errors"
	"time"

	"codeberg.org/snonux/nori/internal/booru"
	"codeberg.org/snonux/nori/internal/client"
	"codeberg.org/snonux/nori/internal/log"
)

type cachedClient struct {
	client.SearchClient
	cache PageCache
	ttl   time.Duration
}

// Wrap returns a SearchClient that serves pages from pc when it can and
// stores every successful page it fetches. Cache failures are logged and
// otherwise ignored; errors from c are never cached.
func Wrap(c client.SearchClient, pc PageCache, ttl time.Duration) client.SearchClient {
	return &cachedClient{SearchClient: c, cache: pc, ttl: ttl}
}

func (c *cachedClient) Search(ctx context.Context, tags string, page int) (*booru.SearchResult, error) {
	resp := <-c.SearchAsync(ctx, tags, page)
	return resp.Result, resp.Err
}

func (c *cachedClient) SearchAsync(ctx context.Context, tags string, page int) <-chan client.Response {
	ch := make(chan client.Response, 1)
	go func() {
		defer close(ch)
		result, err := c.search(ctx, tags, page)
		ch <- client.Response{Result: result, Err: err}
	}()
	return ch
}

func (c *cachedClient) search(ctx context.Context, tags string, page int) (*booru.SearchResult, error) {
	key := Key(c.Settings(), tags, page)
	logger := log.Ctx(ctx).With().Str(log.FieldCacheKey, key).Logger()

	cached, err := c.cache.Get(ctx, key)
	if err == nil {
		logger.Debug().Msg("cache hit")
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.Warn().Err(err).Msg("cache get error")
	}

	result, err := c.SearchClient.Search(ctx, tags, page)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, result, c.ttl); err != nil {
		logger.Warn().Err(err).Msg("cache set error")
	}
	return result, nil
}
