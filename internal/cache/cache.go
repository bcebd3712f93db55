// Package cache keeps recently fetched result pages so that paging back and
// forth, or repeating a search, does not hit the backend again.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/snonux/nori/internal/booru"
	"codeberg.org/snonux/nori/internal/client"
)

// ErrCacheMiss is returned by Get when no live entry exists
var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "nori"

// PageCache stores one SearchResult page per key
type PageCache interface {
	Get(ctx context.Context, key string) (*booru.SearchResult, error)
	Set(ctx context.Context, key string, result *booru.SearchResult, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key identifies one page of one query against one configured service. The
// username and a fingerprint of the password or API key are part of the key,
// since credentials change what a backend returns (Derpibooru's my: queries
// use the key alone). The secret itself never is.
func Key(s client.Settings, tags string, page int) string {
	query := strings.Join(strings.Fields(tags), " ")
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d:%s", keyPrefix, s.APIType, strings.TrimRight(s.Endpoint, "/"), s.Username, credentialFingerprint(s), page, query)
}

func credentialFingerprint(s client.Settings) string {
	if s.Password == "" {
		return "-"
	}
	sum := sha256.Sum256([]byte(s.Username + "\x00" + s.Password))
	return hex.EncodeToString(sum[:6])
}
