package client

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/nori/internal/log"
)

type options struct {
	httpClient   *http.Client
	logger       zerolog.Logger
	pageSize     int
	timeout      time.Duration
	flickrAPIKey string
}

// Option configures a client built by New
type Option func(*options)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPageSize overrides the backend's default number of images per page
func WithPageSize(n int) Option {
	return func(o *options) { o.pageSize = n }
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithFlickrAPIKey sets the API key used by the Flickr backends when the
// settings carry none.
func WithFlickrAPIKey(key string) Option {
	return func(o *options) { o.flickrAPIKey = key }
}

type constructor func(Settings, *options) SearchClient

// constructors is indexed by APIType
var constructors = [...]constructor{
	APIDanbooru:       newDanbooru,
	APIDanbooruLegacy: newDanbooruLegacy,
	APIGelbooru:       newGelbooru,
	APIShimmie:        newShimmie,
	APIE621:           newE621,
	APIFlickr:         newFlickr,
	APIFlickrUser:     newFlickrUser,
	APIDerpibooru:     newDerpibooru,
}

// Both assertions fail to compile unless every APIType has a constructor.
var (
	_ [len(constructors) - int(numAPITypes)]struct{}
	_ [int(numAPITypes) - len(constructors)]struct{}
)

// New builds the SearchClient described by settings. It never performs I/O.
func New(settings Settings, opts ...Option) (SearchClient, error) {
	if !settings.APIType.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAPIType, int(settings.APIType))
	}

	o := &options{
		logger:  log.L(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	build := constructors[settings.APIType]
	if build == nil {
		return nil, fmt.Errorf("%w: %s has no constructor", ErrUnknownAPIType, settings.APIType)
	}
	return build(settings, o), nil
}
