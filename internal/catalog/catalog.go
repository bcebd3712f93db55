// Package catalog resolves service names to ready-to-use search clients.
//
// Services come from the database first and from the configuration file
// second; a stored service shadows a configured one with the same name.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"codeberg.org/snonux/nori/internal/cache"
	"codeberg.org/snonux/nori/internal/client"
)

// ErrUnknownService is returned when no service has the requested name
var ErrUnknownService = errors.New("unknown service")

// ServiceLister lists stored services
type ServiceLister interface {
	List(ctx context.Context) ([]client.Settings, error)
}

type entry struct {
	settings client.Settings
	client   client.SearchClient
}

// Catalog is safe for concurrent use
type Catalog struct {
	stored     ServiceLister
	configured []client.Settings
	clientOpts []client.Option
	pageCache  cache.PageCache
	ttl        time.Duration

	mu      sync.Mutex
	clients map[string]entry
}

// Option configures a Catalog
type Option func(*Catalog)

// WithClientOptions passes opts to every client the catalog builds
func WithClientOptions(opts ...client.Option) Option {
	return func(c *Catalog) { c.clientOpts = append(c.clientOpts, opts...) }
}

// WithCache serves pages through pc, keeping them for ttl
func WithCache(pc cache.PageCache, ttl time.Duration) Option {
	return func(c *Catalog) {
		c.pageCache = pc
		c.ttl = ttl
	}
}

// New creates a catalog. stored may be nil.
func New(stored ServiceLister, configured []client.Settings, opts ...Option) *Catalog {
	c := &Catalog{
		stored:     stored,
		configured: configured,
		clients:    make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns every known service, stored ones first
func (c *Catalog) List(ctx context.Context) ([]client.Settings, error) {
	var services []client.Settings
	seen := make(map[string]bool)

	if c.stored != nil {
		stored, err := c.stored.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list stored services: %w", err)
		}
		for _, s := range stored {
			seen[nameKey(s.Name)] = true
			services = append(services, s)
		}
	}

	for _, s := range c.configured {
		if seen[nameKey(s.Name)] {
			continue
		}
		seen[nameKey(s.Name)] = true
		services = append(services, s)
	}
	return services, nil
}

// Lookup returns the settings of the named service. An empty name selects
// the first service.
func (c *Catalog) Lookup(ctx context.Context, name string) (client.Settings, error) {
	services, err := c.List(ctx)
	if err != nil {
		return client.Settings{}, err
	}

	if strings.TrimSpace(name) == "" {
		if len(services) == 0 {
			return client.Settings{}, fmt.Errorf("%w: no services configured", ErrUnknownService)
		}
		return services[0], nil
	}

	key := nameKey(name)
	for _, s := range services {
		if nameKey(s.Name) == key {
			return s, nil
		}
	}
	return client.Settings{}, fmt.Errorf("%w: %q", ErrUnknownService, name)
}

// Client returns a client for the named service. Clients are reused for as
// long as the service's settings stay the same.
func (c *Catalog) Client(ctx context.Context, name string) (client.SearchClient, error) {
	settings, err := c.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := nameKey(settings.Name)
	if e, ok := c.clients[key]; ok && e.settings == settings {
		return e.client, nil
	}

	sc, err := client.New(settings, c.clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("service %q: %w", settings.Name, err)
	}
	if c.pageCache != nil {
		sc = cache.Wrap(sc, c.pageCache, c.ttl)
	}

	c.clients[key] = entry{settings: settings, client: sc}
	return sc, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
