package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"codeberg.org/snonux/nori/internal/cache"
	"codeberg.org/snonux/nori/internal/client"
	"codeberg.org/snonux/nori/internal/log"
	"codeberg.org/snonux/nori/internal/session"
)

// Config is the merged configuration from file, environment and flags
type Config struct {
	SafeSearch   string            `mapstructure:"safe_search"`
	TagFilter    string            `mapstructure:"tag_filter"`
	Services     []client.Settings `mapstructure:"services"`
	Database     string            `mapstructure:"database"`
	Timeout      time.Duration     `mapstructure:"timeout"`
	PageSize     int               `mapstructure:"page_size"`
	FlickrAPIKey string            `mapstructure:"flickr_api_key"`
	Cache        CacheConfig       `mapstructure:"cache"`
	Log          log.Config        `mapstructure:"log"`
}

// CacheConfig selects the page cache. Without a Redis address pages are
// cached in memory for the lifetime of the process.
type CacheConfig struct {
	cache.RedisConfig `mapstructure:",squash"`
	TTL               time.Duration `mapstructure:"ttl"`
	Disabled          bool          `mapstructure:"disabled"`
}

// DefaultServices are used when the configuration lists none
var DefaultServices = []client.Settings{
	{APIType: client.APIDanbooru, Name: "Danbooru", Endpoint: "https://danbooru.donmai.us"},
	{APIType: client.APIGelbooru, Name: "Safebooru", Endpoint: "https://safebooru.org"},
	{APIType: client.APIE621, Name: "e926", Endpoint: "https://e926.net"},
}

// DefaultDatabasePath returns where the SQLite database lives by default
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "nori.db"
	}
	return filepath.Join(home, ".local", "state", "nori", "nori.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("safe_search", session.DefaultAllowedRatings)
	v.SetDefault("tag_filter", "")
	v.SetDefault("database", DefaultDatabasePath())
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("page_size", 0)
	v.SetDefault("flickr_api_key", "")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("cache.disabled", false)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.pretty", true)
}

// LoadConfig decodes the global viper instance into a Config
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper())
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if len(cfg.Services) == 0 {
		cfg.Services = append([]client.Settings(nil), DefaultServices...)
	}
	for i, s := range cfg.Services {
		if s.Name == "" {
			return nil, fmt.Errorf("service %d: name is required", i+1)
		}
		if !s.APIType.Valid() {
			return nil, fmt.Errorf("service %q: %w", s.Name, client.ErrUnknownAPIType)
		}
	}
	return &cfg, nil
}

// Filters returns the safe-search and blacklist filters from cfg
func (c *Config) Filters() session.Filters {
	return session.FiltersFromPreferences(c.SafeSearch, c.TagFilter)
}

// ClientOptions returns the client options derived from cfg
func (c *Config) ClientOptions() []client.Option {
	return []client.Option{
		client.WithTimeout(c.Timeout),
		client.WithPageSize(c.PageSize),
		client.WithFlickrAPIKey(c.FlickrAPIKey),
		client.WithLogger(log.L()),
	}
}
