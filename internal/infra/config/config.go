// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Cache     CacheConfig      `yaml:"cache"`
	Search    SearchConfig     `yaml:"search"`
	Providers []ProviderConfig `yaml:"providers" validate:"dive"`
	Filters   []FilterConfig   `yaml:"filters" validate:"dive"`
	Messages  MessagesConfig   `yaml:"messages"`
	Spotify   SpotifyConfig    `yaml:"spotify"`
	Player    PlayerConfig     `yaml:"player"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr        string      `yaml:"addr" default:":3000"`
	APIToken    string      `yaml:"api_token"`
	CORSOrigins []string    `yaml:"cors_origins" default:"[\"http://localhost:3000\",\"http://127.0.0.1:3000\",\"http://localhost:5500\",\"http://127.0.0.1:5500\"]"`
	Hooks       HooksConfig `yaml:"hooks"`
}

// HooksConfig represents shell commands run around the server lifecycle.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// CacheConfig represents the video info cache configuration.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds" default:"300" validate:"gte=1"`
	Size       int `yaml:"size" default:"512" validate:"gte=1"`
}

// SearchConfig represents search configuration.
type SearchConfig struct {
	FetchCount     int     `yaml:"fetch_count" default:"30" validate:"gte=1,lte=100"`
	ResultLimit    int     `yaml:"result_limit" default:"15" validate:"gte=1,lte=100"`
	TimeoutMs      int     `yaml:"timeout_ms" default:"10000" validate:"gte=100"`
	RequestsPerSec float64 `yaml:"requests_per_sec" default:"5" validate:"gt=0"`
	Burst          int     `yaml:"burst" default:"10" validate:"gte=1"`
}

// ProviderConfig represents a single search provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=youtube audius spotify"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Type     string         `yaml:"type" validate:"required"`
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	// Stream relay errors
	StreamDefault     string `yaml:"stream_default" default:"Error creating audio stream"`
	StreamUnavailable string `yaml:"stream_unavailable" default:"Video is unavailable or private"`
	StreamGone        string `yaml:"stream_gone" default:"Video no longer exists"`
	StreamForbidden   string `yaml:"stream_forbidden" default:"Access forbidden - video may be region-locked"`
	StreamRateLimited string `yaml:"stream_rate_limited" default:"Too many requests - please wait and try again"`
	NoAudioFormat     string `yaml:"no_audio_format" default:"No suitable audio format found for this video"`
	Suggestion        string `yaml:"suggestion" default:"Try searching for a different song"`

	// Player failure captions (%s is replaced by the provider name)
	LoadTimeout    string `yaml:"load_timeout" default:"%s took too long to respond"`
	TransportError string `yaml:"transport_error" default:"Could not play this %s stream"`
	Upstream       string `yaml:"upstream" default:"%s is unavailable right now"`
	Unplayable     string `yaml:"unplayable" default:"No playable audio on %s for this track"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"US"`
}

// PlayerConfig represents terminal player configuration.
type PlayerConfig struct {
	ServerURL        string          `yaml:"server_url" default:"http://localhost:3000" validate:"required,url"`
	APIToken         string          `yaml:"api_token"`
	LoadTimeoutMs    int             `yaml:"load_timeout_ms" default:"15000" validate:"gte=1000,lte=120000"`
	FailureBackoffMs int             `yaml:"failure_backoff_ms" default:"2500" validate:"gte=0,lte=30000"`
	Volume           float64         `yaml:"volume" default:"0.8" validate:"gte=0,lte=1"`
	LibraryDir       string          `yaml:"library_dir"`
	Favorites        FavoritesConfig `yaml:"favorites"`
}

// FavoritesConfig represents favorites persistence configuration.
type FavoritesConfig struct {
	Store string `yaml:"store" default:"json" validate:"oneof=json sqlite"`
	Path  string `yaml:"path"`
}

// Load loads configuration from a YAML file.
// An empty path yields the defaults.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	cfg.fillDefaultStages()

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// fillDefaultStages installs the stock search stages when the file
// configures none: YouTube only, with the standard result filters.
func (c *Config) fillDefaultStages() {
	if len(c.Providers) == 0 {
		c.Providers = []ProviderConfig{
			{Type: "youtube", DisplayName: "YouTube"},
		}
	}
	if len(c.Filters) == 0 {
		c.Filters = []FilterConfig{
			{Type: "duration_limit_filter", Enabled: true},
			{Type: "title_keyword_filter", Enabled: true},
			{Type: "verified_channel_filter", Enabled: true},
			{Type: "duplicate_track_filter", Enabled: true},
		}
	}
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SYNCIN_API_TOKEN"); v != "" {
		c.Server.APIToken = v
		c.Player.APIToken = v
	}
	if v := os.Getenv("SYNCIN_SERVER_URL"); v != "" {
		c.Player.ServerURL = v
	}
	if v := os.Getenv("AUDIUS_APP_NAME"); v != "" {
		for i := range c.Providers {
			if c.Providers[i].Type == "audius" {
				if c.Providers[i].Settings == nil {
					c.Providers[i].Settings = make(map[string]any)
				}
				c.Providers[i].Settings["app_name"] = v
			}
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	// Spotify credentials are only needed when the provider is configured
	if c.HasProvider("spotify") && (c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "") {
		return errors.New("spotify provider requires spotify.client_id and spotify.client_secret")
	}

	if c.Search.ResultLimit > c.Search.FetchCount {
		return errors.Newf("search.result_limit (%d) cannot exceed search.fetch_count (%d)",
			c.Search.ResultLimit, c.Search.FetchCount)
	}

	return nil
}

// HasProvider reports whether a provider of the given type is configured.
func (c *Config) HasProvider(providerType string) bool {
	for _, p := range c.Providers {
		if p.Type == providerType {
			return true
		}
	}
	return false
}

// CacheTTL returns the video info cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// SearchTimeout returns the per-search upstream timeout.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.Search.TimeoutMs) * time.Millisecond
}

// LoadTimeout returns the player's remote load timeout.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.Player.LoadTimeoutMs) * time.Millisecond
}

// FailureBackoff returns the player's delay before auto-advancing past a failed track.
func (c *Config) FailureBackoff() time.Duration {
	return time.Duration(c.Player.FailureBackoffMs) * time.Millisecond
}

// FavoritesPath returns the favorites file path, defaulting to the user
// config directory.
func (c *Config) FavoritesPath() (string, error) {
	if c.Player.Favorites.Path != "" {
		return c.Player.Favorites.Path, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve user config directory")
	}
	name := "favorites.json"
	if c.Player.Favorites.Store == "sqlite" {
		name = "favorites.db"
	}
	return filepath.Join(dir, "syncin", name), nil
}
