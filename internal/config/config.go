// Package config loads application configuration from a TOML file with
// sensible defaults.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Data     DataConfig     `toml:"data"`
	Pricing  PricingConfig  `toml:"pricing"`
	Listings ListingsConfig `toml:"listings"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig contains API server settings.
type ServerConfig struct {
	Port           int      `toml:"port"`            // HTTP listen port
	AllowedOrigins []string `toml:"allowed_origins"` // CORS origins
}

// DataConfig locates the structured data files shared by the runtime and
// the batch commands.
type DataConfig struct {
	DecksFile     string `toml:"decks_file"`     // Deck catalog JSON
	DecklistsFile string `toml:"decklists_file"` // Decklists JSON
	SnapshotFile  string `toml:"snapshot_file"`  // Price snapshot JSON
	ListingsFile  string `toml:"listings_file"`  // Lowest-listings JSON
	CacheDir      string `toml:"cache_dir"`      // Client price cache directory
	BulkDir       string `toml:"bulk_dir"`       // Bulk catalog download directory
}

// PricingConfig tunes printing selection.
type PricingConfig struct {
	SerializedNumberCutoff int `toml:"serialized_number_cutoff"` // Collector numbers above this are serialized variants
}

// ListingsConfig configures the lowest-listing provider.
type ListingsConfig struct {
	BaseURL     string `toml:"base_url"`
	WindowLimit int    `toml:"window_limit"` // Requests per window
	WindowSecs  int    `toml:"window_secs"`  // Window length in seconds
	MaxWaits    int    `toml:"max_waits"`    // Bounded sleeps per request
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level      string `toml:"level"`       // debug, info, warn, error
	File       string `toml:"file"`        // Log file path ("" = stderr)
	MaxSizeMB  int    `toml:"max_size_mb"` // Rotate after this size
	MaxBackups int    `toml:"max_backups"` // Rotated files to keep
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Data: DataConfig{
			DecksFile:     "data/decks.json",
			DecklistsFile: "data/decklists.json",
			SnapshotFile:  "data/prices.json",
			ListingsFile:  "data/listings.json",
			CacheDir:      "data/cache",
			BulkDir:       "data/bulk",
		},
		Pricing: PricingConfig{
			SerializedNumberCutoff: 900,
		},
		Listings: ListingsConfig{
			WindowLimit: 10,
			WindowSecs:  60,
			MaxWaits:    3,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration from a TOML file, applying defaults for
// missing fields. A missing file returns pure defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Pricing.SerializedNumberCutoff <= 0 {
		return fmt.Errorf("serialized_number_cutoff must be positive, got %d", c.Pricing.SerializedNumberCutoff)
	}
	if c.Listings.WindowLimit <= 0 {
		return fmt.Errorf("listings window_limit must be positive, got %d", c.Listings.WindowLimit)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}

	return nil
}
