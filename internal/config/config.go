package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohnDeved/rahash/internal/preference"
	"github.com/JohnDeved/rahash/internal/resolver"
)

// DefaultCatalogURL is the published hash catalog.
const DefaultCatalogURL = "https://archive.org/download/retroachievements_collection_v5/TamperMonkeyRetroachievements.json"

func homeDirOrFallback() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}

// Config holds all user-configurable settings.
type Config struct {
	// CatalogPath is the local copy of the hash catalog.
	CatalogPath string `json:"catalog_path"`
	// CatalogURL is where `catalog update` downloads the catalog from.
	CatalogURL string `json:"catalog_url"`
	// WishlistPath is the game_hashes.json wish list.
	WishlistPath string `json:"wishlist_path"`
	// MissingReportPath receives the titles a batch lookup could not resolve.
	MissingReportPath string `json:"missing_report_path"`
	// RequestsPerSecond rate-limits HTTP requests to archive.org.
	RequestsPerSecond float64 `json:"requests_per_second"`
	// MaxFetchAttempts bounds catalog download retries.
	MaxFetchAttempts int `json:"max_fetch_attempts"`
	// MinHashLength rejects shorter queries before any lookup.
	MinHashLength int `json:"min_hash_length"`
	// PreferredRegions is the region priority, highest first.
	PreferredRegions []string `json:"preferred_regions"`
	// Mirrors overrides platform mirror roots, keyed by bucket name (SNES, PS2_A_M, ...).
	Mirrors map[string]string `json:"mirrors,omitempty"`
	// RAUsername and RAAPIKey authenticate against the RetroAchievements
	// API. RA_USERNAME and RA_API_KEY take precedence.
	RAUsername string `json:"ra_username,omitempty"`
	RAAPIKey   string `json:"ra_api_key,omitempty"`
	// ListenAddr is the address `serve` binds to.
	ListenAddr string `json:"listen_addr"`
	// LogLevel is a zerolog level name.
	LogLevel string `json:"log_level"`
	// IndexStaleDays controls how many days before the search index is rebuilt.
	IndexStaleDays int `json:"index_stale_days"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	dir := ConfigDir()
	return &Config{
		CatalogPath:       filepath.Join(dir, "TamperMonkeyRetroachievements.json"),
		CatalogURL:        DefaultCatalogURL,
		WishlistPath:      filepath.Join(dir, "game_hashes.json"),
		MissingReportPath: filepath.Join(dir, "missing_games.txt"),
		RequestsPerSecond: 5.0,
		MaxFetchAttempts:  5,
		MinHashLength:     8,
		PreferredRegions:  append([]string(nil), preference.DefaultOrder...),
		ListenAddr:        ":8080",
		LogLevel:          "info",
		IndexStaleDays:    7,
	}
}

// ConfigDir returns the directory where config and data files are stored.
func ConfigDir() string {
	if dir := os.Getenv("RAHASH_CONFIG_DIR"); dir != "" {
		return dir
	}
	home := homeDirOrFallback()
	return filepath.Join(home, ".config", "rahash")
}

// DBPath returns the path to the SQLite database.
func DBPath() string {
	return filepath.Join(ConfigDir(), "index.db")
}

// LogDir returns where log files are written.
func LogDir() string {
	return filepath.Join(ConfigDir(), "logs")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// Load reads config from disk, returning defaults if the file doesn't exist.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			if err := cfg.Save(); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigPath(), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}

// Validate checks the fields that would otherwise fail late.
func (c *Config) Validate() error {
	if _, err := c.MirrorOverrides(); err != nil {
		return err
	}
	if c.MinHashLength < 0 {
		return fmt.Errorf("min_hash_length must not be negative")
	}
	for i, code := range c.PreferredRegions {
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("preferred_regions[%d] is blank", i)
		}
	}
	return nil
}

// Order returns the region preference, or the default when unset.
func (c *Config) Order() preference.Order {
	if len(c.PreferredRegions) == 0 {
		return preference.DefaultOrder
	}
	return preference.Order(c.PreferredRegions)
}

// MirrorOverrides parses Mirrors into resolver buckets.
func (c *Config) MirrorOverrides() (map[resolver.Bucket]string, error) {
	out := make(map[resolver.Bucket]string, len(c.Mirrors))
	for name, root := range c.Mirrors {
		b, err := resolver.ParseBucket(name)
		if err != nil {
			return nil, fmt.Errorf("mirrors: %w", err)
		}
		out[b] = root
	}
	return out, nil
}

// Resolver builds a resolver honouring the mirror overrides.
func (c *Config) Resolver() (*resolver.Resolver, error) {
	m, err := c.MirrorOverrides()
	if err != nil {
		return nil, err
	}
	return resolver.New(m), nil
}

// RACredentials returns the RetroAchievements username and API key, with the
// environment taking precedence over the file.
func (c *Config) RACredentials() (username, apiKey string) {
	username, apiKey = c.RAUsername, c.RAAPIKey
	if v := os.Getenv("RA_USERNAME"); v != "" {
		username = v
	}
	if v := os.Getenv("RA_API_KEY"); v != "" {
		apiKey = v
	}
	return username, apiKey
}
