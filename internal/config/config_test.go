package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JohnDeved/rahash/internal/preference"
	"github.com/JohnDeved/rahash/internal/resolver"
)

func TestLoadCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RAHASH_CONFIG_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "game_hashes.json"), cfg.WishlistPath)
	assert.Equal(t, DefaultCatalogURL, cfg.CatalogURL)
	assert.Equal(t, 5, cfg.MaxFetchAttempts)
	assert.Equal(t, 8, cfg.MinHashLength)
	assert.Equal(t, preference.DefaultOrder, cfg.Order())

	_, err = os.Stat(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RAHASH_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{
		"preferred_regions": ["JPN", "USA"],
		"mirrors": {"snes": "http://mirror.local/snes"},
		"listen_addr": "127.0.0.1:9000"
	}`), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, preference.Order{"JPN", "USA"}, cfg.Order())
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	// Unset fields keep their defaults.
	assert.Equal(t, 5.0, cfg.RequestsPerSecond)

	r, err := cfg.Resolver()
	require.NoError(t, err)
	assert.Equal(t, "http://mirror.local/snes/", r.Mirror(resolver.BucketSNES))
}

func TestLoadRejectsUnknownMirror(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RAHASH_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"mirrors": {"N64": "http://x/"}}`), 0o644))

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsBlankRegion(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RAHASH_CONFIG_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"preferred_regions": ["USA", " "]}`), 0o644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preferred_regions[1]")
}

func TestRACredentialsEnvOverride(t *testing.T) {
	t.Setenv("RA_USERNAME", "")
	t.Setenv("RA_API_KEY", "")
	cfg := &Config{RAUsername: "file-user", RAAPIKey: "file-key"}

	u, k := cfg.RACredentials()
	assert.Equal(t, "file-user", u)
	assert.Equal(t, "file-key", k)

	t.Setenv("RA_API_KEY", "env-key")
	u, k = cfg.RACredentials()
	assert.Equal(t, "file-user", u)
	assert.Equal(t, "env-key", k)
}
