package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleConfig() *Config {
	return &Config{
		Crypto:   &CryptoConfig{KBits: 128, GKBytes: 32, AidBits: 8, SeedMode: "master->GK->seed"},
		Artifact: &ArtifactConfig{Path: "artifact.bin"},
		Session:  &SessionConfig{},
		Logging:  &LoggingConfig{},
		Metrics:  &MetricsConfig{},
		Health:   &HealthConfig{},
	}
}

func TestLoadFromFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	require.NoError(t, SaveToFile(sampleConfig(), path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "master->GK->seed", loaded.Crypto.SeedMode)
	require.Equal(t, 128, loaded.Crypto.KBits)
}

func TestSetDefaultsFillsCryptoAndSession(t *testing.T) {
	cfg := &Config{Crypto: &CryptoConfig{}, Session: &SessionConfig{}, Logging: &LoggingConfig{}}
	setDefaults(cfg)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 128, cfg.Crypto.KBits)
	require.Equal(t, 32, cfg.Crypto.GKBytes)
	require.Equal(t, "master->GK->seed", cfg.Crypto.SeedMode)
	require.NotZero(t, cfg.Session.MaxAge)
	require.NotZero(t, cfg.Session.IdleTimeout)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestSaveToFileJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	require.NoError(t, SaveToFile(sampleConfig(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "\"seed_mode\"")
}
