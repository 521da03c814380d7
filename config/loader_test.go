package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToEmptyConfigWithDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.NoError(t, err)
	require.Equal(t, "test", cfg.Environment)
}

func TestLoadPrefersEnvironmentSpecificFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{Crypto: &CryptoConfig{SeedMode: "master->seed", KBits: 128, GKBytes: 32}},
		filepath.Join(dir, "staging.yaml")))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "staging"})
	require.NoError(t, err)
	require.Equal(t, "master->seed", cfg.Crypto.SeedMode)
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{Crypto: &CryptoConfig{SeedMode: "master->seed", KBits: 128, GKBytes: 32}},
		filepath.Join(dir, "test.yaml")))

	t.Setenv("ZIDS_SEED_MODE", "master->GK->seed")
	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.NoError(t, err)
	require.Equal(t, "master->GK->seed", cfg.Crypto.SeedMode)
}

func TestLoadRejectsRandomSeedMode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{Crypto: &CryptoConfig{SeedMode: "random", KBits: 128, GKBytes: 32}},
		filepath.Join(dir, "test.yaml")))

	_, err := Load(LoaderOptions{ConfigDir: dir, Environment: "test"})
	require.Error(t, err)
}

func TestMustLoadPanicsOnValidationFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SaveToFile(&Config{Crypto: &CryptoConfig{SeedMode: "random"}}, filepath.Join(dir, "test.yaml")))

	require.Panics(t, func() {
		MustLoad(LoaderOptions{ConfigDir: dir, Environment: "test"})
	})
}

func TestLoadForEnvironment(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(wd)) })

	require.NoError(t, os.Mkdir("config", 0755))
	require.NoError(t, SaveToFile(&Config{Crypto: &CryptoConfig{SeedMode: "master->seed", KBits: 128, GKBytes: 32}},
		filepath.Join("config", "staging.yaml")))

	cfg, err := LoadForEnvironment("staging")
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Environment)
}
