package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubstituteEnvVarsWithValue(t *testing.T) {
	t.Setenv("ZIDS_TEST_VAR", "hello")
	require.Equal(t, "hello-world", SubstituteEnvVars("${ZIDS_TEST_VAR}-world"))
}

func TestSubstituteEnvVarsWithDefault(t *testing.T) {
	require.NoError(t, os.Unsetenv("ZIDS_TEST_UNSET"))
	require.Equal(t, "fallback", SubstituteEnvVars("${ZIDS_TEST_UNSET:fallback}"))
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	t.Setenv("ZIDS_TEST_DSN", "postgres://example")
	cfg := &Config{Storage: &StorageConfig{PostgresDSN: "${ZIDS_TEST_DSN}"}}
	SubstituteEnvVarsInConfig(cfg)
	require.Equal(t, "postgres://example", cfg.Storage.PostgresDSN)
}

func TestGetEnvironmentDefaultsToDevelopment(t *testing.T) {
	require.NoError(t, os.Unsetenv("ZIDS_ENV"))
	require.NoError(t, os.Unsetenv("ENVIRONMENT"))
	require.Equal(t, "development", GetEnvironment())
}

func TestIsProduction(t *testing.T) {
	t.Setenv("ZIDS_ENV", "production")
	require.True(t, IsProduction())
	require.False(t, IsDevelopment())
}
