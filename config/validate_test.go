package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateConfigurationAcceptsProductionModes(t *testing.T) {
	cfg := &Config{Crypto: &CryptoConfig{SeedMode: "master->GK->seed", KBits: 128, GKBytes: 32}}
	issues := ValidateConfiguration(cfg)
	require.Empty(t, issues)
}

func TestValidateConfigurationRejectsRandomMode(t *testing.T) {
	cfg := &Config{Crypto: &CryptoConfig{SeedMode: "random", KBits: 128, GKBytes: 32}}
	issues := ValidateConfiguration(cfg)
	require.NotEmpty(t, issues)
	require.Equal(t, "error", issues[0].Level)
}

func TestValidateConfigurationRejectsBadKBits(t *testing.T) {
	cfg := &Config{Crypto: &CryptoConfig{SeedMode: "master->seed", KBits: 7, GKBytes: 32}}
	issues := ValidateConfiguration(cfg)
	found := false
	for _, i := range issues {
		if i.Field == "crypto.k_bits" {
			found = true
		}
	}
	require.True(t, found)
}
