// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads and validates the GDFA service's runtime
// configuration: crypto parameters, artifact locations, session policy,
// optional persistent bookkeeping, and the ambient logging/metrics/health
// surfaces, mirroring the teacher's YAML + environment-substitution loader.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Crypto      *CryptoConfig  `yaml:"crypto" json:"crypto"`
	Artifact    *ArtifactConfig `yaml:"artifact" json:"artifact"`
	Session     *SessionConfig `yaml:"session" json:"session"`
	Storage     *StorageConfig `yaml:"storage" json:"storage"`
	Logging     *LoggingConfig `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig `yaml:"metrics" json:"metrics"`
	Health      *HealthConfig  `yaml:"health" json:"health"`
}

// CryptoConfig carries the security parameters a build/serve/scan process
// needs to agree on: seed/key sizes, accept-id width and the active seed
// derivation mode (see seedschedule.Mode).
type CryptoConfig struct {
	KBits    int    `yaml:"k_bits" json:"k_bits"`
	GKBytes  int    `yaml:"gk_bytes" json:"gk_bytes"`
	AidBits  int    `yaml:"aid_bits" json:"aid_bits"`
	SeedMode string `yaml:"seed_mode" json:"seed_mode"`
	// MasterKeyHex is the hex-encoded master key; normally supplied via
	// ${ZIDS_MASTER_KEY_HEX} rather than committed to a config file.
	MasterKeyHex string `yaml:"master_key_hex" json:"master_key_hex"`
}

// ArtifactConfig locates the compiled GDFA artifact and its row-alphabet
// partition on disk.
type ArtifactConfig struct {
	// Path is either a single-file container path or a directory path
	// (see gdfa/packager); Directory selects which loader to use.
	Path      string `yaml:"path" json:"path"`
	Directory bool   `yaml:"directory" json:"directory"`
	GzipHeader bool  `yaml:"gzip_header" json:"gzip_header"`
}

// SessionConfig configures session lifetime and the background cleanup
// sweep (see session.Manager).
type SessionConfig struct {
	MaxAge          time.Duration `yaml:"max_age" json:"max_age"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// StorageConfig configures optional persistent session bookkeeping (never
// the group-key table itself - see SPEC_FULL.md §4.9).
type StorageConfig struct {
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`
}

// LoggingConfig configures the process-wide logger.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig configures the Prometheus /metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig configures the health-check endpoint.
type HealthConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Port    int      `yaml:"port" json:"port"`
	Path    string   `yaml:"path" json:"path"`
	Checks  []string `yaml:"checks" json:"checks"`
}

// LoadFromFile loads configuration from path, trying YAML then JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)
	return cfg, nil
}

// SaveToFile saves cfg to path, choosing JSON or YAML by extension.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) >= 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write file: %w", err)
	}
	return nil
}

// setDefaults fills in the teacher-style defaults for every section present
// in cfg.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Crypto != nil {
		if cfg.Crypto.KBits == 0 {
			cfg.Crypto.KBits = 128
		}
		if cfg.Crypto.GKBytes == 0 {
			cfg.Crypto.GKBytes = 32
		}
		if cfg.Crypto.SeedMode == "" {
			cfg.Crypto.SeedMode = "master->GK->seed"
		}
	}

	if cfg.Session != nil {
		if cfg.Session.MaxAge == 0 {
			cfg.Session.MaxAge = time.Hour
		}
		if cfg.Session.IdleTimeout == 0 {
			cfg.Session.IdleTimeout = 10 * time.Minute
		}
		if cfg.Session.CleanupInterval == 0 {
			cfg.Session.CleanupInterval = 30 * time.Second
		}
	}

	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}

	if cfg.Metrics != nil && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health != nil && cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}
