// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoaderOptions configures the configuration loader.
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config).
	ConfigDir string
	// Environment overrides automatic environment detection.
	Environment string
	// DotEnvPath, if set, is loaded before the config file (default: .env).
	DotEnvPath string
	// SkipEnvSubstitution disables ${VAR} substitution in loaded strings.
	SkipEnvSubstitution bool
}

// DefaultLoaderOptions returns the default loader options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{ConfigDir: "config"}
}

// Load loads configuration with automatic environment detection: it tries
// config/<env>.yaml, falls back to config/default.yaml, then config/config.yaml,
// and finally an empty Config with defaults applied.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	if err := LoadDotEnv(options.DotEnvPath); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	candidates := []string{
		filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env)),
		filepath.Join(options.ConfigDir, "default.yaml"),
		filepath.Join(options.ConfigDir, "config.yaml"),
	}

	var cfg *Config
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		break
	}
	if cfg == nil {
		cfg = &Config{}
		setDefaults(cfg)
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}

	if !options.SkipEnvSubstitution {
		substituteInConfig(cfg)
	}
	applyEnvironmentOverrides(cfg)

	return cfg, nil
}

// substituteInConfig applies ${VAR} substitution to every string field that
// plausibly carries secrets or per-environment values.
func substituteInConfig(cfg *Config) {
	cfg.Device.ID = SubstituteEnvVars(cfg.Device.ID)
	cfg.Device.KeyPath = SubstituteEnvVars(cfg.Device.KeyPath)
	cfg.Device.UserID = SubstituteEnvVars(cfg.Device.UserID)
	cfg.Store.Postgres.Host = SubstituteEnvVars(cfg.Store.Postgres.Host)
	cfg.Store.Postgres.User = SubstituteEnvVars(cfg.Store.Postgres.User)
	cfg.Store.Postgres.Password = SubstituteEnvVars(cfg.Store.Postgres.Password)
	cfg.Store.Postgres.Database = SubstituteEnvVars(cfg.Store.Postgres.Database)
	cfg.Listen.Addr = SubstituteEnvVars(cfg.Listen.Addr)
	cfg.Listen.DialURL = SubstituteEnvVars(cfg.Listen.DialURL)
}

// MustLoad loads configuration or panics on error. Intended for CLI entry
// points where a bad config should halt startup immediately.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
