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
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envVarPattern matches ${VAR} or ${VAR:default}.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// SubstituteEnvVars replaces ${VAR} or ${VAR:default} with environment
// variable values.
func SubstituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadDotEnv loads a .env file into the process environment if present.
// Missing files are not an error; this keeps godotenv's permissive
// behavior for local development.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// applyEnvironmentOverrides overrides config fields with AUTHPROVIDER_* env
// vars, highest priority, applied after file load and ${VAR} substitution.
func applyEnvironmentOverrides(cfg *Config) {
	if v := os.Getenv("AUTHPROVIDER_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("AUTHPROVIDER_DEVICE_KEY_PATH"); v != "" {
		cfg.Device.KeyPath = v
	}
	if v := os.Getenv("AUTHPROVIDER_STORE_TYPE"); v != "" {
		cfg.Store.Type = v
	}
	if v := os.Getenv("AUTHPROVIDER_POSTGRES_HOST"); v != "" {
		cfg.Store.Postgres.Host = v
	}
	if v := os.Getenv("AUTHPROVIDER_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.Port = port
		}
	}
	if v := os.Getenv("AUTHPROVIDER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("AUTHPROVIDER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("AUTHPROVIDER_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("AUTHPROVIDER_LISTEN_ADDR"); v != "" {
		cfg.Listen.Addr = v
	}
}

// GetEnvironment returns the current environment from AUTHPROVIDER_ENV,
// defaulting to "development".
func GetEnvironment() string {
	env := os.Getenv("AUTHPROVIDER_ENV")
	if env == "" {
		env = "development"
	}
	return strings.ToLower(env)
}
