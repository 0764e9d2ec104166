// Package config provides configuration management for the authenticated
// transport-wrapping provider.
package config

import "time"

// Config is the top-level process configuration for an authprovider process.
type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Device      DeviceConfig   `yaml:"device" json:"device"`
	Store       StoreConfig    `yaml:"store" json:"store"`
	Logging     LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig  `yaml:"metrics" json:"metrics"`
	Listen      ListenConfig   `yaml:"listen" json:"listen"`
}

// DeviceConfig locates the device identity material. The device secret key
// itself is never read from a config file in a production deployment; KeyPath
// is provided for the CLI demo, where keys are generated on disk for
// convenience.
type DeviceConfig struct {
	ID        string `yaml:"id" json:"id"`
	KeyPath   string `yaml:"key_path" json:"key_path"`
	UserID    string `yaml:"user_id,omitempty" json:"user_id,omitempty"`
}

// StoreConfig selects and configures the persistence backend (Store
// interface: memory or Postgres).
type StoreConfig struct {
	Type     string         `yaml:"type" json:"type"` // memory, postgres
	Postgres PostgresConfig `yaml:"postgres" json:"postgres"`
}

// PostgresConfig configures the Postgres-backed store backend.
type PostgresConfig struct {
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"password"`
	Database string `yaml:"database" json:"database"`
	SSLMode  string `yaml:"ssl_mode" json:"ssl_mode"`
}

// LoggingConfig configures the logger shared by every component.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, console
}

// MetricsConfig enables the Prometheus metrics surface.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
	Path    string `yaml:"path" json:"path"`
}

// ListenConfig configures the demo WebSocket base adapter used by the CLI.
type ListenConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	DialURL         string        `yaml:"dial_url" json:"dial_url"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" json:"handshake_timeout"`
}
