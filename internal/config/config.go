// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" log output.
	LogFormat string `koanf:"log_format"`

	// Host is the interface to bind; empty binds all interfaces.
	Host string `koanf:"host"`

	// Port is the HTTP listen port.
	Port int `koanf:"port"`

	// DBPath is the SQLite database file.
	DBPath string `koanf:"db_path"`

	// DBMaxOpenConns bounds the database/sql connection pool.
	DBMaxOpenConns int `koanf:"db_max_open_conns"`

	// DBBusyTimeoutMS is how long SQLite waits on a locked database.
	DBBusyTimeoutMS int `koanf:"db_busy_timeout_ms"`

	// TopLimit is the size of the leaderboard window returned by GET.
	TopLimit int `koanf:"top_limit"`

	// MaxBodyBytes caps POST request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// ShutdownTimeoutMS bounds how long in-flight requests may drain.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	// CORSAllowedOrigins enables CORS for the listed origins when non-empty.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Limits shared with validation.
const (
	DefaultPort     = 3000
	MaxTopLimit     = 50
	DefaultBodySize = 64 << 10
	maxPort         = 65535
)

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Host:              "",
		Port:              DefaultPort,
		DBPath:            "leaderboard.db",
		DBMaxOpenConns:    4,
		DBBusyTimeoutMS:   5000,
		TopLimit:          MaxTopLimit,
		MaxBodyBytes:      DefaultBodySize,
		ShutdownTimeoutMS: 30_000,
	}
}

// Addr returns the listen address built from Host and Port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// BusyTimeout returns DBBusyTimeoutMS as a duration.
func (c *Config) BusyTimeout() time.Duration {
	return time.Duration(c.DBBusyTimeoutMS) * time.Millisecond
}

// Validate checks ranges that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > maxPort:
		return fmt.Errorf("%w: port must be between 1 and %d, got %d", ErrInvalidConfig, maxPort, c.Port)
	case c.DBPath == "":
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	case c.TopLimit < 1 || c.TopLimit > MaxTopLimit:
		return fmt.Errorf("%w: top_limit must be between 1 and %d, got %d", ErrInvalidConfig, MaxTopLimit, c.TopLimit)
	case c.MaxBodyBytes <= 0:
		return fmt.Errorf("%w: max_body_bytes must be positive", ErrInvalidConfig)
	case c.DBMaxOpenConns < 1:
		return fmt.Errorf("%w: db_max_open_conns must be positive", ErrInvalidConfig)
	case c.ShutdownTimeoutMS < 0 || c.DBBusyTimeoutMS < 0:
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}
