// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for cachelet-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Limits  LimitsSection  `koanf:"limits"`
	Metrics MetricsSection `koanf:"metrics"`
	Log     LogSection     `koanf:"log"`
}

// ServerSection configures the RESP listener.
type ServerSection struct {
	// Addr is the TCP listen address for the RESP protocol.
	Addr string `koanf:"addr"`

	// ReadTimeout bounds reading a single command.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing a single reply.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds the wait for the next command on an idle
	// connection.
	IdleTimeout time.Duration `koanf:"idle_timeout"`
}

// LimitsSection configures per-client limits.
type LimitsSection struct {
	// RateLimit is the maximum number of commands per second per client
	// IP. Zero disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
