// Package config defines the server configuration structure.
package config

import (
	"errors"
	"net"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyLimits(&cfg.Limits); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	if cfg.Addr == "" {
		return errors.New("server.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return errors.New("server.addr is not a valid host:port address: " + err.Error())
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 || cfg.IdleTimeout < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

func verifyLimits(cfg *LimitsSection) error {
	if cfg.RateLimit < 0 {
		return errors.New("limits.rate_limit must not be negative")
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return errors.New("metrics.addr is not a valid host:port address: " + err.Error())
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return errors.New("log.level must be one of debug, info, warn, error")
	}
	switch cfg.Format {
	case "", "json", "text":
	default:
		return errors.New("log.format must be json or text")
	}
	return nil
}
