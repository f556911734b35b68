// Package main provides the entry point for cachelet-server.
//
// cachelet-server is an in-memory key-value cache speaking a Redis
// compatible wire protocol, with per-key expiration.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tvarn/cachelet-go/internal/infra/buildinfo"
	"github.com/tvarn/cachelet-go/internal/infra/confloader"
	"github.com/tvarn/cachelet-go/internal/infra/shutdown"
	"github.com/tvarn/cachelet-go/internal/server/config"
	"github.com/tvarn/cachelet-go/internal/server/respserver"
	"github.com/tvarn/cachelet-go/internal/storage/memory"
	"github.com/tvarn/cachelet-go/internal/telemetry/logger"
	"github.com/tvarn/cachelet-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		addr        = flag.String("addr", "", "Listen address (overrides config)")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("cachelet-server %s\n", buildinfo.String())
		return nil
	}

	cfg, err := loadConfig(*configFile, *addr)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	log.Info("starting cachelet-server",
		"version", buildinfo.Version,
		"addr", cfg.Server.Addr,
		"config", *configFile)

	store := memory.New(memory.WithLogger(log))

	var metrics *metric.Registry
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics = metric.NewRegistry(reg)
		if err := reg.Register(metric.NewCollector(store)); err != nil {
			return fmt.Errorf("register store collector: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", metric.Handler(reg))
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			log.Info("metrics endpoint listening", "addr", cfg.Metrics.Addr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	srv := respserver.New(&respserver.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		RateLimit:    cfg.Limits.RateLimit,
	}, store, metrics, log)

	ctx := context.Background()
	go func() {
		if err := srv.ListenAndServe(ctx); err != nil {
			log.Error("resp server error", "error", err)
		}
	}()

	// Reload the log level when the config file changes.
	var watcher *confloader.Watcher
	if *configFile != "" {
		watcher, err = startConfigWatcher(*configFile, log)
		if err != nil {
			log.Warn("config watcher unavailable", "error", err)
			watcher = nil
		}
	}

	// Shutdown hooks run in reverse order of registration.
	shutdownHandler := shutdown.NewHandler(30 * time.Second)

	shutdownHandler.OnShutdown(func(context.Context) error {
		log.Info("closing store")
		return store.Close()
	})

	if metricsServer != nil {
		shutdownHandler.OnShutdown(func(ctx context.Context) error {
			log.Info("shutting down metrics server")
			return metricsServer.Shutdown(ctx)
		})
	}

	if watcher != nil {
		shutdownHandler.OnShutdown(func(context.Context) error {
			return watcher.Stop()
		})
	}

	shutdownHandler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down resp server")
		return srv.Shutdown(ctx)
	})

	log.Info("server started, press Ctrl+C to stop")
	if err := shutdownHandler.Wait(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig merges defaults, the optional file, the environment, and
// the -addr flag.
func loadConfig(configFile, addr string) (*config.ServerConfig, error) {
	cfg := config.Default()

	opts := []confloader.Option{}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}

	loader := confloader.NewLoader(opts...)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if addr != "" {
		if err := loader.LoadMap(map[string]any{"server.addr": addr}); err != nil {
			return nil, err
		}
		if err := loader.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogger builds the process logger and installs it as the slog
// default.
func initLogger(cfg *config.ServerConfig) (*slog.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}

	logger.SetDefault(log)
	return log.Slog(), nil
}

// startConfigWatcher reloads log.level from the config file on change.
// Other settings require a restart.
func startConfigWatcher(configFile string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(string) {
		loader := confloader.NewLoader(confloader.WithConfigFile(configFile))
		cfg := config.Default()
		if err := loader.Load(cfg); err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		log.Info("log level updated", "level", cfg.Log.Level)
	})

	if err := watcher.Watch(configFile); err != nil {
		_ = watcher.Stop()
		return nil, err
	}
	watcher.StartAsync()
	return watcher, nil
}
