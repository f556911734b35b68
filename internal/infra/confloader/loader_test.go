package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		Addr        string        `koanf:"addr"`
		IdleTimeout time.Duration `koanf:"idle_timeout"`
	} `koanf:"server"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: "0.0.0.0:6380"
  idle_timeout: 2m
log:
  level: debug
`)

	var cfg testConfig
	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:6380" {
		t.Errorf("server.addr = %q, want 0.0.0.0:6380", cfg.Server.Addr)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("server.idle_timeout = %v, want 2m", cfg.Server.IdleTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadFileMissing(t *testing.T) {
	var cfg testConfig
	l := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	if err := l.Load(&cfg); err == nil {
		t.Fatal("Load succeeded with a missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: "127.0.0.1:6379"
log:
  level: info
`)
	t.Setenv("CACHELET_LOG_LEVEL", "warn")

	var cfg testConfig
	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn (env override)", cfg.Log.Level)
	}
	if cfg.Server.Addr != "127.0.0.1:6379" {
		t.Errorf("server.addr = %q, want file value", cfg.Server.Addr)
	}
}

func TestEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_LOG_LEVEL", "error")
	t.Setenv("CACHELET_LOG_LEVEL", "debug")

	var cfg testConfig
	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Log.Level != "error" {
		t.Errorf("log.level = %q, want error (MYAPP_ prefix only)", cfg.Log.Level)
	}
}

func TestLoadMapOverridesAll(t *testing.T) {
	path := writeConfigFile(t, `
server:
  addr: "127.0.0.1:6379"
`)
	t.Setenv("CACHELET_SERVER_ADDR", "127.0.0.1:7000")

	var cfg testConfig
	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := l.LoadMap(map[string]any{"server.addr": "127.0.0.1:8000"}); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:8000" {
		t.Errorf("server.addr = %q, want map value", cfg.Server.Addr)
	}
}

func TestLoadMapDottedKeysUnmarshal(t *testing.T) {
	// Dotted map keys must land on the nested struct fields, not on a
	// literal top-level "server.addr" entry.
	var cfg testConfig
	l := NewLoader()
	if err := l.LoadMap(map[string]any{
		"server.addr": "127.0.0.1:9000",
		"log.level":   "debug",
	}); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("server.addr = %q, want 127.0.0.1:9000", cfg.Server.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q, want debug", cfg.Log.Level)
	}
}

func TestGetString(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"log.level": "debug"}); err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if got := l.GetString("log.level"); got != "debug" {
		t.Errorf("GetString = %q, want debug", got)
	}
}
