package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Server.Host != "0.0.0.0" {
		t.Fatalf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Database.DSN != "" {
		t.Fatalf("expected empty DSN, got %q", cfg.Database.DSN)
	}
}

func TestLoadReadsFileAndAppliesEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  host: 127.0.0.1
  port: 9090
logging:
  level: debug
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("FUELTAG_SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "postgres://localhost/fueltag_test")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Fatalf("file value ignored: %+v", cfg.Server)
	}
	if cfg.Server.Port != 7070 {
		t.Fatalf("env override ignored: %+v", cfg.Server)
	}
	if cfg.Database.DSN != "postgres://localhost/fueltag_test" {
		t.Fatalf("DATABASE_URL ignored: %+v", cfg.Database)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging file value ignored: %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("FUELTAG_SERVER_PORT", "-1")
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected invalid port error")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected parse error")
	}
}
