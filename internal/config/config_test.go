package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  port: "9090"
  public_url: https://forms.example.com/
storage:
  driver: sqlite
redis:
  addr: localhost:6379
  ttl: 5m
forms:
  cache_ttl: 30s
summary:
  delay: 2s
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Server.PublicURL != "https://forms.example.com/" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Storage.Driver != DriverSQLite || cfg.Storage.SQLitePath != "formflow.db" {
		t.Fatalf("unexpected storage config %+v", cfg.Storage)
	}
	if TTLDuration(cfg.Summary.Delay, 0) != 2*time.Second {
		t.Fatalf("unexpected summary delay %q", cfg.Summary.Delay)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverMemory {
		t.Fatalf("expected memory driver, got %q", cfg.Storage.Driver)
	}
}

func TestLoadPostgresURLSelectsPostgres(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte("postgres:\n  url: postgres://localhost/forms\n"), 0o600)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.Storage.Driver)
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("bogus", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on parse error, got %v", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %v", got)
	}
}
