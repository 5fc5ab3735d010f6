package configs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("http port = %d, want 8080", cfg.HTTP.Port)
	}
	if cfg.Sweeper.Interval != 5*time.Minute {
		t.Errorf("sweep interval = %v, want 5m", cfg.Sweeper.Interval)
	}
	if cfg.Sweeper.GraceWindow != 30*time.Minute {
		t.Errorf("grace window = %v, want 30m", cfg.Sweeper.GraceWindow)
	}
	if cfg.Sweeper.MaxAge != 24*time.Hour {
		t.Errorf("max age = %v, want 24h", cfg.Sweeper.MaxAge)
	}
	if cfg.Token.TTL != 6*time.Hour {
		t.Errorf("token ttl = %v, want 6h", cfg.Token.TTL)
	}
	if cfg.Token.IdentityHeader != "X-User-ID" {
		t.Errorf("identity header = %q, want X-User-ID", cfg.Token.IdentityHeader)
	}
	if cfg.RateLimiter.MaxRatePerSecond != 10 {
		t.Errorf("rate = %d, want 10", cfg.RateLimiter.MaxRatePerSecond)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "1")
	t.Setenv("ROOM_GRACE_WINDOW_MINUTES", "10")
	t.Setenv("ROOM_MAX_AGE_HOURS", "48")
	t.Setenv("TOKEN_TTL_MINUTES", "90")
	t.Setenv("TOKEN_IDENTITY_HEADER", "X-Auth-User")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("http port = %d, want 9090", cfg.HTTP.Port)
	}
	if cfg.Sweeper.Interval != time.Minute {
		t.Errorf("sweep interval = %v, want 1m", cfg.Sweeper.Interval)
	}
	if cfg.Sweeper.GraceWindow != 10*time.Minute {
		t.Errorf("grace window = %v, want 10m", cfg.Sweeper.GraceWindow)
	}
	if cfg.Sweeper.MaxAge != 48*time.Hour {
		t.Errorf("max age = %v, want 48h", cfg.Sweeper.MaxAge)
	}
	if cfg.Token.TTL != 90*time.Minute {
		t.Errorf("token ttl = %v, want 90m", cfg.Token.TTL)
	}
	if cfg.Token.IdentityHeader != "X-Auth-User" {
		t.Errorf("identity header = %q, want X-Auth-User", cfg.Token.IdentityHeader)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
http:
  port: 7070
sweeper:
  grace_window: 15m
token:
  identity_header: X-Proxy-User
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.HTTP.Port != 7070 {
		t.Errorf("http port = %d, want 7070", cfg.HTTP.Port)
	}
	if cfg.Sweeper.GraceWindow != 15*time.Minute {
		t.Errorf("grace window = %v, want 15m", cfg.Sweeper.GraceWindow)
	}
	if cfg.Token.IdentityHeader != "X-Proxy-User" {
		t.Errorf("identity header = %q, want X-Proxy-User", cfg.Token.IdentityHeader)
	}
	// Untouched keys keep their defaults
	if cfg.Sweeper.MaxAge != 24*time.Hour {
		t.Errorf("max age = %v, want the 24h default", cfg.Sweeper.MaxAge)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a nonexistent config path")
	}
}
