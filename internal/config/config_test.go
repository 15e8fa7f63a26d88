package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("APP_PUBLIC_BASE_URL", "")

	cfg, err := Load("testdata/does-not-exist.env")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:3333" {
		t.Errorf("addr = %q", cfg.App.Addr())
	}
	if cfg.Auth.AccessTokenTTLMinutes != 24*60 {
		t.Errorf("token ttl = %d, want one day", cfg.Auth.AccessTokenTTLMinutes)
	}
	if !cfg.Logger.Development {
		t.Errorf("development logger expected by default")
	}
	if cfg.App.PublicBaseURL != "http://localhost:3333" {
		t.Errorf("base url = %q", cfg.App.PublicBaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_PUBLIC_BASE_URL", "https://help.example.com/")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "5")
	t.Setenv("AUTH_PRINCIPAL_CACHE_TTL_SECONDS", "0")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "not-a-bool")

	cfg, err := Load("testdata/does-not-exist.env")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Port != "9090" {
		t.Errorf("port = %q", cfg.App.Port)
	}
	if cfg.App.PublicBaseURL != "https://help.example.com" {
		t.Errorf("trailing slash not trimmed: %q", cfg.App.PublicBaseURL)
	}
	if cfg.App.RequestTimeout() != 5*time.Second {
		t.Errorf("timeout = %v", cfg.App.RequestTimeout())
	}
	if cfg.Auth.PrincipalCacheTTL() != 0 {
		t.Errorf("cache ttl = %v, want disabled", cfg.Auth.PrincipalCacheTTL())
	}
	if !cfg.Postgres.RunMigrations {
		t.Errorf("invalid bool must fall back to default true")
	}
}

func TestLoadRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	if _, err := Load("testdata/does-not-exist.env"); err == nil {
		t.Fatalf("expected error for default secret in production")
	}
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	if _, err := Load("testdata/does-not-exist.env"); err == nil {
		t.Fatalf("expected error for non-numeric REDIS_DB")
	}
}
