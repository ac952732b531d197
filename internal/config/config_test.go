package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "crm")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "crm")
	t.Setenv("DB_SSLMODE", "disable")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("JWT_REFRESH_TTL", "")
	t.Setenv("UPLOADS_DIR", "")
	t.Setenv("MAX_CONCURRENT_CALLS", "")
}

func TestLoad_AppliesDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default access TTL, got %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 30*24*time.Hour {
		t.Fatalf("expected default refresh TTL, got %v", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Uploads.Dir != "uploads" {
		t.Fatalf("expected default uploads dir, got %q", cfg.Uploads.Dir)
	}
	if cfg.Uploads.MaxConcurrentCalls != 1 {
		t.Fatalf("expected default concurrent call cap 1, got %d", cfg.Uploads.MaxConcurrentCalls)
	}
	if cfg.HTTPAddr() != ":8080" {
		t.Fatalf("unexpected http addr %q", cfg.HTTPAddr())
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr())
	}
}

func TestLoad_CollectsAllErrors(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "DB_HOST") || !strings.Contains(msg, "JWT_SECRET") {
		t.Fatalf("expected both failures reported, got %q", msg)
	}
}

func TestLoad_RejectsUnknownEnvName(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "prod") // must be spelled "production"

	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_ProductionRequiresIssuerAudience(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_AUDIENCE", "")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "JWT_ISSUER") {
		t.Fatalf("expected issuer failure, got %q", err)
	}
}

func TestLoad_InvalidMaxConcurrentCalls(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_CONCURRENT_CALLS", "many")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}
