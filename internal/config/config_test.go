package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsWithRequiredSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release", cfg.GinMode)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.JWT.TTL != time.Hour {
		t.Fatalf("JWT.TTL = %v, want 1h", cfg.JWT.TTL)
	}
	if cfg.Auth.MaxAttempts != 3 || cfg.Auth.LockoutDuration != 15*time.Minute {
		t.Fatalf("lockout policy = %+v", cfg.Auth)
	}
	if cfg.Rate.Capacity != 5 || cfg.Rate.RefillTokens != 5 || cfg.Rate.RefillInterval != time.Minute {
		t.Fatalf("rate policy = %+v", cfg.Rate)
	}
	if cfg.Rate.MaxBuckets != 10000 {
		t.Fatalf("Rate.MaxBuckets = %d, want 10000", cfg.Rate.MaxBuckets)
	}
	if len(cfg.CORS.AllowedOrigins) != 0 {
		t.Fatalf("AllowedOrigins = %v, want empty", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for a missing JWT_SECRET")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "bogus")
	t.Setenv("AUTH_MAX_ATTEMPTS", "5")
	t.Setenv("AUTH_LOCKOUT_DURATION", "30m")
	t.Setenv("RATE_CAPACITY", "10")
	t.Setenv("RATE_REFILL_INTERVAL", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "9090" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	// "warning" normalizes to "warn"; unknown gin modes fall back to release.
	if cfg.LogLevel != "warn" {
		t.Fatalf("LogLevel = %q, want warn", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q, want release", cfg.GinMode)
	}
	if cfg.Auth.MaxAttempts != 5 || cfg.Auth.LockoutDuration != 30*time.Minute {
		t.Fatalf("lockout policy = %+v", cfg.Auth)
	}
	if cfg.Rate.Capacity != 10 || cfg.Rate.RefillInterval != 30*time.Second {
		t.Fatalf("rate policy = %+v", cfg.Rate)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_InvalidBoundsFail(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"bad log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"zero attempts", map[string]string{"AUTH_MAX_ATTEMPTS": "0"}},
		{"zero capacity", map[string]string{"RATE_CAPACITY": "0"}},
		{"negative ttl", map[string]string{"JWT_TTL": "-1h"}},
		{"bad sample ratio", map[string]string{"OTEL_TRACES_SAMPLER_ARG": "1.5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "test-secret")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected a validation error")
			}
		})
	}
}
