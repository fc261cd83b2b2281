// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, token signing, lockout
// policy, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// JWTConfig defines bearer-token signing settings.
type JWTConfig struct {
	Secret string        // JWT_SECRET (HMAC signing key)
	TTL    time.Duration // JWT_TTL (declared token lifetime)
}

// AuthConfig defines the progressive-lockout policy applied to failed
// client-credential checks.
type AuthConfig struct {
	MaxAttempts     int           // AUTH_MAX_ATTEMPTS: failures before locking
	LockoutDuration time.Duration // AUTH_LOCKOUT_DURATION: how long a lock holds
}

// RateLimitConfig defines the per-identity token-bucket shape.
type RateLimitConfig struct {
	Capacity       int           // bucket size (max burst)
	RefillTokens   int           // tokens restored per interval
	RefillInterval time.Duration // refill window
	IdleTTL        time.Duration // evict buckets idle this long
	MaxBuckets     int           // hard cap on tracked identities
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	// App
	DBPath string // SQLite path

	// Security
	JWT      JWTConfig
	Auth     AuthConfig
	Rate     RateLimitConfig
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		// App
		DBPath: getenv("DB_PATH", "payments.db"),

		// Token signing
		JWT: JWTConfig{
			Secret: getenv("JWT_SECRET", ""),
			TTL:    getdur("JWT_TTL", time.Hour),
		},

		// Lockout policy
		Auth: AuthConfig{
			MaxAttempts:     getint("AUTH_MAX_ATTEMPTS", 3),
			LockoutDuration: getdur("AUTH_LOCKOUT_DURATION", 15*time.Minute),
		},

		// Rate limiting
		Rate: RateLimitConfig{
			Capacity:       getint("RATE_CAPACITY", 5),
			RefillTokens:   getint("RATE_REFILL_TOKENS", 5),
			RefillInterval: getdur("RATE_REFILL_INTERVAL", time.Minute),
			IdleTTL:        getdur("RATE_IDLE_TTL", 10*time.Minute),
			MaxBuckets:     getint("RATE_MAX_BUCKETS", 10000),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-payments-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg, errors.New("JWT_SECRET must not be empty")
	}
	if cfg.JWT.TTL <= 0 {
		return cfg, errors.New("JWT_TTL must be > 0")
	}
	if cfg.Auth.MaxAttempts < 1 {
		return cfg, errors.New("AUTH_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Auth.LockoutDuration <= 0 {
		return cfg, errors.New("AUTH_LOCKOUT_DURATION must be > 0")
	}
	if cfg.Rate.Capacity < 1 {
		return cfg, errors.New("RATE_CAPACITY must be >= 1")
	}
	if cfg.Rate.RefillTokens < 1 {
		return cfg, errors.New("RATE_REFILL_TOKENS must be >= 1")
	}
	if cfg.Rate.RefillInterval <= 0 {
		return cfg, errors.New("RATE_REFILL_INTERVAL must be > 0")
	}
	if cfg.Rate.IdleTTL <= 0 {
		return cfg, errors.New("RATE_IDLE_TTL must be > 0")
	}
	if cfg.Rate.MaxBuckets < 1 {
		return cfg, errors.New("RATE_MAX_BUCKETS must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
