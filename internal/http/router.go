// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, rate limiting, and bearer authentication.
//
// Design goals:
//   - The rate-limit gate runs before any endpoint logic
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/connectmoney/go-payments-backend/internal/config"
	"github.com/connectmoney/go-payments-backend/internal/http/handlers"
	"github.com/connectmoney/go-payments-backend/internal/http/middleware"
	"github.com/connectmoney/go-payments-backend/internal/services"
	"github.com/connectmoney/go-payments-backend/internal/token"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter + gzip
//  6. Metrics
//  7. Rate limiter: the admission gate precedes all endpoint logic
//  8. CORS and security headers
//
// The token endpoint is public; the transaction endpoint requires a valid
// bearer token.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Per-identity token-bucket admission gate
	rl := middleware.NewRateLimiter(middleware.RateLimiterOptions{
		Capacity:       cfg.Rate.Capacity,
		RefillTokens:   cfg.Rate.RefillTokens,
		RefillInterval: cfg.Rate.RefillInterval,
		IdleTTL:        cfg.Rate.IdleTTL,
		MaxBuckets:     cfg.Rate.MaxBuckets,
	})
	r.Use(rl.Handler())

	// 8) CORS posture: fixed allow-list, GET/POST only, credentials allowed.
	// Without a configured allow-list no cross-origin access is granted.
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST"},
			AllowHeaders:     []string{"Authorization", "Content-Type", handlers.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           1 * time.Hour,
		}))
	}

	// Security headers; token and transaction responses are never cacheable.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStore:    true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Dependency injection: services ← repo/db/issuer
	issuer := token.NewJWTIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	authSvc := &services.AuthService{
		DB:              db,
		Issuer:          issuer,
		MaxAttempts:     cfg.Auth.MaxAttempts,
		LockoutDuration: cfg.Auth.LockoutDuration,
	}
	txnSvc := &services.TransactionService{DB: db}
	h := handlers.New(authSvc, txnSvc, db)

	// Public API
	v1 := r.Group("/v1")
	{
		v1.POST("/protocol/openid-connect/token", h.IssueToken)

		protected := v1.Group("", middleware.BearerAuth(issuer))
		protected.POST("/transactions", h.SubmitTransaction)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
