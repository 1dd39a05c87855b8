package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/news-reducer/internal/domain/auth"
	"github.com/yanqian/news-reducer/internal/infra/config"
	"github.com/yanqian/news-reducer/internal/infra/ratelimit"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
// authSvc is only consulted when auth is enabled in cfg.
func NewRouter(cfg *config.Config, handler *Handler, authSvc auth.Service, limiter ratelimit.Limiter, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	logger = logger.With("component", "http.router")

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(logger),
	)

	router.GET("/healthz", handler.Health)

	api := router.Group("/api/v1")
	api.Use(
		bodyLimitMiddleware(cfg.HTTP.MaxBodyBytes),
		rateLimitMiddleware(cfg.HTTP.RateLimit, limiter, logger),
	)
	if cfg.Auth.Enabled && authSvc != nil {
		api.Use(authMiddleware(authSvc))
	}
	{
		api.POST("/summaries", handler.Summarize)
		api.POST("/summaries/annotated", handler.SummarizeAnnotated)
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, cfg.HTTP.MaxBodyBytes, logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds(), "request_id", requestID(c))
	}
}
