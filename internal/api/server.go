// Package api exposes the recovery engine's operations over HTTP JSON.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/caresignal/recovery-engine/internal/config"
	"github.com/caresignal/recovery-engine/internal/services"
)

// Server wraps the echo instance and lifecycle helpers.
type Server struct {
	cfg    config.ServerConfig
	echo   *echo.Echo
	logger *slog.Logger
}

// NewServer constructs the HTTP server and registers all routes. Rate
// limiting is enabled when the config carries a positive per-second rate;
// the health probe is never limited.
func NewServer(cfg config.ServerConfig, svc *services.LearningService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.RatePerSecond > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Skipper: func(c echo.Context) bool { return c.Path() == "/healthz" },
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RatePerSecond),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}
	e.Use(requestLogger(logger))

	s := &Server{cfg: cfg, echo: e, logger: logger}
	s.registerRoutes(&handlers{svc: svc, logger: logger})
	return s
}

func (s *Server) registerRoutes(h *handlers) {
	s.echo.GET("/healthz", h.health)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/patterns", h.observePattern)
	v1.GET("/patterns/:id", h.getPattern)
	v1.GET("/patterns/:id/recommendation", h.recommend)
	v1.POST("/outcomes", h.recordOutcome)
	v1.GET("/clusters", h.listClusters)
	v1.GET("/clusters/:id", h.getCluster)
	v1.GET("/strategies", h.listStrategies)
	v1.GET("/insights", h.insights)
	v1.GET("/learning/export", h.exportState)
	v1.POST("/learning/import", h.importState)
	v1.POST("/maintenance/sweep", h.sweep)
	v1.POST("/sync", h.syncPlatform)
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				slog.String("method", c.Request().Method),
				slog.String("uri", c.Request().RequestURI),
				slog.Int("status", c.Response().Status),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	}
}

// Handler returns the routing tree, used by tests to drive requests without
// a listener.
func (s *Server) Handler() http.Handler { return s.echo }

// Start begins serving and blocks until shutdown or listener failure.
func (s *Server) Start() error {
	s.logger.Info("starting http server", slog.String("addr", s.cfg.Address))
	return s.echo.Start(s.cfg.Address)
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
