// Package http serves the index over a JSON API built on echo.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/metadex/internal/index"
	"github.com/fyrsmithlabs/metadex/internal/logging"
	"github.com/fyrsmithlabs/metadex/internal/lookup"
	"github.com/fyrsmithlabs/metadex/internal/meta"
)

// Index is the part of index.Service the API serves.
type Index interface {
	Reload(ctx context.Context) (*index.Result, error)
	LastReload() *index.Result
	Registry() *meta.Registry
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
	// ReloadInterval and ReloadBurst throttle POST /api/v1/reload.
	ReloadInterval time.Duration
	ReloadBurst    int
	// Gatherer backs /metrics; nil means the prometheus default registry.
	Gatherer prometheus.Gatherer
}

func (c Config) withDefaults() Config {
	if c.ReloadInterval <= 0 {
		c.ReloadInterval = 30 * time.Second
	}
	if c.ReloadBurst <= 0 {
		c.ReloadBurst = 1
	}
	if c.Gatherer == nil {
		c.Gatherer = prometheus.DefaultGatherer
	}
	return c
}

// Server is the metadex API.
type Server struct {
	echo    *echo.Echo
	index   Index
	lookup  *lookup.Service
	limiter *rate.Limiter
	logger  *zap.Logger
	config  Config
}

// NewServer wires routes and middleware. A nil cfg serves on localhost:9191.
func NewServer(idx Index, lk *lookup.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if idx == nil || lk == nil {
		return nil, errors.New("index and lookup services are required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	c := Config{Host: "localhost", Port: 9191}
	if cfg != nil {
		c = *cfg
	}
	c = c.withDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		newRequestMetrics(otel.Meter(instrumentationName), logger).middleware(),
		accessLog(logger),
	)

	s := &Server{
		echo:    e,
		index:   idx,
		lookup:  lk,
		limiter: rate.NewLimiter(rate.Every(c.ReloadInterval), c.ReloadBurst),
		logger:  logger,
		config:  c,
	}
	s.routes()
	return s, nil
}

// accessLog tags the request context with its id, renders handler errors
// and logs one line per request.
func accessLog(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))

			if err := next(c); err != nil {
				c.Error(err)
			}
			logger.Info("http request",
				zap.String("method", req.Method),
				zap.String("uri", req.RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", id),
			)
			return nil
		}
	}
}

func (s *Server) routes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/types", s.handleTypes)
	v1.GET("/search/:type", s.handleSearch)
	v1.GET("/list/:type", s.handleList)
	v1.GET("/pages/:id", s.handlePage)
	v1.POST("/reload", s.handleReload)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens until Shutdown. It returns http.ErrServerClosed after a
// clean shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.echo.Shutdown(ctx)
}
