// Package diag serves the diagnostic HTTP endpoints: liveness, Prometheus
// metrics and a JSON status snapshot. The server is optional and only
// started when enabled in the configuration.
package diag

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tphakala/birdwatch-go/internal/conf"
	"github.com/tphakala/birdwatch-go/internal/errors"
	"github.com/tphakala/birdwatch-go/internal/logging"
	"github.com/tphakala/birdwatch-go/internal/observability"
)

const shutdownTimeout = 5 * time.Second

var diagLogger *slog.Logger

func init() {
	var err error
	diagLogger, _, err = logging.NewFileLogger("logs/diag.log", "diag", slog.LevelInfo)
	if err != nil {
		logging.Error("Failed to initialize diag file logger", "error", err)
		diagLogger = logging.DiscardLogger("diag", slog.LevelInfo)
	}
}

// ComponentCheck reports the health of one pipeline component
type ComponentCheck func() ComponentStatus

// ComponentStatus describes the current state of a component
type ComponentStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// StatusCounts supplies application level counters for the status endpoint
type StatusCounts func() map[string]any

// Server exposes the diagnostic endpoints over HTTP
type Server struct {
	echo      *echo.Echo
	listen    string
	metrics   *observability.Metrics
	startTime time.Time

	mu     sync.RWMutex
	checks []ComponentCheck
	counts StatusCounts
}

// NewServer creates a diagnostic server bound to the configured address
func NewServer(settings *conf.DiagSettings, m *observability.Metrics) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:      e,
		listen:    settings.Listen,
		metrics:   m,
		startTime: time.Now(),
	}
	s.registerRoutes()
	return s
}

// RegisterCheck adds a component health check
func (s *Server) RegisterCheck(check ComponentCheck) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks = append(s.checks, check)
}

// SetStatusCounts sets the supplier of application counters
func (s *Server) SetStatusCounts(counts StatusCounts) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = counts
}

// Start serves until the listener fails or Stop is called
func (s *Server) Start() error {
	diagLogger.Info("diagnostic server starting", "listen", s.listen)
	if err := s.echo.Start(s.listen); err != nil && err != http.ErrServerClosed {
		return errors.New(err).
			Component("diag").
			Category(errors.CategoryNetwork).
			Context("listen", s.listen).
			Build()
	}
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/api/v1/status", s.handleStatus)
	if s.metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}
}

func (s *Server) handleHealthz(c echo.Context) error {
	s.mu.RLock()
	checks := s.checks
	s.mu.RUnlock()

	components := make([]ComponentStatus, 0, len(checks))
	healthy := true
	for _, check := range checks {
		status := check()
		if !status.Healthy {
			healthy = false
		}
		components = append(components, status)
	}

	code := http.StatusOK
	state := "ok"
	if !healthy {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}

	return c.JSON(code, map[string]any{
		"status":     state,
		"components": components,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	system, err := collectSystemInfo(s.startTime)
	if err != nil {
		diagLogger.Warn("system info collection failed", "error", err)
	}

	resources, err := collectResourceInfo()
	if err != nil {
		diagLogger.Warn("resource info collection failed", "error", err)
	}

	status := map[string]any{
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"system":         system,
		"resources":      resources,
	}

	s.mu.RLock()
	counts := s.counts
	s.mu.RUnlock()
	if counts != nil {
		status["counts"] = counts()
	}

	return c.JSON(http.StatusOK, status)
}
