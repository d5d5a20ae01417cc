// Package server exposes the export handler over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/solace-dev/export-worker/internal/config"
	"github.com/solace-dev/export-worker/internal/obs/otel"
	"github.com/solace-dev/export-worker/internal/server/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	idleTimeout       = 120 * time.Second
	// added on top of the render timeout for writing the response
	writeSlack = 30 * time.Second

	rateLimitIdleTTL = 10 * time.Minute
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	engine *gin.Engine
	logger *logrus.Logger

	mu         sync.Mutex
	httpServer *http.Server
	stopped    bool

	// middleware
	authMW      *middleware.AuthMiddleware
	errorMW     *middleware.ErrorLogMiddleware
	rateLimiter *middleware.RateLimiter
	recorder    *otel.ExportRecorder

	version string
	now     func() time.Time
}

// ServerOption defines a functional option for Server configuration
type ServerOption func(*Server)

// WithVersion reports version on the health endpoint
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// WithLogger replaces the standard logrus logger used for access logs
func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRecorder records request metrics on rec
func WithRecorder(rec *otel.ExportRecorder) ServerOption {
	return func(s *Server) {
		s.recorder = rec
	}
}

// WithErrorLog appends selected requests to an error log
func WithErrorLog(mw *middleware.ErrorLogMiddleware) ServerOption {
	return func(s *Server) {
		s.errorMW = mw
	}
}

// WithClock overrides the clock used for health timestamps
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a new HTTP server instance with functional options.
// cfg must already be validated.
func NewServer(cfg *config.Config, opts ...ServerOption) (*Server, error) {
	s := &Server{
		config: cfg,
		logger: logrus.StandardLogger(),
		authMW: middleware.NewAuthMiddleware(cfg.AuthToken),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.recorder == nil {
		ms, err := otel.NewMeterSetup(context.Background(), &otel.Config{Enabled: false})
		if err != nil {
			return nil, err
		}
		s.recorder = ms.Recorder()
	}
	if cfg.RateLimit.Enabled {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, rateLimitIdleTTL)
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(middleware.Recovery(s.logger, otel.StatusInternalError, middleware.MsgInternalError))
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(s.logger))
	if s.errorMW != nil {
		r.Use(s.errorMW.Middleware())
	}

	// Health check endpoint (no auth required, no rate limit)
	r.GET("/health", s.handleHealth)

	// Every other path reaches the export handler.
	chain := []gin.HandlerFunc{
		middleware.Metrics(s.recorder),
		middleware.Recovery(s.logger, otel.StatusRenderError, middleware.MsgRenderingFailed),
	}
	if s.rateLimiter != nil {
		chain = append(chain, s.rateLimiter.Middleware())
	}
	chain = append(chain,
		requirePost(),
		s.authMW.BearerAuth(),
		middleware.BodyLimit(s.config.MaxBodyBytes),
		s.handleExport,
	)
	r.NoRoute(chain...)

	s.engine = r
}

func (s *Server) handleHealth(c *gin.Context) {
	resp := gin.H{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	}
	if s.version != "" {
		resp["version"] = s.version
	}
	c.JSON(http.StatusOK, resp)
}

// Handler returns the Gin engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and serves until Stop is called
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called. A clean shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      s.config.RenderTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ln.Close()
	}
	s.httpServer = srv
	s.mu.Unlock()

	logrus.Infof("export-worker listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		logrus.Info("Shutting down server...")
		err = srv.Shutdown(ctx)
	}

	// closed after in-flight requests have drained
	if s.errorMW != nil {
		s.errorMW.Stop()
	}
	return err
}
