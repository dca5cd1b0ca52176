package api

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/bioreactor-core/internal/chart"
	"github.com/nerrad567/bioreactor-core/internal/control"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/config"
	"github.com/nerrad567/bioreactor-core/internal/infrastructure/logging"
	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker reports whether a backing dependency is usable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

// HealthCheck calls f(ctx).
func (f HealthCheckFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	Logger       *logging.Logger
	Control      control.Repository
	Measurements measurement.Repository
	Renderer     *chart.Renderer
	Database     HealthChecker // optional; /health reports "ok" without it
	Version      string

	// Now and Rand drive mock data generation. Both default when nil.
	// Rand is only used under the server's lock.
	Now  func() time.Time
	Rand *rand.Rand
}

// Server is the HTTP API server for the bioreactor.
//
// It manages the HTTP listener, routes and middleware.
// The server is created with New() and started with Start().
type Server struct {
	cfg          config.APIConfig
	logger       *logging.Logger
	control      control.Repository
	measurements measurement.Repository
	engine       *measurement.Engine
	renderer     *chart.Renderer
	database     HealthChecker
	version      string
	now          func() time.Time
	rngMu        sync.Mutex
	rng          *rand.Rand
	metrics      *metrics
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, repositories, renderer)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Control == nil {
		return nil, fmt.Errorf("control repository is required")
	}
	if deps.Measurements == nil {
		return nil, fmt.Errorf("measurement repository is required")
	}
	if deps.Renderer == nil {
		return nil, fmt.Errorf("chart renderer is required")
	}

	s := &Server{
		cfg:          deps.Config,
		logger:       deps.Logger.With("component", "api"),
		control:      deps.Control,
		measurements: deps.Measurements,
		engine:       measurement.NewEngine(deps.Measurements),
		renderer:     deps.Renderer,
		database:     deps.Database,
		version:      deps.Version,
		now:          deps.Now,
		rng:          deps.Rand,
		metrics:      newMetrics(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rng == nil {
		//nolint:gosec // Mock readings need no cryptographic randomness
		s.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return s, nil
}

// Handler returns the fully wired router. Start uses it; tests and embedders
// can serve it directly.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
//
// Returns:
//   - error: If the server was already started
func (s *Server) Start(_ context.Context) error {
	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and its database reachable.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	if s.database != nil {
		if err := s.database.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api health check: %w", err)
		}
	}
	return nil
}
