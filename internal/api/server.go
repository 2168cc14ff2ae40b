package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/javen-yan/miot-agent/internal/audit"
	"github.com/javen-yan/miot-agent/internal/infrastructure/config"
	"github.com/javen-yan/miot-agent/internal/infrastructure/logging"
	"github.com/javen-yan/miot-agent/internal/tool"
)

const (
	gracefulShutdownTimeout = 10 * time.Second
	healthCheckTimeout      = 5 * time.Second
)

// Catalog is the read side of the tool registry. *tool.Registry
// implements it.
type Catalog interface {
	Get(name string) (tool.Tool, bool)
	Tools() []tool.Tool
	ToolsByCategory(category string) []tool.Tool
	Categories() []string
	OpenAITools() []openai.Tool
}

// DeviceStatus reports the cloud connection. *device.Adapter implements it.
type DeviceStatus interface {
	Connected() bool
	DeviceCount() int
}

// HealthChecker is an infrastructure dependency reported by GET /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the server's dependencies. Device, History and Checks are
// optional.
type Deps struct {
	Config   config.APIConfig
	Logger   *logging.Logger
	Executor tool.Executor
	Catalog  Catalog
	Device   DeviceStatus
	History  audit.Repository
	Checks   map[string]HealthChecker
	Version  string
}

// Server is the HTTP tool API.
type Server struct {
	cfg      config.APIConfig
	logger   *logging.Logger
	executor tool.Executor
	catalog  Catalog
	device   DeviceStatus
	history  audit.Repository
	checks   map[string]HealthChecker
	version  string

	server   *http.Server
	listener net.Listener
}

// New validates deps and returns an unstarted server.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Executor == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("tool executor and catalog are required")
	}
	return &Server{
		cfg:      deps.Config,
		logger:   deps.Logger,
		executor: deps.Executor,
		catalog:  deps.Catalog,
		device:   deps.Device,
		history:  deps.History,
		checks:   deps.Checks,
		version:  deps.Version,
	}, nil
}

// Start binds the listen address and serves in the background.
func (s *Server) Start(_ context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close waits up to 10 seconds for in-flight requests, then stops.
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
