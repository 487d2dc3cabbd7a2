package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Version  string
	// Credentials enables POST /api/v1/auth/token. Optional.
	Credentials Authenticator
	// Checks are reported by GET /api/v1/health under their names.
	Checks map[string]HealthChecker
}

// Server is the HTTP transport of the controller.
//
// New builds the router and the dispatch handle; Start binds the listener
// synchronously and serves in the background until Close.
type Server struct {
	cfg         config.APIConfig
	secCfg      config.SecurityConfig
	logger      *logging.Logger
	version     string
	credentials Authenticator
	checks      map[string]HealthChecker
	dispatcher  *Dispatcher
	hub         *Hub
	handler     http.Handler

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
	cancel context.CancelFunc
}

// New creates a server. Nothing is bound until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &Server{
		cfg:         deps.Config,
		secCfg:      deps.Security,
		logger:      deps.Logger,
		version:     deps.Version,
		credentials: deps.Credentials,
		checks:      deps.Checks,
		dispatcher:  NewDispatcher(),
		hub:         NewHub(deps.WS, deps.Logger),
	}
	s.dispatcher.Get("/health", s.handleHealth)
	s.dispatcher.Get("/ws", s.hub.ServeHTTP)
	if s.credentials != nil && s.secCfg.JWT.Secret != "" {
		s.dispatcher.Post(LoginPath, s.handleLogin)
	}
	s.handler = s.buildRouter()
	return s, nil
}

// SetLogger replaces the logger used by the middleware and the hub.
// It must be called before Start.
func (s *Server) SetLogger(logger *logging.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
	s.hub.logger = logger
}

// Dispatcher returns the dispatch handle mounted under /api/v1.
func (s *Server) Dispatcher() *Dispatcher { return s.dispatcher }

// Hub returns the WebSocket event hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the root HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.handler }

// Start binds the listener and serves in a background goroutine.
//
// Binding is synchronous: when Start returns nil the port is open and
// Addr reports it. Serving continues until Close, even after ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return ErrAlreadyStarted
	}

	address := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBindFailed, address, err)
	}

	var hubCtx context.Context
	hubCtx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       secondsOr(s.cfg.Timeouts.Read, 30),
		ReadHeaderTimeout: secondsOr(s.cfg.Timeouts.Read, 30),
		WriteTimeout:      secondsOr(s.cfg.Timeouts.Write, 30),
		IdleTimeout:       secondsOr(s.cfg.Timeouts.Idle, 60),
	}
	s.server = srv
	s.addr = ln.Addr()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server listening", "address", s.addr.String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	cancel := s.cancel
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.Addr() == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

func secondsOr(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
