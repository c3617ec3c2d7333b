package admin

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/quillfs/quillfs/internal/admin/auth"
	"github.com/quillfs/quillfs/internal/logger"
)

// Server provides the admin HTTP server.
//
// The server is created stopped; call Start to begin serving. It supports
// graceful shutdown and can bind port 0 for tests (GetListenerAddr
// reports the real address).
type Server struct {
	server *http.Server
	config Config

	listener      net.Listener
	listenerMu    sync.RWMutex
	listenerReady chan struct{}

	shutdownOnce sync.Once
}

// NewServer creates the admin HTTP server.
//
// The JWT service is created internally from the config. The signing
// secret must be configured via config.JWT.Secret or the
// QUILLFS_ADMIN_SECRET environment variable and be at least 32
// characters long.
func NewServer(config Config, deps Deps) (*Server, error) {
	config.applyDefaults()

	jwtSecret := config.GetJWTSecret()
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("JWT secret must be at least 32 characters; set via %s env var or config", EnvAdminSecret)
	}

	jwtService, err := auth.NewJWTService(auth.Config{
		Secret:        jwtSecret,
		TokenDuration: config.JWT.TokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	router := NewRouter(deps, jwtService)

	return &Server{
		server: &http.Server{
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
		config:        config,
		listenerReady: make(chan struct{}),
	}, nil
}

// Start starts the admin HTTP server and blocks until the context is
// cancelled or the server fails. Cancellation triggers graceful
// shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	close(s.listenerReady)

	logger.Info("admin server listening", "address", listener.Addr())

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("admin server shutdown signal received")
		// Fresh context: the cancelled one would abort the drain
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("admin server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("admin server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin server shutdown error: %w", err)
			logger.Error("admin server shutdown error", "error", err)
		} else {
			logger.Info("admin server stopped gracefully")
		}
	})
	return shutdownErr
}

// GetListenerAddr returns the bound address, blocking until the listener
// is ready. Tests use this with port 0.
func (s *Server) GetListenerAddr() string {
	<-s.listenerReady

	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port returns the configured port. When the config asked for port 0 the
// bound port comes from GetListenerAddr instead.
func (s *Server) Port() int {
	return s.config.Port
}
