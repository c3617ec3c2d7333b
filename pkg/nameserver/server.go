package nameserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/metrics"
)

// ServerConfig holds the TCP server parameters for the name server.
//
// Default values (applied by NewServer if zero):
//   - MaxConnections: 0 (unlimited)
//   - ShutdownTimeout: 30s
type ServerConfig struct {
	// Addr is the listen address (host:port). Clients and storage server
	// registrations share it; tests pass "127.0.0.1:0".
	Addr string `mapstructure:"addr"`

	// MaxConnections limits concurrent connections. When reached, new
	// connections wait until existing ones close. 0 means unlimited.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// ShutdownTimeout is the maximum wait for active connections during
	// graceful shutdown. Remaining connections are then force-closed.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

func (c *ServerConfig) applyDefaults() {
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

func (c *ServerConfig) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid MaxConnections %d: must be >= 0", c.MaxConnections)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid ShutdownTimeout %v: must be > 0", c.ShutdownTimeout)
	}
	return nil
}

// Server accepts name server connections and serves one framed request
// per connection (a WRITE bridge holds its connection for the whole
// interactive session).
//
// Shutdown flow:
//  1. Context cancelled or Stop() called
//  2. Listener closed (no new connections)
//  3. shutdownCtx cancelled and blocked reads interrupted
//  4. Wait for active connections up to ShutdownTimeout
//  5. Force-close whatever remains
type Server struct {
	config ServerConfig
	router *Router

	// metrics is optional; nil disables collection.
	metrics metrics.RouterMetrics

	listener      net.Listener
	listenerMu    sync.RWMutex
	listenerReady chan struct{}

	// activeConns tracks in-flight connection handlers for graceful
	// shutdown; activeConnections maps remote address to net.Conn for
	// forced closure.
	activeConns       sync.WaitGroup
	activeConnections sync.Map
	connCount         atomic.Int32

	// connSemaphore bounds concurrency when MaxConnections > 0.
	connSemaphore chan struct{}

	shutdownOnce   sync.Once
	shutdown       chan struct{}
	shutdownCtx    context.Context
	cancelRequests context.CancelFunc
}

// NewServer creates the name server front end for router.
//
// The server is created stopped; call Serve to start accepting. Zero
// config values get defaults. Panics on invalid config (programmer
// error).
func NewServer(router *Router, config ServerConfig, m metrics.RouterMetrics) *Server {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		panic(fmt.Sprintf("invalid name server config: %v", err))
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}

	shutdownCtx, cancelRequests := context.WithCancel(context.Background())

	return &Server{
		config:         config,
		router:         router,
		metrics:        m,
		listenerReady:  make(chan struct{}),
		connSemaphore:  connSemaphore,
		shutdown:       make(chan struct{}),
		shutdownCtx:    shutdownCtx,
		cancelRequests: cancelRequests,
	}
}

// Router returns the router this server fronts.
func (s *Server) Router() *Router { return s.router }

// Serve accepts connections until ctx is cancelled, then shuts down
// gracefully. Should only be called once per Server.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()
	close(s.listenerReady)

	logger.Info("name server listening",
		"address", listener.Addr(),
		"max_connections", s.config.MaxConnections)

	go func() {
		<-ctx.Done()
		logger.Info("name server shutdown signal received", "error", ctx.Err())
		s.initiateShutdown()
	}()

	for {
		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
			case <-s.shutdown:
				return s.gracefulShutdown()
			}
		}

		conn, err := listener.Accept()
		if err != nil {
			if s.connSemaphore != nil {
				<-s.connSemaphore
			}
			select {
			case <-s.shutdown:
				return s.gracefulShutdown()
			default:
				logger.Debug("error accepting connection", "error", err)
				continue
			}
		}

		s.activeConns.Add(1)
		s.connCount.Add(1)
		connAddr := conn.RemoteAddr().String()
		s.activeConnections.Store(connAddr, conn)

		if s.metrics != nil {
			s.metrics.RecordConnectionAccepted()
			s.metrics.SetActiveConnections(s.connCount.Load())
		}

		go func(addr string, conn net.Conn) {
			defer func() {
				s.activeConnections.Delete(addr)
				s.activeConns.Done()
				s.connCount.Add(-1)
				if s.connSemaphore != nil {
					<-s.connSemaphore
				}
				if s.metrics != nil {
					s.metrics.RecordConnectionClosed()
					s.metrics.SetActiveConnections(s.connCount.Load())
				}
			}()
			s.handleConn(conn)
		}(connAddr, conn)
	}
}

// handleConn serves one connection: a single framed request and its
// reply stream.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	err := s.router.HandleRequest(s.shutdownCtx, conn)
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Liveness probes connect and close without sending anything.
			logger.Debug("connection closed without a request", "address", conn.RemoteAddr())
			return
		}
		logger.Debug("connection error", "address", conn.RemoteAddr(), "error", err)
	}
}

// initiateShutdown begins graceful shutdown. Safe to call multiple
// times and from multiple goroutines.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)

		s.listenerMu.Lock()
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Debug("error closing listener", "error", err)
			}
		}
		s.listenerMu.Unlock()

		s.interruptBlockingReads()
		s.cancelRequests()
	})
}

// interruptBlockingReads sets a short deadline on all active connections
// so blocked reads (idle WRITE bridges) notice shutdown quickly.
func (s *Server) interruptBlockingReads() {
	deadline := time.Now().Add(100 * time.Millisecond)
	s.activeConnections.Range(func(key, value any) bool {
		if conn, ok := value.(net.Conn); ok {
			if err := conn.SetReadDeadline(deadline); err != nil {
				logger.Debug("error setting shutdown deadline", "address", key, "error", err)
			}
		}
		return true
	})
}

// gracefulShutdown waits for active connections up to ShutdownTimeout,
// then force-closes the rest.
func (s *Server) gracefulShutdown() error {
	logger.Info("name server graceful shutdown: waiting for active connections",
		"active", s.connCount.Load(),
		"timeout", s.config.ShutdownTimeout)

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("name server graceful shutdown complete")
		return nil
	case <-time.After(s.config.ShutdownTimeout):
		remaining := s.connCount.Load()
		logger.Warn("name server shutdown timeout exceeded, forcing closure", "active", remaining)
		s.forceCloseConnections()
		return fmt.Errorf("name server shutdown timeout: %d connections force-closed", remaining)
	}
}

// forceCloseConnections closes every tracked connection. WRITE bridges
// collapse and the storage side releases its locks through session
// teardown.
func (s *Server) forceCloseConnections() {
	s.activeConnections.Range(func(key, value any) bool {
		conn := value.(net.Conn)
		if err := conn.Close(); err != nil {
			logger.Debug("error force-closing connection", "address", key, "error", err)
		} else if s.metrics != nil {
			s.metrics.RecordConnectionForceClosed()
		}
		return true
	})
}

// Stop initiates graceful shutdown and waits for completion. A nil ctx
// waits up to the configured ShutdownTimeout; otherwise ctx bounds the
// wait. Safe to call multiple times.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	if ctx == nil {
		return s.gracefulShutdown()
	}

	done := make(chan struct{})
	go func() {
		s.activeConns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		logger.Warn("name server shutdown context cancelled", "active", s.connCount.Load(), "error", ctx.Err())
		return ctx.Err()
	}
}

// GetListenerAddr returns the bound address, blocking until the listener
// is ready. Tests use this with a ":0" port.
func (s *Server) GetListenerAddr() string {
	<-s.listenerReady

	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetActiveConnections returns the current number of in-flight
// connections.
func (s *Server) GetActiveConnections() int32 {
	return s.connCount.Load()
}
