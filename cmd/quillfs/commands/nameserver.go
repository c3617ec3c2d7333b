package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/admin"
	"github.com/quillfs/quillfs/pkg/config"
	"github.com/quillfs/quillfs/pkg/metrics"
	"github.com/quillfs/quillfs/pkg/metrics/prometheus"
	"github.com/quillfs/quillfs/pkg/nameserver"
	"github.com/quillfs/quillfs/pkg/users"
)

var (
	nsForeground bool
	nsPidFile    string
	nsLogFile    string
)

var nameserverCmd = &cobra.Command{
	Use:   "nameserver",
	Short: "Run the name server",
	Long: `Run the QuillFS name server.

The name server authenticates clients against <root>/users.txt, assigns ids
to registering storage servers, mirrors every file's metadata in its index,
and routes client commands. When the admin API is enabled it also serves
HTTP on admin.port.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Examples:
  # Start in background (default)
  quillfs nameserver

  # Start in foreground
  quillfs nameserver --foreground

  # Start with custom config file
  quillfs nameserver --config /etc/quillfs/config.yaml

  # Start with environment variable overrides
  QUILLFS_LOGGING_LEVEL=DEBUG quillfs nameserver --foreground`,
	RunE: runNameserver,
}

func init() {
	nameserverCmd.Flags().BoolVarP(&nsForeground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	nameserverCmd.Flags().StringVar(&nsPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/quillfs/nameserver.pid)")
	nameserverCmd.Flags().StringVar(&nsLogFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/quillfs/nameserver.log)")
}

func runNameserver(cmd *cobra.Command, args []string) error {
	// Handle daemon mode (background)
	if !nsForeground {
		return startDaemon("nameserver", nsPidFile, nsLogFile)
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing and profiling (if enabled)
	observabilityShutdown, err := initObservability(ctx, cfg, "quillfs-nameserver")
	if err != nil {
		return err
	}
	defer observabilityShutdown(ctx)

	fmt.Println("QuillFS name server")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize metrics (if enabled)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "endpoint", "/metrics on admin API")
	} else {
		logger.Info("Metrics collection disabled")
	}
	routerMetrics := prometheus.NewRouterMetrics()

	// Prepare the data root: users.txt and nameserver.log live here
	if err := os.MkdirAll(cfg.NameServer.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create data root %s: %w", cfg.NameServer.Root, err)
	}

	oracle := users.NewStore(filepath.Join(cfg.NameServer.Root, "users.txt"))
	if _, err := os.Stat(oracle.Path()); os.IsNotExist(err) {
		logger.Warn("users file not found; every authentication will fail until it exists",
			"path", oracle.Path())
	}

	audit := nameserver.NewAudit(
		filepath.Join(cfg.NameServer.Root, "nameserver.log"),
		nameserver.AuditConfig{
			MaxSizeMB:  cfg.NameServer.Audit.MaxSizeMB,
			MaxBackups: cfg.NameServer.Audit.MaxBackups,
			MaxAgeDays: cfg.NameServer.Audit.MaxAgeDays,
		},
	)
	defer func() { _ = audit.Close() }()

	state := nameserver.NewState(nameserver.StateConfig{
		MaxServers:   cfg.NameServer.MaxServers,
		ProbeTimeout: cfg.NameServer.ProbeTimeout,
	}, audit, routerMetrics)

	router := nameserver.NewRouter(state, oracle, audit, nameserver.RouterConfig{
		ExecEnabled:   cfg.NameServer.ExecEnabled,
		FanoutTimeout: cfg.NameServer.FanoutTimeout,
	}, routerMetrics)
	if cfg.NameServer.ExecEnabled {
		logger.Warn("EXEC is enabled: authenticated users can run file contents on this host")
	}

	server := nameserver.NewServer(router, nameserver.ServerConfig{
		Addr:            fmt.Sprintf(":%d", cfg.NameServer.Port),
		MaxConnections:  cfg.NameServer.MaxConnections,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, routerMetrics)

	// Create the admin HTTP server when enabled
	var adminServer *admin.Server
	if cfg.Admin.Enabled {
		adminServer, err = admin.NewServer(admin.Config{
			Enabled:      true,
			Port:         cfg.Admin.Port,
			ReadTimeout:  cfg.Admin.ReadTimeout,
			WriteTimeout: cfg.Admin.WriteTimeout,
			IdleTimeout:  cfg.Admin.IdleTimeout,
			JWT: admin.JWTConfig{
				Secret:        cfg.Admin.JWTSecret,
				TokenDuration: cfg.Admin.TokenExpiry,
			},
		}, admin.Deps{
			State:    state,
			Users:    oracle,
			DataPath: cfg.NameServer.Root,
		})
		if err != nil {
			return fmt.Errorf("failed to create admin server: %w", err)
		}
		logger.Info("Admin API configured", "port", cfg.Admin.Port)
	} else {
		logger.Info("Admin API disabled")
	}

	// Write PID file if specified
	if nsPidFile != "" {
		if err := os.WriteFile(nsPidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(nsPidFile) }()
	}

	// Run the TCP server and the admin HTTP server as one group: if either
	// fails, the group context stops the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx)
	})
	if adminServer != nil {
		g.Go(func() error {
			return adminServer.Start(gctx)
		})
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- g.Wait()
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Name server is running. Press Ctrl+C to stop.", "port", cfg.NameServer.Port)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for servers to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", "error", err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}
