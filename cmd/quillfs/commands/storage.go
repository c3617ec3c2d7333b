package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/config"
	"github.com/quillfs/quillfs/pkg/metrics"
	"github.com/quillfs/quillfs/pkg/metrics/prometheus"
	"github.com/quillfs/quillfs/pkg/storage"
)

var (
	ssForeground bool
	ssPidFile    string
	ssLogFile    string
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Run a storage server",
	Long: `Run a QuillFS storage server.

The server registers with the name server at startup, receives its integer
id, and then serves clients on base_port+id with files, metadata sidecars,
undo backups, and checkpoints under <root>/storage<id>/. The id is assigned
by the name server, so the listen port is not known until registration
completes.

By default, the server runs in the background (daemon mode). Use --foreground
to run in the foreground for debugging or when managed by a process supervisor.

Running several storage servers on one host works (each gets its own id and
port) but requires distinct --pid-file and --log-file values for daemon mode.

Examples:
  # Start in background (default)
  quillfs storage

  # Start in foreground
  quillfs storage --foreground

  # Second storage server on the same host
  quillfs storage --pid-file /tmp/quillfs-storage2.pid --log-file /tmp/quillfs-storage2.log

  # Register with a remote name server
  QUILLFS_STORAGE_NAMESERVER=10.0.0.5:8080 quillfs storage --foreground`,
	RunE: runStorage,
}

func init() {
	storageCmd.Flags().BoolVarP(&ssForeground, "foreground", "f", false, "Run in foreground (default: background/daemon mode)")
	storageCmd.Flags().StringVar(&ssPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/quillfs/storage.pid)")
	storageCmd.Flags().StringVar(&ssLogFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/quillfs/storage.log)")
}

func runStorage(cmd *cobra.Command, args []string) error {
	// Handle daemon mode (background)
	if !ssForeground {
		return startDaemon("storage", ssPidFile, ssLogFile)
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
	observabilityShutdown, err := initObservability(ctx, cfg, "quillfs-storage")
	if err != nil {
		return err
	}
	defer observabilityShutdown(ctx)

	fmt.Println("QuillFS storage server")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize metrics (if enabled)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}
	storageMetrics := prometheus.NewStorageMetrics()

	// Register with the name server; the reply carries our id
	id, err := storage.Register(storage.RegisterOptions{
		NameServer: cfg.Storage.NameServer,
		Host:       cfg.Storage.Host,
		BasePort:   cfg.Storage.BasePort,
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	store, err := storage.NewStore(cfg.Storage.Root, id, storageMetrics)
	if err != nil {
		return fmt.Errorf("failed to open storage tree: %w", err)
	}

	port := cfg.Storage.BasePort + id
	server := storage.NewServer(store, storage.ServerConfig{
		Addr:            net.JoinHostPort("", strconv.Itoa(port)),
		MaxConnections:  cfg.Storage.MaxConnections,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, storageMetrics)

	// Write PID file if specified
	if ssPidFile != "" {
		if err := os.WriteFile(ssPidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(ssPidFile) }()
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- server.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Storage server is running. Press Ctrl+C to stop.",
		"server_id", id, "port", port, "root", store.BaseDir())

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
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
