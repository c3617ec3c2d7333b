package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/pkg/config"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
	logsAudit  bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Tail server logs",
	Long: `Display and optionally follow the QuillFS server logs.

This command reads the log file specified in the configuration and displays
the most recent entries. If the server logs to stdout/stderr, this command
will indicate that logs are not available in a file.

With --audit, the name server's audit trail (<root>/nameserver.log) is read
instead: one line per authentication attempt, registration, eviction, access
change, and routed command.

Examples:
  # Show last 100 lines (default)
  quillfs logs

  # Show last 50 lines
  quillfs logs -n 50

  # Follow logs in real-time
  quillfs logs -f

  # Follow the audit trail
  quillfs logs --audit -f

  # Show logs since a specific time
  quillfs logs --since "2026-01-15T10:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show logs since timestamp (RFC3339 format)")
	logsCmd.Flags().BoolVar(&logsAudit, "audit", false, "Read the name server audit trail instead of the process log")
}

// resolveLogPath returns the file the command should read, or an error
// when the server logs to a stream instead of a file.
func resolveLogPath(cfg *config.Config) (string, error) {
	path := cfg.Logging.Output
	if logsAudit {
		path = filepath.Join(cfg.NameServer.Root, "nameserver.log")
	}

	if path == "stdout" || path == "stderr" {
		return "", fmt.Errorf("server is configured to log to %s, not a file\nConfigure 'logging.output' in config to a file path to use this command", path)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if logsAudit {
			return "", fmt.Errorf("audit log not found: %s\nThe name server may not have started yet or uses a different root", path)
		}
		return "", fmt.Errorf("log file not found: %s\nThe server may not have started yet or is logging elsewhere", path)
	}
	return path, nil
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logPath, err := resolveLogPath(cfg)
	if err != nil {
		return err
	}

	var sinceTime time.Time
	if logsSince != "" {
		sinceTime, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since format (use RFC3339): %w", err)
		}
	}

	if err := showLogs(logPath, logsLines, sinceTime); err != nil {
		return err
	}
	if logsFollow {
		return followLogs(logPath)
	}
	return nil
}

// showLogs prints the last n lines of the log file, skipping lines with
// a parseable timestamp before since. A ring of n lines keeps memory
// bounded on large files.
func showLogs(logFile string, n int, since time.Time) error {
	if n <= 0 {
		return nil
	}
	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	ring := make([]string, n)
	count := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if ts := extractTimestamp(line); !ts.IsZero() && ts.Before(since) {
				continue
			}
		}
		ring[count%n] = line
		count++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}

	start := 0
	if count > n {
		start = count - n
	}
	for i := start; i < count; i++ {
		fmt.Println(ring[i%n])
	}
	return nil
}

// followLogs tails new lines appended to the log file until interrupted.
func followLogs(logFile string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(logFile); err != nil {
		return fmt.Errorf("failed to watch log file: %w", err)
	}

	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end of log file: %w", err)
	}
	reader := bufio.NewReader(file)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Following %s (Ctrl+C to stop)...\n", logFile)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			for {
				line, err := reader.ReadString('\n')
				if err != nil {
					break
				}
				fmt.Print(line)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// extractTimestamp pulls a timestamp out of a log line. It understands
// the audit trail's bracketed local time, RFC3339 at the start of the
// line, and the JSON handler's "time" field. Returns the zero time when
// no timestamp is found.
func extractTimestamp(line string) time.Time {
	// Audit trail lines open with "[YYYY-MM-DD HH:MM:SS]".
	if strings.HasPrefix(line, "[") && len(line) >= 21 {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", line[1:20], time.Local); err == nil {
			return t
		}
	}

	// RFC3339 at the start of the line, with or without a zone offset.
	for _, width := range []int{20, 25} {
		if len(line) >= width {
			if t, err := time.Parse(time.RFC3339, line[:width]); err == nil {
				return t
			}
		}
	}

	// The JSON handler emits {"time":"2026-01-15T10:30:45.123Z",...}.
	const timeKey = `"time":"`
	if idx := strings.Index(line, timeKey); idx >= 0 {
		rest := line[idx+len(timeKey):]
		if end := strings.IndexByte(rest, '"'); end > 0 {
			if t, err := time.Parse(time.RFC3339Nano, rest[:end]); err == nil {
				return t
			}
		}
	}

	return time.Time{}
}
