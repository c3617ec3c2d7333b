package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/internal/cli/health"
	"github.com/quillfs/quillfs/internal/cli/output"
	"github.com/quillfs/quillfs/internal/cli/timeutil"
)

var (
	statusOutput    string
	statusPidFile   string
	statusAdminPort int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show name server status",
	Long: `Display the current status of the QuillFS name server.

This command checks the PID file and, when the admin API is enabled, calls
its health endpoint to report uptime. With the admin API disabled only the
process check is available.

Examples:
  # Check status (uses default settings)
  quillfs status

  # Check status with custom admin port
  quillfs status --admin-port 9191

  # Output as JSON
  quillfs status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusPidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/quillfs/nameserver.pid)")
	statusCmd.Flags().IntVar(&statusAdminPort, "admin-port", 9090, "Admin API port")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus represents the server status information.
type ServerStatus struct {
	Running   bool   `json:"running" yaml:"running"`
	PID       int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Message   string `json:"message" yaml:"message"`
	StartedAt string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Healthy   bool   `json:"healthy" yaml:"healthy"`
}

// probeHealth calls the admin health endpoint. It works for both daemon
// and foreground mode.
func probeHealth(port int) (*health.Response, error) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%d/health", port))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var healthResp health.Response
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return nil, err
	}
	return &healthResp, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	status := ServerStatus{Message: "Name server is not running"}

	pidPath := statusPidFile
	if pidPath == "" {
		pidPath = GetDefaultPidFile("nameserver")
	}
	if pid, alive := isProcessRunning(pidPath); alive {
		status.Running = true
		status.PID = pid
	}

	healthResp, healthErr := probeHealth(statusAdminPort)
	switch {
	case healthErr == nil:
		status.Running = true
		status.Healthy = healthResp.Healthy()
		status.StartedAt = healthResp.Data.StartedAt
		status.Uptime = healthResp.Data.Uptime
		if status.Healthy {
			status.Message = "Name server is running and healthy"
		} else {
			status.Message = fmt.Sprintf("Name server is running but unhealthy: %s", healthResp.Error)
		}
	case status.Running:
		// PID file says running but the health check failed: either the
		// admin API is disabled or the server is wedged. The process
		// check wins.
		status.Message = "Name server process exists but the admin health check failed (admin API disabled?)"
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}
	return nil
}

func printStatusTable(status ServerStatus) {
	fmt.Println()
	fmt.Println("QuillFS Name Server Status")
	fmt.Println("==========================")
	fmt.Println()

	if status.Running {
		if status.Healthy {
			fmt.Printf("  Status:     \033[32m● Running\033[0m\n")
		} else {
			fmt.Printf("  Status:     \033[33m● Running (unhealthy)\033[0m\n")
		}
		if status.PID != 0 {
			fmt.Printf("  PID:        %d\n", status.PID)
		}
		if status.StartedAt != "" {
			fmt.Printf("  Started:    %s\n", timeutil.FormatTime(status.StartedAt))
		}
		if status.Uptime != "" {
			fmt.Printf("  Uptime:     %s\n", timeutil.FormatUptime(status.Uptime))
		}
	} else {
		fmt.Printf("  Status:     \033[31m○ Stopped\033[0m\n")
	}

	fmt.Println()
	fmt.Printf("  %s\n", status.Message)
	fmt.Println()
}
