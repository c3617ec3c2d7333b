package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/quillfs/quillfs/internal/bytesize"
	"github.com/quillfs/quillfs/internal/cli/output"
	"github.com/quillfs/quillfs/internal/cli/timeutil"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cluster status",
	Long: `Display the status of the connected QuillFS name server.

Shows uptime, the number of registered storage servers and indexed files,
and disk usage under the data root. Requires a prior 'quillctl login'.

Examples:
  # Check status of connected server
  quillctl status

  # Output as JSON
  quillctl status -o json`,
	RunE: runStatus,
}

// ClusterStatus represents the cluster status for display.
type ClusterStatus struct {
	Server         string `json:"server" yaml:"server"`
	Service        string `json:"service" yaml:"service"`
	StartedAt      string `json:"started_at" yaml:"started_at"`
	Uptime         string `json:"uptime" yaml:"uptime"`
	StorageServers int    `json:"storage_servers" yaml:"storage_servers"`
	IndexedFiles   int    `json:"indexed_files" yaml:"indexed_files"`
	DiskTotal      uint64 `json:"disk_total_bytes,omitempty" yaml:"disk_total_bytes,omitempty"`
	DiskUsed       uint64 `json:"disk_used_bytes,omitempty" yaml:"disk_used_bytes,omitempty"`
	DiskFree       uint64 `json:"disk_free_bytes,omitempty" yaml:"disk_free_bytes,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	resp, err := client.Status()
	if err != nil {
		return fmt.Errorf("failed to fetch status: %w", err)
	}

	status := ClusterStatus{
		Server:         client.BaseURL(),
		Service:        resp.Service,
		StartedAt:      resp.StartedAt.Format(time.RFC3339),
		Uptime:         resp.Uptime,
		StorageServers: resp.StorageServers,
		IndexedFiles:   resp.IndexedFiles,
	}
	if resp.Disk != nil {
		status.DiskTotal = resp.Disk.TotalBytes
		status.DiskUsed = resp.Disk.UsedBytes
		status.DiskFree = resp.Disk.FreeBytes
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printClusterStatus(status)
	}

	return nil
}

func printClusterStatus(status ClusterStatus) {
	fmt.Println()
	fmt.Println("QuillFS Cluster Status")
	fmt.Println("======================")
	fmt.Println()
	fmt.Printf("  Server:           %s\n", status.Server)
	fmt.Printf("  Service:          %s\n", status.Service)
	fmt.Printf("  Started:          %s\n", timeutil.FormatTime(status.StartedAt))
	fmt.Printf("  Uptime:           %s\n", timeutil.FormatUptime(status.Uptime))
	fmt.Printf("  Storage servers:  %d\n", status.StorageServers)
	fmt.Printf("  Indexed files:    %d\n", status.IndexedFiles)
	if status.DiskTotal > 0 {
		fmt.Printf("  Disk:             %s used of %s (%s free)\n",
			bytesize.ByteSize(status.DiskUsed), bytesize.ByteSize(status.DiskTotal), bytesize.ByteSize(status.DiskFree))
	}
	fmt.Println()
}
