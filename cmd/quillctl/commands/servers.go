package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/quillfs/quillfs/internal/cli/timeutil"
	"github.com/quillfs/quillfs/pkg/apiclient"
	"github.com/spf13/cobra"
)

var serversSweep bool

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "List registered storage servers",
	Long: `List the storage servers registered with the name server.

Each row shows the registry's view of one server: the advertised client
address, liveness from the last probe, and how many files the index
places there.

Examples:
  # List servers as table
  quillctl servers

  # Probe every server first, evicting unreachable ones
  quillctl servers --sweep

  # List as JSON
  quillctl servers -o json`,
	RunE: runServers,
}

func init() {
	serversCmd.Flags().BoolVar(&serversSweep, "sweep", false, "Probe all servers and evict unreachable ones before listing")
}

// ServerList is a list of storage servers for table rendering.
type ServerList []apiclient.StorageServer

// Headers implements TableRenderer.
func (sl ServerList) Headers() []string {
	return []string{"ID", "ADDRESS", "ACTIVE", "FILES", "REGISTERED", "LAST SEEN"}
}

// Rows implements TableRenderer.
func (sl ServerList) Rows() [][]string {
	rows := make([][]string, 0, len(sl))
	for _, s := range sl {
		rows = append(rows, []string{
			strconv.Itoa(s.ID),
			s.Address,
			cmdutil.BoolToYesNo(s.Active),
			strconv.Itoa(s.Files),
			timeutil.FormatLocal(s.RegisteredAt),
			timeutil.FormatLocal(s.LastSeen),
		})
	}
	return rows
}

func runServers(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	if serversSweep {
		sweep, err := client.Sweep()
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}
		if sweep.Evicted > 0 {
			cmdutil.PrintSuccess(fmt.Sprintf("Sweep evicted %d unreachable server(s)", sweep.Evicted))
		}
	}

	resp, err := client.Servers()
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, resp, len(resp.Servers) == 0, "No storage servers registered.", ServerList(resp.Servers))
}
