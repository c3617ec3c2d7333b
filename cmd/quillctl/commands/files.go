package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/quillfs/quillfs/internal/cli/timeutil"
	"github.com/quillfs/quillfs/pkg/apiclient"
	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Long: `List the files in the name server's index.

This is the administrative view: every file regardless of access rights,
with owner, placement, and ACL sizes. Use 'quillctl send VIEW' for the
wire protocol's permission-filtered listing.

Examples:
  # List files as table
  quillctl files

  # List as JSON
  quillctl files -o json`,
	RunE: runFiles,
}

// FileList is a list of indexed files for table rendering.
type FileList []apiclient.File

// Headers implements TableRenderer.
func (fl FileList) Headers() []string {
	return []string{"NAME", "OWNER", "SERVERS", "READERS", "WRITERS", "MODIFIED"}
}

// Rows implements TableRenderer.
func (fl FileList) Rows() [][]string {
	rows := make([][]string, 0, len(fl))
	for _, f := range fl {
		ids := make([]string, 0, len(f.Servers))
		for _, id := range f.Servers {
			ids = append(ids, strconv.Itoa(id))
		}
		rows = append(rows, []string{
			f.Name,
			f.Owner,
			cmdutil.EmptyOr(strings.Join(ids, ", "), "-"),
			strconv.Itoa(f.Readers),
			strconv.Itoa(f.Writers),
			timeutil.FormatLocal(f.Modified),
		})
	}
	return rows
}

func runFiles(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	resp, err := client.Files()
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, resp, len(resp.Files) == 0, "No files indexed.", FileList(resp.Files))
}
