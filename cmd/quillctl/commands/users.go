package commands

import (
	"fmt"
	"os"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	Long: `List the usernames known to the name server's users file.

Examples:
  # List users as table
  quillctl users

  # List as JSON
  quillctl users -o json`,
	RunE: runUsers,
}

// UserList is a list of usernames for table rendering.
type UserList []string

// Headers implements TableRenderer.
func (ul UserList) Headers() []string {
	return []string{"USERNAME"}
}

// Rows implements TableRenderer.
func (ul UserList) Rows() [][]string {
	rows := make([][]string, 0, len(ul))
	for _, u := range ul {
		rows = append(rows, []string{u})
	}
	return rows
}

func runUsers(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	resp, err := client.Users()
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, resp, len(resp.Users) == 0, "No users registered.", UserList(resp.Users))
}
