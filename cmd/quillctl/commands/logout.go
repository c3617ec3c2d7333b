package commands

import (
	"fmt"

	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear stored credentials",
	Long: `Drop the current context's access token. The server URL and
username stay saved, so logging back in is one password prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}
		name := store.GetCurrentContextName()
		if name == "" {
			return fmt.Errorf("not logged in - no current context")
		}
		if err := store.ClearCurrentContext(); err != nil {
			return fmt.Errorf("failed to clear credentials: %w", err)
		}
		fmt.Printf("Logged out from context: %s\n", name)
		return nil
	},
}
