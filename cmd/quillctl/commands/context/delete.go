package context

import (
	"errors"
	"fmt"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a context",
	Long:  "Delete a saved context, including its credentials. Prompts unless --force.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}
		if _, err = store.GetContext(name); err != nil {
			if errors.Is(err, credentials.ErrContextNotFound) {
				return fmt.Errorf("context '%s' not found", name)
			}
			return fmt.Errorf("failed to get context: %w", err)
		}
		return cmdutil.RunDeleteWithConfirmation("Context", name, deleteForce, func() error {
			return store.DeleteContext(name)
		})
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation")
}
