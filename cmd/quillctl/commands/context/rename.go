package context

import (
	"errors"
	"fmt"

	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <old-name> <new-name>",
	Short: "Rename a context",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldName, newName := args[0], args[1]
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}
		if err := store.RenameContext(oldName, newName); err != nil {
			if errors.Is(err, credentials.ErrContextNotFound) {
				return fmt.Errorf("context '%s' not found", oldName)
			}
			return fmt.Errorf("failed to rename context: %w", err)
		}
		fmt.Printf("Context renamed: %s -> %s\n", oldName, newName)
		return nil
	},
}
