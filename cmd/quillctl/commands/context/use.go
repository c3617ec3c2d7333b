package context

import (
	"errors"
	"fmt"

	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/spf13/cobra"
)

var useCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch to a different context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}
		if err := store.UseContext(name); err != nil {
			if errors.Is(err, credentials.ErrContextNotFound) {
				return fmt.Errorf("context '%s' not found; 'quillctl context list' shows what exists", name)
			}
			return fmt.Errorf("failed to switch context: %w", err)
		}
		fmt.Printf("Switched to context: %s\n", name)
		return nil
	},
}
