package context

import (
	"fmt"
	"os"

	"github.com/quillfs/quillfs/internal/cli/credentials"
	"github.com/quillfs/quillfs/internal/cli/output"
	"github.com/spf13/cobra"
)

var currentOutput string

var currentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}

		name := store.GetCurrentContextName()
		if name == "" {
			return fmt.Errorf("no current context set; log in first:\n  quillctl login --server http://localhost:9090")
		}
		ctx, err := store.GetContext(name)
		if err != nil {
			return fmt.Errorf("failed to get context: %w", err)
		}

		info := ContextInfo{
			Name:      name,
			Current:   true,
			ServerURL: ctx.ServerURL,
			Username:  ctx.Username,
			LoggedIn:  ctx.AccessToken != "" && !ctx.IsExpired(),
		}

		format, err := output.ParseFormat(currentOutput)
		if err != nil {
			return err
		}
		switch format {
		case output.FormatJSON:
			return output.PrintJSON(os.Stdout, info)
		case output.FormatYAML:
			return output.PrintYAML(os.Stdout, info)
		}

		status := "Not logged in"
		if info.LoggedIn {
			status = "Logged in"
		}
		fmt.Printf("Current context: %s\n", name)
		fmt.Printf("  Server:  %s\n", ctx.ServerURL)
		fmt.Printf("  User:    %s\n", ctx.Username)
		fmt.Printf("  Status:  %s\n", status)
		return nil
	},
}

func init() {
	currentCmd.Flags().StringVarP(&currentOutput, "output", "o", "table", "Output format (table|json|yaml)")
}
