// Package commands implements the CLI commands for the quillctl client.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	ctxcmd "github.com/quillfs/quillfs/cmd/quillctl/commands/context"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "quillctl",
	Short: "QuillFS Control - Client for QuillFS",
	Long: `quillctl is the command-line client for QuillFS.

The shell and send commands speak the text protocol directly to the name
server (VIEW, READ, CREATE, WRITE, STREAM, ...). The remaining commands
inspect the cluster through the name server's HTTP admin API and need a
'quillctl login' first.

Use "quillctl [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Sync flags to cmdutil.Flags for subcommands
		cmdutil.Flags.NameServer, _ = cmd.Flags().GetString("nameserver")
		cmdutil.Flags.ServerURL, _ = cmd.Flags().GetString("server")
		cmdutil.Flags.Token, _ = cmd.Flags().GetString("token")
		cmdutil.Flags.Output, _ = cmd.Flags().GetString("output")
		cmdutil.Flags.NoColor, _ = cmd.Flags().GetBool("no-color")
		cmdutil.Flags.Verbose, _ = cmd.Flags().GetBool("verbose")
	},
}

func init() {
	rootCmd.PersistentFlags().String("nameserver", "", "Name server address for wire commands (host:port, overrides config)")
	rootCmd.PersistentFlags().String("server", "", "Admin API URL (overrides stored credential)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token (overrides stored credential)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json|yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(
		versionCmd,
		shellCmd,
		sendCmd,
		loginCmd,
		logoutCmd,
		statusCmd,
		serversCmd,
		filesCmd,
		usersCmd,
		ctxcmd.Cmd,
		completionCmd,
	)

	// completionCmd replaces the builtin one
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Execute runs the root command. Called once from main.main().
func Execute() error {
	return rootCmd.Execute()
}
