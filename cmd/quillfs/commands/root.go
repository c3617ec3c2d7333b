// Package commands implements the CLI commands for quillfs server management.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/quillfs/quillfs/cmd/quillfs/commands/config"
)

// Version information injected at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "quillfs",
	Short: "QuillFS - Distributed text file system",
	Long: `QuillFS is a distributed file system built from a central name server
and a dynamic pool of storage servers. The name server authenticates clients,
indexes every file, and routes commands; each storage server owns a disjoint
slice of the namespace on local disk with per-file access lists, sentence-level
interactive writing, undo, and tagged checkpoints.

One host runs 'quillfs nameserver'; any number of hosts run 'quillfs storage'.
Clients connect with quillctl.

Use "quillfs [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/quillfs/config.yaml)")

	rootCmd.AddCommand(
		versionCmd,
		nameserverCmd,
		storageCmd,
		stopCmd,
		statusCmd,
		logsCmd,
		config.Cmd,
		completionCmd,
	)

	// completionCmd replaces the builtin one
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Execute runs the root command. Called once from main.main().
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the --config flag value.
func GetConfigFile() string {
	return cfgFile
}
