// Package config implements configuration management subcommands.
package config

import "github.com/spf13/cobra"

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage QuillFS configuration files.

One config file drives both server roles and quillctl; the nameserver,
storage, client, and admin sections apply to whichever process loads it.

Subcommands:
  init      Create a configuration file with defaults
  edit      Open configuration in editor
  validate  Validate configuration file
  show      Display current configuration
  schema    Generate JSON schema for IDE/validation`,
}

func init() {
	Cmd.AddCommand(initCmd, editCmd, validateCmd, showCmd, schemaCmd)
}
