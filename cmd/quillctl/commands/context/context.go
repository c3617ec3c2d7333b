// Package context implements the quillctl context subcommands: named
// admin-API connections the user can list, switch, rename, and delete.
package context

import (
	"github.com/spf13/cobra"
)

// Cmd groups the context subcommands.
var Cmd = &cobra.Command{
	Use:   "context",
	Short: "Manage server contexts",
	Long: `Save and switch between admin API servers, kubectl-style.

A context is created by 'quillctl login' and carries the server URL,
username, and access token.`,
}

func init() {
	Cmd.AddCommand(listCmd, useCmd, currentCmd, renameCmd, deleteCmd)
}
