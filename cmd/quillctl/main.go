// quillctl is the command-line client for a QuillFS cluster.
package main

import (
	"fmt"
	"os"

	"github.com/quillfs/quillfs/cmd/quillctl/commands"
)

// Injected via -ldflags at release build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version, commands.Commit, commands.Date = version, commit, date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
