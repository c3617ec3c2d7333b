// quillfs runs the QuillFS servers: the name server and storage servers.
package main

import (
	"fmt"
	"os"

	"github.com/quillfs/quillfs/cmd/quillfs/commands"
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
