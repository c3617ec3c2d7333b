package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/spf13/cobra"
)

var (
	shellUsername string
	shellPassword string
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive session with the name server",
	Long: `Open an interactive session against the QuillFS name server.

The shell authenticates once, then reads commands line by line and prints
each reply. WRITE turns the connection into the interactive update loop
until ETIRW; STREAM connects to the owning storage server directly. Type
'help' inside the shell for the command list.

Examples:
  # Prompt for credentials, talk to the configured name server
  quillctl shell

  # Everything on the command line
  quillctl shell --nameserver 10.0.0.5:8080 -u alice -p secret`,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().StringVarP(&shellUsername, "username", "u", "", "Username")
	shellCmd.Flags().StringVarP(&shellPassword, "password", "p", "", "Password")
}

func runShell(cmd *cobra.Command, args []string) error {
	session := newSession()
	if err := authenticate(session, shellUsername, shellPassword); err != nil {
		return cmdutil.HandleAbort(err)
	}

	fmt.Printf("Connected to QuillFS as %s.\n", session.User())
	fmt.Println("Type 'help' for the command list, 'exit' to leave.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	// WRITE sessions pull their update lines from the same scanner, so the
	// two readers never fight over buffered stdin.
	input := &lineReader{scanner: scanner}

	for {
		fmt.Print("quillfs> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "help":
			printShellHelp()
			continue
		case "exit", "quit":
			return nil
		}

		if err := runCommand(session, line, input, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

func printShellHelp() {
	fmt.Print(`File commands:
  VIEW [-a|-l|-al]                list files you can see (all / long / both)
  READ <file>                     print a file
  STREAM <file>                   stream a file from its storage server
  CREATE <file>                   create an empty file
  DELETE <file>                   delete a file
  WRITE <file> <sentence>         edit one sentence; '<word> <text>' lines, end with ETIRW
  INFO <file>                     show file metadata
  UNDO <file>                     undo the last write
  EXEC <file>                     run the file's lines on the name server host

Checkpoints:
  CHECKPOINT <file> <tag>         snapshot a file
  VIEWCHECKPOINT <file> <tag>     print a snapshot
  REVERT <file> <tag>             restore a snapshot
  LISTCHECKPOINTS <file>          list snapshots

Access:
  ADDACCESS -R|-W <file> <user>   grant read or write access
  REMACCESS <file> <user>         revoke access
  LIST                            list registered users

Shell:
  help                            show this help
  exit                            leave the shell
`)
}

// lineReader adapts the shell's scanner to an io.Reader so an interactive
// WRITE consumes update lines from the same stdin in lock step instead of
// buffering ahead of the prompt loop.
type lineReader struct {
	scanner *bufio.Scanner
	pending []byte
}

func (r *lineReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if !r.scanner.Scan() {
			if err := r.scanner.Err(); err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
		r.pending = []byte(r.scanner.Text() + "\n")
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
