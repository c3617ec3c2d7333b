package commands

import (
	"os"
	"strings"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/spf13/cobra"
)

var (
	sendUsername string
	sendPassword string
)

var sendCmd = &cobra.Command{
	Use:   "send <command>...",
	Short: "Send one command to the name server",
	Long: `Authenticate, send a single command to the QuillFS name server, and
print the reply.

For WRITE the update lines are read from stdin, so the whole session can be
piped in. Flags must come before the command; everything after the first
non-flag argument is sent verbatim.

Examples:
  quillctl send -u alice -p secret VIEW -al
  quillctl send -u alice -p secret READ notes
  printf '0 Hello world.\nETIRW\n' | quillctl send -u alice -p secret WRITE notes 0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendUsername, "username", "u", "", "Username")
	sendCmd.Flags().StringVarP(&sendPassword, "password", "p", "", "Password")

	// Stop flag parsing at the first non-flag argument so command flags
	// like 'VIEW -al' pass through untouched.
	sendCmd.Flags().SetInterspersed(false)
}

func runSend(cmd *cobra.Command, args []string) error {
	session := newSession()
	if err := authenticate(session, sendUsername, sendPassword); err != nil {
		return cmdutil.HandleAbort(err)
	}

	line := strings.Join(args, " ")
	return runCommand(session, line, os.Stdin, os.Stdout)
}
