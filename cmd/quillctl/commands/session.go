package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/quillfs/quillfs/cmd/quillctl/cmdutil"
	"github.com/quillfs/quillfs/internal/cli/prompt"
	"github.com/quillfs/quillfs/pkg/client"
	"github.com/quillfs/quillfs/pkg/config"
)

// newSession builds a session against the resolved name server address:
// the --nameserver flag wins, then the config file's client section, then
// the compiled-in default.
func newSession() *client.Session {
	if cmdutil.Flags.NameServer != "" {
		return client.New(cmdutil.Flags.NameServer)
	}
	cfg, err := config.Load("")
	if err != nil {
		return client.New("127.0.0.1:8080")
	}
	return client.New(cfg.Client.NameServer).WithDialTimeout(cfg.Client.DialTimeout)
}

// authenticate resolves credentials and runs the AUTH round trip. Flags win;
// whatever is missing is prompted for.
func authenticate(session *client.Session, user, pass string) error {
	var err error
	if user == "" {
		user, err = prompt.InputRequired("Username")
		if err != nil {
			return err
		}
	}
	if pass == "" {
		pass, err = prompt.Password("Password")
		if err != nil {
			return err
		}
	}
	return session.Auth(user, pass)
}

// runCommand sends one command line through the session and prints the
// reply to out. WRITE and STREAM need more than a request/reply round trip
// and get their own paths; malformed variants of either are still sent as
// plain commands so the server's own usage reply comes back.
func runCommand(session *client.Session, line string, in io.Reader, out io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "WRITE":
		if len(fields) == 3 {
			if sentence, err := strconv.Atoi(fields[2]); err == nil {
				return session.Write(fields[1], sentence, in, out)
			}
		}
	case "STREAM":
		if len(fields) == 2 {
			return session.StreamDirect(fields[1], out)
		}
	}

	reply, err := session.Do(line)
	if err != nil {
		return err
	}
	if reply != "" {
		if _, err := io.WriteString(out, reply); err != nil {
			return err
		}
		if !strings.HasSuffix(reply, "\n") {
			fmt.Fprintln(out)
		}
	}
	return nil
}
