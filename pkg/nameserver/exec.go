package nameserver

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/wire"
)

// routeExec fetches the file through a forwarded READ and runs each
// non-empty, non-fenced line through the command interpreter, streaming
// stdout to the client. Gated behind RouterConfig.ExecEnabled.
func (r *Router) routeExec(ctx context.Context, env *wire.Envelope, cmd wire.Command, w io.Writer) error {
	if !r.cfg.ExecEnabled {
		return writeReply(w, wire.ReplyExecDisabled)
	}
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}

	srv, err := r.state.ResolveServer(file)
	if err != nil {
		return writeReply(w, wire.ReplyNoStorageServer)
	}
	content, err := forwardCommand(srv, wire.Envelope{User: env.User, Pass: env.Pass, Cmd: "READ " + file}, 0)
	if err != nil {
		logger.Warn("exec read failed", "file", file, "server_id", srv.ID, "error", err)
		return writeReply(w, wire.ReplyCannotConnectStorage(srv.ClientPort))
	}
	if !readSucceeded(content) {
		return writeReply(w, wire.ReplyExecReadFailed(file))
	}

	r.audit.Infof("User '%s' executed file '%s'", env.User, file)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimLeft(line, " \t")
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		if err := execLine(ctx, line, w); err != nil {
			return err
		}
	}
	return nil
}

// readSucceeded distinguishes file content from the READ error and
// empty-file reply lines.
func readSucceeded(reply string) bool {
	if strings.TrimSpace(reply) == "" {
		return false
	}
	return !strings.HasPrefix(reply, "Error") &&
		!strings.HasPrefix(reply, "ERROR") &&
		!strings.HasPrefix(reply, "(File")
}

// execLine runs one line through sh -c, streaming its stdout to w. A
// non-zero exit is not an error here; a line that cannot start at all
// reports a fixed error line and the run moves on. The returned error is
// transport-only.
func execLine(ctx context.Context, line string, w io.Writer) error {
	c := exec.CommandContext(ctx, "sh", "-c", line)
	c.Stdout = w

	logger.Debug("exec line", "command", line)
	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil
		}
		return writeReply(w, wire.ReplyExecFailed(line))
	}
	return nil
}
