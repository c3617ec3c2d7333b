package nameserver

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/quillfs/quillfs/pkg/wire"
)

// dialTimeout bounds connection establishment to a storage server. The
// exchange itself is unbounded unless the caller sets a deadline.
const dialTimeout = 5 * time.Second

func dialServer(srv ServerEntry) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", srv.Addr(), dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage server %d at %s: %w", srv.ID, srv.Addr(), err)
	}
	return conn, nil
}

// forwardCommand sends one envelope to a storage server and returns the
// complete reply. Storage servers close the connection after serving a
// command, which terminates the read. A timeout > 0 bounds the whole
// exchange; the VIEW fan-out and ACL forwards use that, single-command
// captures stay unbounded.
func forwardCommand(srv ServerEntry, env wire.Envelope, timeout time.Duration) (string, error) {
	conn, err := dialServer(srv)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}
	if _, err := io.WriteString(conn, env.Encode()); err != nil {
		return "", fmt.Errorf("failed to forward command to storage server %d: %w", srv.ID, err)
	}

	var b strings.Builder
	if _, err := io.Copy(&b, conn); err != nil {
		return "", fmt.Errorf("failed to read reply from storage server %d: %w", srv.ID, err)
	}
	return b.String(), nil
}
