// Package client implements the quillctl side of the text protocol: an
// authenticated session against the name server, the interactive write
// loop, and direct storage streaming. The name server serves one request
// per connection, so a session is credentials plus an address, not a held
// socket; every operation dials fresh.
package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/quillfs/quillfs/pkg/wire"
)

// dialTimeout bounds connection establishment. Replies are read to EOF
// without a deadline; the servers close the connection after answering.
const dialTimeout = 5 * time.Second

var (
	// ErrAuthFailed is returned when the name server rejects the
	// credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotAuthenticated is returned by operations that need credentials
	// before Auth has succeeded.
	ErrNotAuthenticated = errors.New("session not authenticated")
)

// Session is a client of one name server. After a successful Auth the
// session pins the credentials and stamps them on every command envelope.
type Session struct {
	addr    string
	user    string
	pass    string
	authed  bool
	timeout time.Duration
}

// New creates a session against the name server at addr (host:port).
func New(addr string) *Session {
	return &Session{addr: addr, timeout: dialTimeout}
}

// WithDialTimeout overrides the default connection timeout and returns the
// session for chaining.
func (s *Session) WithDialTimeout(d time.Duration) *Session {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// User returns the authenticated username, empty before Auth.
func (s *Session) User() string { return s.user }

// Auth verifies the credentials with the name server and pins them to the
// session on success.
func (s *Session) Auth(user, pass string) error {
	conn, err := s.dial(s.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	req := wire.AuthRequest{User: user, Pass: pass}
	if _, err := io.WriteString(conn, req.Encode()); err != nil {
		return fmt.Errorf("failed to send credentials: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return fmt.Errorf("failed to read authentication reply: %w", err)
	}

	switch strings.TrimSpace(reply) {
	case wire.AuthSuccess:
		s.user, s.pass, s.authed = user, pass, true
		return nil
	case wire.AuthFailed:
		return ErrAuthFailed
	default:
		return fmt.Errorf("unexpected authentication reply %q", strings.TrimSpace(reply))
	}
}

// Do sends one command envelope and returns the complete reply. The name
// server closes the connection after answering, so the read runs to EOF;
// for streamed replies the returned string is the whole stream.
func (s *Session) Do(command string) (string, error) {
	if !s.authed {
		return "", ErrNotAuthenticated
	}

	conn, err := s.dial(s.addr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	env := wire.Envelope{User: s.user, Pass: s.pass, Cmd: command}
	if _, err := io.WriteString(conn, env.Encode()); err != nil {
		return "", fmt.Errorf("failed to send command: %w", err)
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	return string(reply), nil
}

// Locate asks the name server which storage server holds file. The LOCATE
// line carries no credentials, so it works before Auth.
func (s *Session) Locate(file string) (host string, port int, err error) {
	conn, err := s.dial(s.addr)
	if err != nil {
		return "", 0, err
	}
	defer conn.Close()

	if _, err := fmt.Fprintf(conn, "LOCATE %s\n", file); err != nil {
		return "", 0, fmt.Errorf("failed to send LOCATE: %w", err)
	}

	reply, err := io.ReadAll(conn)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read LOCATE reply: %w", err)
	}

	host, port, perr := wire.ParseLocateReply(string(reply))
	if perr != nil {
		// Not an endpoint: the name server answered with one of its
		// error lines. Surface that instead of the parse failure.
		if line := strings.TrimSpace(string(reply)); strings.HasPrefix(line, "Error") {
			return "", 0, errors.New(line)
		}
		return "", 0, perr
	}
	return host, port, nil
}

// StreamDirect locates the storage server holding file and streams its
// content from there directly, bypassing the name server relay. Whatever
// the storage server sends, content or an error line, is copied to out.
func (s *Session) StreamDirect(file string, out io.Writer) error {
	if !s.authed {
		return ErrNotAuthenticated
	}

	host, port, err := s.Locate(file)
	if err != nil {
		return err
	}

	conn, err := s.dial(net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return err
	}
	defer conn.Close()

	env := wire.Envelope{User: s.user, Pass: s.pass, Cmd: "STREAM " + file}
	if _, err := io.WriteString(conn, env.Encode()); err != nil {
		return fmt.Errorf("failed to send stream request: %w", err)
	}

	if _, err := io.Copy(out, conn); err != nil {
		return fmt.Errorf("stream interrupted: %w", err)
	}
	return nil
}

func (s *Session) dial(addr string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, s.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return conn, nil
}
