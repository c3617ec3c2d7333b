package client

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/quillfs/quillfs/pkg/wire"
)

// Write runs one interactive write session against sentence n of file.
// Lines read from in are sent one at a time and every server reply is
// copied to out as it arrives. The loop ends when the session commits
// (the line after ETIRW, successful or not), when the greeting is
// anything but the lock acknowledgement, when in is exhausted, or when
// the server goes away. Protocol outcomes land in out; the returned
// error reports transport failures only.
func (s *Session) Write(file string, sentence int, in io.Reader, out io.Writer) error {
	if !s.authed {
		return ErrNotAuthenticated
	}

	conn, err := s.dial(s.addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	env := wire.Envelope{
		User: s.user,
		Pass: s.pass,
		Cmd:  fmt.Sprintf("WRITE %s %d", file, sentence),
	}
	if _, err := io.WriteString(conn, env.Encode()); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	replies := bufio.NewReader(conn)
	greeting, err := replies.ReadString('\n')
	if err != nil && greeting == "" {
		return fmt.Errorf("failed to read reply: %w", err)
	}
	if _, err := io.WriteString(out, greeting); err != nil {
		return err
	}
	// Anything but the lock acknowledgement means the server already
	// ended the session: permission denied, bad sentence, lock conflict.
	if greeting != wire.ReplySentenceLocked(sentence) {
		return nil
	}

	lines := bufio.NewScanner(in)
	for lines.Scan() {
		line := lines.Text()
		if _, err := io.WriteString(conn, line+"\n"); err != nil {
			return fmt.Errorf("failed to send update: %w", err)
		}

		reply, err := replies.ReadString('\n')
		if reply != "" {
			if _, werr := io.WriteString(out, reply); werr != nil {
				return werr
			}
		}
		if err != nil {
			return fmt.Errorf("connection closed during write session: %w", err)
		}

		// ETIRW ends the session on the server whether the commit
		// succeeded or not; the reply either way was just relayed.
		if strings.TrimSpace(line) == "ETIRW" || reply == wire.ReplyWriteSuccessful {
			return nil
		}
	}
	// Input exhausted without a commit: closing the connection makes the
	// server drop the lock and discard the edits.
	return lines.Err()
}
