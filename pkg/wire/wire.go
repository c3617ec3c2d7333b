// Package wire implements the line-oriented protocol spoken between
// clients, the name server, and storage servers. Messages are UTF-8 text,
// newline separated, with KEY:value framing.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Default ports. The name server listens on NameServerPort for both clients
// and storage server registrations. Storage server n serves clients on
// StorageBasePort+n.
const (
	NameServerPort  = 8080
	StorageBasePort = 8081
)

// Protocol limits.
const (
	MaxStorageServers = 32
	MaxFilenameLen    = 255
	MaxUserListLen    = 512
)

// Authentication replies.
const (
	AuthSuccess = "AUTH:SUCCESS"
	AuthFailed  = "AUTH:FAILED"
)

// FormatServerID renders the registration reply. id is -1 when the
// registry is full.
func FormatServerID(id int) string {
	return fmt.Sprintf("SS_ID:%d\n", id)
}

// ParseServerID extracts the assigned id from a registration reply.
func ParseServerID(reply string) (int, error) {
	reply = strings.TrimSpace(reply)
	rest, ok := strings.CutPrefix(reply, "SS_ID:")
	if !ok {
		return 0, fmt.Errorf("malformed registration reply %q", reply)
	}
	id, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, fmt.Errorf("malformed registration reply %q: %w", reply, err)
	}
	return id, nil
}

// FormatLocateReply renders the LOCATE response: the storage server
// endpoint the client should dial directly.
func FormatLocateReply(host string, port int) string {
	return fmt.Sprintf("SS_IP:%s\nSS_PORT:%d\n", host, port)
}

// ParseLocateReply extracts the endpoint from a LOCATE response.
func ParseLocateReply(reply string) (host string, port int, err error) {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "SS_IP:"); ok {
			host = strings.TrimSpace(v)
		} else if v, ok := strings.CutPrefix(line, "SS_PORT:"); ok {
			port, err = strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return "", 0, fmt.Errorf("malformed LOCATE reply %q: %w", reply, err)
			}
		}
	}
	if host == "" || port == 0 {
		return "", 0, fmt.Errorf("malformed LOCATE reply %q", reply)
	}
	return host, port, nil
}

// ValidFilename reports whether name is acceptable on the wire: non-empty,
// within length bounds, and free of path separators and parent references.
func ValidFilename(name string) bool {
	if name == "" || len(name) > MaxFilenameLen {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	if name == "." || name == ".." {
		return false
	}
	return true
}
