package storage

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/wire"
)

// RegisterOptions describe how a storage server announces itself to the
// name server.
type RegisterOptions struct {
	// NameServer is the host:port to register with.
	NameServer string

	// Host is the address advertised for client traffic.
	Host string

	// BasePort is the client base port. It is sent as the CLIENT_PORT
	// placeholder; the name server rewrites it to base+id once the id is
	// assigned. Defaults to wire.StorageBasePort.
	BasePort int

	// Timeout bounds the whole handshake. Defaults to 5s.
	Timeout time.Duration
}

// Register announces a storage server and returns the assigned id.
//
// The file list in the announcement is left empty: the id (and with it
// the storage directory) is not known until the name server replies, so
// the name server repopulates its index right after registration by
// querying the new server directly.
func Register(opts RegisterOptions) (int, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	basePort := opts.BasePort
	if basePort == 0 {
		basePort = wire.StorageBasePort
	}

	conn, err := net.DialTimeout("tcp", opts.NameServer, timeout)
	if err != nil {
		return 0, fmt.Errorf("failed to reach name server %s: %w", opts.NameServer, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	reg := wire.Registration{
		IP:         opts.Host,
		NMPort:     nameServerPort(opts.NameServer),
		ClientPort: basePort,
	}
	if _, err := conn.Write([]byte(reg.Encode())); err != nil {
		return 0, fmt.Errorf("failed to send registration: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return 0, fmt.Errorf("failed to read registration reply: %w", err)
	}
	id, err := wire.ParseServerID(reply)
	if err != nil {
		return 0, err
	}
	if id < 1 {
		return 0, fmt.Errorf("name server rejected registration (registry full)")
	}

	logger.Info("registered with name server", "name_server", opts.NameServer, "server_id", id)
	return id, nil
}

func nameServerPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return wire.NameServerPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return wire.NameServerPort
	}
	return port
}
