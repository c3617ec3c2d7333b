package nameserver

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/internal/telemetry"
	"github.com/quillfs/quillfs/pkg/wire"
)

// routeWrite resolves the storage server for an interactive WRITE,
// forwards the envelope, and bridges the two sockets for the rest of the
// session. Argument validation happens storage-side: usage errors travel
// back through the bridge like any other reply.
func (r *Router) routeWrite(ctx context.Context, env *wire.Envelope, cmd wire.Command, clientR io.Reader, clientConn net.Conn, clientW io.Writer) error {
	srv, err := r.state.ResolveServer(cmd.Arg(0))
	if err != nil {
		return writeReply(clientW, wire.ReplyNoStorageServer)
	}

	ss, err := dialServer(srv)
	if err != nil {
		logger.Warn("write session connect failed", "server_id", srv.ID, "error", err)
		return writeReply(clientW, wire.ReplyCannotConnectStorage(srv.ClientPort))
	}

	if _, err := io.WriteString(ss, env.Encode()); err != nil {
		_ = ss.Close()
		logger.Warn("write session forward failed", "server_id", srv.ID, "error", err)
		return writeReply(clientW, wire.ReplyCannotConnectStorage(srv.ClientPort))
	}

	r.bridge(ctx, clientConn, clientR, clientW, ss, srv, cmd.Arg(0), env.User)
	return nil
}

// bridge relays bytes both ways until each direction reaches EOF. EOF on
// one side propagates to the peer as a TCP half-close, so the final reply
// after ETIRW still flows back to the client, and a vanished client tears
// the session (and its sentence lock) down on the storage side. The
// bridge owns the storage connection; the accept loop owns the client's.
func (r *Router) bridge(ctx context.Context, client net.Conn, clientR io.Reader, clientW io.Writer, ss net.Conn, srv ServerEntry, file, user string) {
	session := uuid.NewString()
	start := time.Now()
	logger.Debug("write session bridged",
		"session_id", session, "server_id", srv.ID, "file", file, "user", user)
	_, span := telemetry.StartProxySpan(ctx, srv.ID,
		telemetry.Filename(file), telemetry.Username(user))
	defer span.End()
	if r.metrics != nil {
		r.metrics.RecordProxySessionStart()
	}

	var clientBytes, serverBytes int64
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		clientBytes, _ = io.Copy(ss, clientR)
		halfClose(ss)
	}()
	go func() {
		defer wg.Done()
		serverBytes, _ = io.Copy(clientW, ss)
		halfClose(client)
	}()
	wg.Wait()
	_ = ss.Close()

	duration := time.Since(start)
	if r.metrics != nil {
		r.metrics.RecordProxySessionEnd(duration, uint64(clientBytes), uint64(serverBytes))
	}
	logger.Debug("write session closed",
		"session_id", session,
		"client_bytes", clientBytes,
		"server_bytes", serverBytes,
		"duration", duration)
}

// halfClose shuts down the write side where the transport supports it,
// falling back to a full close.
func halfClose(conn net.Conn) {
	type closeWriter interface{ CloseWrite() error }
	if cw, ok := conn.(closeWriter); ok {
		_ = cw.CloseWrite()
		return
	}
	_ = conn.Close()
}
