package nameserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/internal/telemetry"
	"github.com/quillfs/quillfs/pkg/metrics"
	"github.com/quillfs/quillfs/pkg/users"
	"github.com/quillfs/quillfs/pkg/wire"
)

// RouterConfig tunes command routing.
//
// Default values (applied by NewRouter if zero):
//   - FanoutTimeout: 1s
type RouterConfig struct {
	// ExecEnabled allows the EXEC command to run file contents through
	// the command interpreter. Off by default; when disabled EXEC replies
	// with a fixed refusal line.
	ExecEnabled bool `mapstructure:"exec_enabled"`

	// FanoutTimeout is the per-server I/O bound for the VIEW fan-out,
	// the registration refresh, and asynchronous ACL forwards.
	FanoutTimeout time.Duration `mapstructure:"fanout_timeout"`
}

func (c *RouterConfig) applyDefaults() {
	if c.FanoutTimeout == 0 {
		c.FanoutTimeout = time.Second
	}
}

// Router authenticates framed requests against the credential oracle and
// routes commands: index-local ones are answered directly, storage
// commands are forwarded to the server resolved through the index, VIEW
// fans out to every active server, and WRITE bridges the client to the
// storage server for its whole interactive session.
type Router struct {
	state *State
	users *users.Store
	audit *Audit
	cfg   RouterConfig

	// metrics is optional; nil disables collection.
	metrics metrics.RouterMetrics
}

// NewRouter creates a router over state, authenticating against oracle.
// audit and m may be nil.
func NewRouter(state *State, oracle *users.Store, audit *Audit, cfg RouterConfig, m metrics.RouterMetrics) *Router {
	cfg.applyDefaults()
	return &Router{
		state:   state,
		users:   oracle,
		audit:   audit,
		cfg:     cfg,
		metrics: m,
	}
}

// State returns the registry and index this router serves from.
func (r *Router) State() *State { return r.state }

// Users returns the credential oracle.
func (r *Router) Users() *users.Store { return r.users }

// HandleRequest reads one framed request from conn and serves it. A
// connection carries exactly one request; WRITE keeps the connection for
// its interactive session. The returned error reports transport and
// framing failures only; protocol outcomes are reply lines.
func (r *Router) HandleRequest(ctx context.Context, conn net.Conn) error {
	br := bufio.NewReader(conn)
	req, err := wire.ReadRequest(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		_ = writeReply(conn, wire.ReplyInvalidCommand)
		return fmt.Errorf("failed to read request: %w", err)
	}

	switch req.Kind {
	case wire.KindAuth:
		return r.handleAuth(conn, req.Auth)
	case wire.KindRegister:
		return r.handleRegister(conn, req.Registration)
	case wire.KindLocate:
		return r.handleLocate(conn, req.LocateFile)
	default:
		return r.handleCommand(ctx, conn, br, req.Envelope)
	}
}

// handleAuth serves the credential check clients perform before issuing
// commands. Both outcomes are audited.
func (r *Router) handleAuth(w io.Writer, auth *wire.AuthRequest) error {
	if err := r.users.Authenticate(auth.User, auth.Pass); err != nil {
		logger.Info("authentication failed", "user", auth.User)
		r.audit.Warnf("Authentication failed for user '%s'", auth.User)
		if r.metrics != nil {
			r.metrics.RecordAuthFailure()
		}
		return writeReply(w, wire.AuthFailed+"\n")
	}

	logger.Debug("authentication succeeded", "user", auth.User)
	r.audit.Infof("Authentication succeeded for user '%s'", auth.User)
	return writeReply(w, wire.AuthSuccess+"\n")
}

// handleRegister admits a storage server, replies with its id, and kicks
// off the asynchronous index refresh against it.
func (r *Router) handleRegister(conn net.Conn, reg *wire.Registration) error {
	host := reg.IP
	if host == "" {
		if h, _, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
			host = h
		}
	}

	id := r.state.Register(host, reg.ClientPort, reg.Files)
	if err := writeReply(conn, wire.FormatServerID(id)); err != nil {
		return err
	}
	if id < 1 {
		return nil
	}

	srv, ok := r.state.Find(id)
	if !ok {
		return nil
	}
	go func() {
		if err := r.state.RefreshIndex(srv, r.cfg.FanoutTimeout); err != nil {
			logger.Warn("index refresh failed", "server_id", srv.ID, "error", err)
		}
	}()
	return nil
}

// handleLocate resolves the storage server endpoint holding file so the
// client can stream from it directly.
func (r *Router) handleLocate(w io.Writer, file string) error {
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	entry, ok := r.state.Get(file)
	if !ok {
		return writeReply(w, wire.ReplyFileNotFound(file))
	}
	for _, id := range entry.Servers {
		if srv, live := r.state.Find(id); live {
			return writeReply(w, wire.FormatLocateReply(srv.Host, srv.ClientPort))
		}
	}
	return writeReply(w, wire.ReplyNoStorageServer)
}

// handleCommand authenticates the envelope and routes the command. Auth
// failure terminates the connection without consuming further input.
func (r *Router) handleCommand(ctx context.Context, conn net.Conn, br *bufio.Reader, env *wire.Envelope) error {
	if err := r.users.Authenticate(env.User, env.Pass); err != nil {
		logger.Info("command rejected: authentication failed", "user", env.User)
		r.audit.Warnf("Authentication failed for user '%s'", env.User)
		if r.metrics != nil {
			r.metrics.RecordAuthFailure()
		}
		return writeReply(conn, wire.ReplyAuthFailedLine)
	}

	cmd := wire.ParseCommand(env.Cmd)
	logger.Debug("routing command", "verb", cmd.Verb, "user", env.User)
	r.audit.Infof("User '%s' issued: %s", env.User, cmd.Raw)

	if r.metrics != nil {
		r.metrics.RecordCommandStart(cmd.Verb)
		defer r.metrics.RecordCommandEnd(cmd.Verb)
	}

	ctx, span := telemetry.StartCommandSpan(ctx, cmd.Verb,
		telemetry.Username(env.User), telemetry.Filename(cmd.Arg(0)))
	defer span.End()

	start := time.Now()
	rec := &replyRecorder{w: conn}
	err := r.route(ctx, env, cmd, br, conn, rec)
	if err != nil {
		telemetry.RecordError(ctx, err)
	}
	if r.metrics != nil {
		r.metrics.RecordCommand(cmd.Verb, time.Since(start), rec.errorReply)
	}
	return err
}

func (r *Router) route(ctx context.Context, env *wire.Envelope, cmd wire.Command, br *bufio.Reader, conn net.Conn, w io.Writer) error {
	switch cmd.Verb {
	case wire.VerbView:
		return r.routeView(env, w)
	case wire.VerbInfo:
		return r.routeInfo(cmd, w)
	case wire.VerbList:
		return r.routeList(w)
	case wire.VerbAddAccess:
		return r.routeAddAccess(env, cmd, w)
	case wire.VerbRemAccess:
		return r.routeRemAccess(env, cmd, w)
	case wire.VerbCreate:
		return r.routeCreate(env, cmd, w)
	case wire.VerbDelete:
		return r.routeDelete(env, cmd, w)
	case wire.VerbRead, wire.VerbStream, wire.VerbUndo, wire.VerbCheckpoint,
		wire.VerbViewCheckpoint, wire.VerbRevert, wire.VerbListCheckpoints:
		return r.routeRelay(env, cmd, w)
	case wire.VerbExec:
		return r.routeExec(ctx, env, cmd, w)
	case wire.VerbWrite:
		return r.routeWrite(ctx, env, cmd, br, conn, w)
	default:
		return writeReply(w, wire.ReplyInvalidCommand)
	}
}

// routeView fans the listing out to every active storage server on fresh
// connections and concatenates the sections in id order. Per-server
// transport errors are skipped.
func (r *Router) routeView(env *wire.Envelope, w io.Writer) error {
	servers := r.state.ActiveServers()
	if len(servers) == 0 {
		return writeReply(w, wire.ReplyNoActiveServers)
	}

	sections := make([]string, len(servers))
	var g errgroup.Group
	for i, srv := range servers {
		i, srv := i, srv
		g.Go(func() error {
			reply, err := forwardCommand(srv, *env, r.cfg.FanoutTimeout)
			if err != nil {
				logger.Debug("view fan-out skipped server", "server_id", srv.ID, "error", err)
				return nil
			}
			sections[i] = wire.FanoutHeader(srv.ID, srv.ClientPort) + reply
			return nil
		})
	}
	_ = g.Wait()

	var b strings.Builder
	for _, section := range sections {
		b.WriteString(section)
	}
	return writeReply(w, b.String())
}

// routeInfo serves INFO entirely from the index; no storage round trip.
func (r *Router) routeInfo(cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	if file == "" {
		return writeReply(w, wire.ReplySpecifyFilename)
	}
	entry, ok := r.state.Get(file)
	if !ok {
		return writeReply(w, wire.ReplyFileNotFound(file))
	}
	return writeReply(w, wire.FormatFileInfo(wire.FileInfo{
		Name:       entry.Name,
		Owner:      entry.Owner,
		Created:    entry.Created,
		Modified:   entry.Modified,
		Accessed:   entry.Accessed,
		ReadUsers:  entry.ReadUsers,
		WriteUsers: entry.WriteUsers,
		StorageIDs: entry.Servers,
	}))
}

// routeList enumerates the credential oracle's usernames.
func (r *Router) routeList(w io.Writer) error {
	names, err := r.users.List()
	if err != nil {
		logger.Error("user listing failed", "error", err)
		return writeReply(w, wire.ReplyUsersFileError)
	}

	var b strings.Builder
	b.WriteString(wire.ReplyUsersHeader)
	for _, name := range names {
		b.WriteString(wire.ReplyUserLine(name))
	}
	return writeReply(w, b.String())
}

// routeAddAccess mutates the authoritative index entry, then pushes the
// change to the owning storage server in the background.
func (r *Router) routeAddAccess(env *wire.Envelope, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 3 {
		return writeReply(w, wire.UsageAddAccess)
	}
	flag, file, target := cmd.Arg(0), cmd.Arg(1), cmd.Arg(2)
	if flag != "-R" && flag != "-W" {
		return writeReply(w, wire.ReplyInvalidAccessFlag(flag))
	}

	var changed bool
	var err error
	if flag == "-R" {
		changed, err = r.state.GrantRead(file, env.User, target)
	} else {
		changed, err = r.state.GrantWrite(file, env.User, target)
	}
	switch {
	case errors.Is(err, ErrNotIndexed):
		return writeReply(w, wire.ReplyFileNotFound(file))
	case errors.Is(err, ErrNotOwner):
		return writeReply(w, wire.ReplyOnlyOwnerGrant(file))
	case err != nil:
		logger.Error("access grant failed", "file", file, "target", target, "error", err)
		return writeReply(w, wire.ReplyFileNotFound(file))
	}

	if !changed {
		if flag == "-R" {
			return writeReply(w, wire.ReplyAlreadyHasRead(target, file))
		}
		return writeReply(w, wire.ReplyAlreadyHasWrite(target, file))
	}

	r.forwardAccessChange(env, file)
	if flag == "-R" {
		r.audit.Infof("User '%s' granted read access to '%s' on '%s'", env.User, target, file)
		return writeReply(w, wire.ReplyReadGranted(target, file))
	}
	r.audit.Infof("User '%s' granted write access to '%s' on '%s'", env.User, target, file)
	return writeReply(w, wire.ReplyWriteGranted(target, file))
}

// routeRemAccess revokes both access lists for the target on the index,
// then pushes the change to the owning storage server.
func (r *Router) routeRemAccess(env *wire.Envelope, cmd wire.Command, w io.Writer) error {
	if len(cmd.Args) != 2 {
		return writeReply(w, wire.UsageRemAccess)
	}
	file, target := cmd.Arg(0), cmd.Arg(1)

	err := r.state.RevokeAccess(file, env.User, target)
	switch {
	case errors.Is(err, ErrNotIndexed):
		return writeReply(w, wire.ReplyFileNotFound(file))
	case errors.Is(err, ErrNotOwner):
		return writeReply(w, wire.ReplyOnlyOwnerRevoke(file))
	case errors.Is(err, ErrRevokeOwner):
		return writeReply(w, wire.ReplyCannotRevokeOwner)
	case err != nil:
		logger.Error("access revoke failed", "file", file, "target", target, "error", err)
		return writeReply(w, wire.ReplyRevokeFailed)
	}

	r.forwardAccessChange(env, file)
	r.audit.Infof("User '%s' revoked access for '%s' on '%s'", env.User, target, file)
	return writeReply(w, wire.ReplyAccessRevoked(target, file))
}

// forwardAccessChange replays an ACL command on the owning storage server
// so its sidecar converges with the index. Best effort: a miss is only
// logged, and the next registration refresh re-mirrors from the sidecar.
func (r *Router) forwardAccessChange(env *wire.Envelope, file string) {
	entry, ok := r.state.Get(file)
	if !ok {
		return
	}

	var srv ServerEntry
	live := false
	for _, id := range entry.Servers {
		if srv, live = r.state.Find(id); live {
			break
		}
	}
	if !live {
		return
	}

	fwd := *env
	go func() {
		if _, err := forwardCommand(srv, fwd, r.cfg.FanoutTimeout); err != nil {
			logger.Debug("access change forward failed", "file", file, "server_id", srv.ID, "error", err)
		}
	}()
}

// routeCreate forwards CREATE to the chosen storage server and indexes
// the file when the server reports success.
func (r *Router) routeCreate(env *wire.Envelope, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	srv, err := r.state.CreateTarget(file)
	if err != nil {
		return writeReply(w, wire.ReplyNoStorageServer)
	}

	reply, err := forwardCommand(srv, *env, 0)
	if err != nil {
		logger.Warn("create forward failed", "file", file, "server_id", srv.ID, "error", err)
		return writeReply(w, wire.ReplyCannotConnectStorage(srv.ClientPort))
	}
	if file != "" && strings.HasPrefix(reply, "Success:") {
		r.state.RecordCreate(file, env.User, srv.ID)
	}
	return writeReply(w, reply)
}

// routeDelete forwards DELETE to the owning storage server and drops the
// index pair when the server confirms.
func (r *Router) routeDelete(env *wire.Envelope, cmd wire.Command, w io.Writer) error {
	file := cmd.Arg(0)
	srv, err := r.state.ResolveServer(file)
	if err != nil {
		return writeReply(w, wire.ReplyNoStorageServer)
	}

	reply, err := forwardCommand(srv, *env, 0)
	if err != nil {
		logger.Warn("delete forward failed", "file", file, "server_id", srv.ID, "error", err)
		return writeReply(w, wire.ReplyCannotConnectStorage(srv.ClientPort))
	}
	if strings.Contains(reply, "deleted successfully") {
		r.state.Remove(file, srv.ID)
	}
	return writeReply(w, reply)
}

// routeRelay forwards a single storage command and streams the reply back
// as it arrives. STREAM trickles tokens, so nothing is buffered.
func (r *Router) routeRelay(env *wire.Envelope, cmd wire.Command, w io.Writer) error {
	srv, err := r.state.ResolveServer(cmd.Arg(0))
	if err != nil {
		return writeReply(w, wire.ReplyNoStorageServer)
	}

	conn, err := dialServer(srv)
	if err != nil {
		logger.Warn("storage connection failed", "server_id", srv.ID, "error", err)
		return writeReply(w, wire.ReplyCannotConnectStorage(srv.ClientPort))
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, env.Encode()); err != nil {
		logger.Warn("command forward failed", "server_id", srv.ID, "error", err)
		return writeReply(w, wire.ReplyCannotConnectStorage(srv.ClientPort))
	}
	if _, err := io.Copy(w, conn); err != nil {
		return fmt.Errorf("relay from storage server %d interrupted: %w", srv.ID, err)
	}
	return nil
}

// replyRecorder notes whether the first reply written was an error or
// usage line so the command metric can label the outcome.
type replyRecorder struct {
	w          io.Writer
	sniffed    bool
	errorReply bool
}

func (r *replyRecorder) Write(p []byte) (int, error) {
	if !r.sniffed {
		r.sniffed = true
		s := string(p)
		r.errorReply = strings.HasPrefix(s, "Error") ||
			strings.HasPrefix(s, "ERROR") ||
			strings.HasPrefix(s, "Usage") ||
			strings.HasPrefix(s, "Invalid") ||
			strings.HasPrefix(s, "No active")
	}
	return r.w.Write(p)
}

// writeReply sends one reply string, normalizing the (io.Writer, error)
// shape handlers deal in.
func writeReply(w io.Writer, reply string) error {
	if reply == "" {
		return nil
	}
	if _, err := io.WriteString(w, reply); err != nil {
		return fmt.Errorf("failed to write reply: %w", err)
	}
	return nil
}
