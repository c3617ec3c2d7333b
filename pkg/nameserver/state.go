package nameserver

import (
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/metrics"
	"github.com/quillfs/quillfs/pkg/wire"
)

// ServerEntry describes one registered storage server.
type ServerEntry struct {
	ID         int
	Host       string
	ClientPort int
	Registered time.Time

	// LastSeen is the last time a probe (or the registration itself)
	// confirmed the server reachable.
	LastSeen time.Time
}

// Addr returns the host:port clients and the name server dial for this
// storage server.
func (e ServerEntry) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.ClientPort))
}

// IndexEntry mirrors one file's sidecar metadata plus the ids of the
// storage servers holding it. Last-modified exists only here: storage
// servers derive it from stat and report it through INFO.
type IndexEntry struct {
	Name       string
	Owner      string
	Created    time.Time
	Modified   time.Time
	Accessed   time.Time
	ReadUsers  []string
	WriteUsers []string
	Servers    []int
}

func (e *IndexEntry) clone() IndexEntry {
	c := *e
	c.ReadUsers = slices.Clone(e.ReadUsers)
	c.WriteUsers = slices.Clone(e.WriteUsers)
	c.Servers = slices.Clone(e.Servers)
	return c
}

// StateConfig bounds the registry.
//
// Default values (applied by NewState if zero):
//   - MaxServers: wire.MaxStorageServers (32)
//   - BasePort: wire.StorageBasePort (8081)
//   - ProbeTimeout: 300ms
type StateConfig struct {
	// MaxServers caps the number of simultaneously registered storage
	// servers. Registration beyond the cap is rejected with id -1.
	MaxServers int `mapstructure:"max_servers" validate:"min=0"`

	// BasePort is the placeholder client port: a registration advertising
	// exactly this port gets it rewritten to BasePort+id.
	BasePort int `mapstructure:"base_port" validate:"min=0"`

	// ProbeTimeout bounds each TCP liveness probe during a sweep.
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

func (c *StateConfig) applyDefaults() {
	if c.MaxServers == 0 {
		c.MaxServers = wire.MaxStorageServers
	}
	if c.BasePort == 0 {
		c.BasePort = wire.StorageBasePort
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = 300 * time.Millisecond
	}
}

// State is the name server's shared mutable state: the storage server
// registry and the file index, guarded by one mutex. Liveness probes run
// outside the lock so registration sweeps never stall routing.
type State struct {
	mu      sync.Mutex
	servers map[int]*ServerEntry
	index   map[string]*IndexEntry
	rr      int // round-robin cursor for CREATE placement

	cfg     StateConfig
	started time.Time

	audit   *Audit
	metrics metrics.RouterMetrics
}

// NewState creates an empty registry and index.
//
// Parameters:
//   - cfg: Registry bounds; zero values get defaults
//   - audit: Optional operator audit trail (nil disables)
//   - m: Optional metrics collector (nil disables collection)
func NewState(cfg StateConfig, audit *Audit, m metrics.RouterMetrics) *State {
	cfg.applyDefaults()
	return &State{
		servers: make(map[int]*ServerEntry),
		index:   make(map[string]*IndexEntry),
		cfg:     cfg,
		started: time.Now(),
		audit:   audit,
		metrics: m,
	}
}

// Started returns the state creation time; the admin plane reports uptime
// from it.
func (s *State) Started() time.Time { return s.started }

// ============================================================
// Registry
// ============================================================

// Register admits a storage server and returns its assigned id, or -1
// when the registry is full.
//
// The sweep runs first: every registered server is probed and the
// unreachable ones are evicted, dropping their index pairs except for
// files the newcomer reported (a restarted server usually inherits the
// freed id, so its reported pairs stay valid). The lowest unused id in
// [1, MaxServers] is then allocated, the placeholder client port is
// rewritten to base+id, and the reported files are unioned into the
// index.
func (s *State) Register(host string, clientPort int, reportedFiles []string) int {
	s.sweep(reportedFiles)

	s.mu.Lock()
	defer s.mu.Unlock()

	id := -1
	for candidate := 1; candidate <= s.cfg.MaxServers; candidate++ {
		if _, taken := s.servers[candidate]; !taken {
			id = candidate
			break
		}
	}
	if id == -1 {
		logger.Warn("storage registration rejected: registry full",
			"host", host, "max_servers", s.cfg.MaxServers)
		s.audit.Warnf("Storage server registration from %s rejected: registry full", host)
		return -1
	}

	if clientPort == s.cfg.BasePort {
		clientPort = s.cfg.BasePort + id
	}
	now := time.Now()
	s.servers[id] = &ServerEntry{
		ID:         id,
		Host:       host,
		ClientPort: clientPort,
		Registered: now,
		LastSeen:   now,
	}
	for _, f := range reportedFiles {
		s.putLocked(f, id)
	}

	logger.Info("storage server registered",
		"server_id", id, "host", host, "client_port", clientPort, "reported_files", len(reportedFiles))
	s.audit.Infof("Storage server %d registered at %s (client port %d)", id, host, clientPort)
	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	s.updateGaugesLocked()
	return id
}

// Find returns the registered server with the given id.
func (s *State) Find(id int) (ServerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.servers[id]
	if !ok {
		return ServerEntry{}, false
	}
	return *e, true
}

// ActiveServers returns the registered servers ordered by id.
func (s *State) ActiveServers() []ServerEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ServerEntry, 0, len(s.servers))
	for _, e := range s.servers {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b ServerEntry) int { return a.ID - b.ID })
	return out
}

// Sweep probes every registered server and evicts the unreachable ones,
// dropping all their index pairs. Returns the number evicted. The admin
// plane exposes this as an operator action.
func (s *State) Sweep() int {
	return s.sweep(nil)
}

// sweep probes outside the lock, then evicts under it. Index pairs of an
// evicted server survive only for files in reportedFiles. Survivors get
// their LastSeen refreshed.
func (s *State) sweep(reportedFiles []string) int {
	s.mu.Lock()
	entries := make([]ServerEntry, 0, len(s.servers))
	for _, e := range s.servers {
		entries = append(entries, *e)
	}
	s.mu.Unlock()

	var alive, dead []ServerEntry
	for _, e := range entries {
		if probeAddr(e.Addr(), s.cfg.ProbeTimeout) {
			alive = append(alive, e)
		} else {
			dead = append(dead, e)
		}
	}

	reported := make(map[string]struct{}, len(reportedFiles))
	for _, f := range reportedFiles {
		reported[f] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, e := range alive {
		if entry, ok := s.servers[e.ID]; ok {
			entry.LastSeen = now
		}
	}
	for _, e := range dead {
		s.evictLocked(e, reported)
	}
	if len(dead) > 0 {
		s.updateGaugesLocked()
	}
	return len(dead)
}

func (s *State) evictLocked(entry ServerEntry, reported map[string]struct{}) {
	if _, ok := s.servers[entry.ID]; !ok {
		return
	}
	delete(s.servers, entry.ID)

	for name, e := range s.index {
		if !slices.Contains(e.Servers, entry.ID) {
			continue
		}
		if _, keep := reported[name]; keep {
			continue
		}
		e.Servers = slices.DeleteFunc(e.Servers, func(id int) bool { return id == entry.ID })
		if len(e.Servers) == 0 {
			delete(s.index, name)
		}
	}

	logger.Info("storage server evicted", "server_id", entry.ID, "address", entry.Addr())
	s.audit.Warnf("Storage server %d at %s evicted: liveness probe failed", entry.ID, entry.Addr())
	if s.metrics != nil {
		s.metrics.RecordEviction()
	}
}

// probeAddr reports whether a TCP connect to addr succeeds within the
// timeout. Probes never retry.
func probeAddr(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// ============================================================
// File index
// ============================================================

// Get returns a copy of the index entry for name.
func (s *State) Get(name string) (IndexEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[name]
	if !ok {
		return IndexEntry{}, false
	}
	return e.clone(), true
}

// Put unions ssID into name's server set, creating a bare entry on first
// sight. Metadata arrives later through MergeFileInfo or RecordCreate.
func (s *State) Put(name string, ssID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(name, ssID)
	s.updateGaugesLocked()
}

func (s *State) putLocked(name string, ssID int) {
	e, ok := s.index[name]
	if !ok {
		e = &IndexEntry{Name: name}
		s.index[name] = e
	}
	if !slices.Contains(e.Servers, ssID) {
		e.Servers = append(e.Servers, ssID)
		slices.Sort(e.Servers)
	}
}

// Remove drops the (name, ssID) pair, deleting the entry when its server
// set empties.
func (s *State) Remove(name string, ssID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[name]
	if !ok {
		return
	}
	e.Servers = slices.DeleteFunc(e.Servers, func(id int) bool { return id == ssID })
	if len(e.Servers) == 0 {
		delete(s.index, name)
	}
	s.updateGaugesLocked()
}

// Walk calls fn with a copy of every index entry, ordered by name.
func (s *State) Walk(fn func(IndexEntry)) {
	s.mu.Lock()
	entries := make([]IndexEntry, 0, len(s.index))
	for _, e := range s.index {
		entries = append(entries, e.clone())
	}
	s.mu.Unlock()

	slices.SortFunc(entries, func(a, b IndexEntry) int { return strings.Compare(a.Name, b.Name) })
	for _, e := range entries {
		fn(e)
	}
}

// RecordCreate indexes a freshly created file: the requester owns it,
// appears in both access lists, and every timestamp is now.
func (s *State) RecordCreate(name, owner string, ssID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.putLocked(name, ssID)
	e := s.index[name]
	e.Owner = owner
	e.Created = now
	e.Modified = now
	e.Accessed = now
	e.ReadUsers = []string{owner}
	e.WriteUsers = []string{owner}
	s.updateGaugesLocked()
}

// MergeFileInfo folds a storage server's INFO record into the index,
// creating the entry when absent. The registration refresh calls this
// once per listed file.
func (s *State) MergeFileInfo(fi wire.FileInfo, ssID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putLocked(fi.Name, ssID)
	e := s.index[fi.Name]
	e.Owner = fi.Owner
	e.Created = fi.Created
	e.Modified = fi.Modified
	e.Accessed = fi.Accessed
	e.ReadUsers = slices.Clone(fi.ReadUsers)
	e.WriteUsers = slices.Clone(fi.WriteUsers)
	s.updateGaugesLocked()
}

// GrantRead adds target to name's read list. Only the owner may grant;
// the bool reports whether the list changed.
func (s *State) GrantRead(name, requester, target string) (bool, error) {
	return s.grant(name, requester, target, false)
}

// GrantWrite adds target to name's write list.
func (s *State) GrantWrite(name, requester, target string) (bool, error) {
	return s.grant(name, requester, target, true)
}

func (s *State) grant(name, requester, target string, write bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[name]
	if !ok {
		return false, ErrNotIndexed
	}
	if e.Owner != requester {
		return false, ErrNotOwner
	}

	list := &e.ReadUsers
	if write {
		list = &e.WriteUsers
	}
	if slices.Contains(*list, target) {
		return false, nil
	}
	*list = append(*list, target)
	return true, nil
}

// RevokeAccess removes target from both access lists. Only the owner may
// revoke, and the owner's own access is immutable.
func (s *State) RevokeAccess(name, requester, target string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[name]
	if !ok {
		return ErrNotIndexed
	}
	if e.Owner != requester {
		return ErrNotOwner
	}
	if e.Owner == target {
		return ErrRevokeOwner
	}

	e.ReadUsers = slices.DeleteFunc(e.ReadUsers, func(u string) bool { return u == target })
	e.WriteUsers = slices.DeleteFunc(e.WriteUsers, func(u string) bool { return u == target })
	return nil
}

// ============================================================
// Routing targets
// ============================================================

// ResolveServer picks the storage server for a single-SS command: the
// first live holder of name, else the first active server.
func (s *State) ResolveServer(name string) (ServerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.index[name]; ok {
		for _, id := range e.Servers {
			if srv, live := s.servers[id]; live {
				return *srv, nil
			}
		}
	}
	return s.firstActiveLocked()
}

// CreateTarget picks where CREATE lands: the indexed server when the file
// is already known, else the next server in round-robin order.
func (s *State) CreateTarget(name string) (ServerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.index[name]; ok {
		for _, id := range e.Servers {
			if srv, live := s.servers[id]; live {
				return *srv, nil
			}
		}
	}

	if len(s.servers) == 0 {
		return ServerEntry{}, ErrNoStorageServers
	}
	ids := make([]int, 0, len(s.servers))
	for id := range s.servers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	srv := s.servers[ids[s.rr%len(ids)]]
	s.rr++
	return *srv, nil
}

func (s *State) firstActiveLocked() (ServerEntry, error) {
	if len(s.servers) == 0 {
		return ServerEntry{}, ErrNoStorageServers
	}
	best := -1
	for id := range s.servers {
		if best == -1 || id < best {
			best = id
		}
	}
	return *s.servers[best], nil
}

func (s *State) updateGaugesLocked() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetRegisteredServers(len(s.servers))
	s.metrics.SetIndexedFiles(len(s.index))
}
