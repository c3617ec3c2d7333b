package nameserver

import (
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfs/quillfs/pkg/wire"
)

// newTestState creates a state with fast probes and no audit or metrics.
func newTestState(t *testing.T) *State {
	t.Helper()
	return NewState(StateConfig{ProbeTimeout: 200 * time.Millisecond}, nil, nil)
}

// liveEndpoint opens a listener standing in for a storage server's client
// port: liveness probes against it succeed until stop is called.
func liveEndpoint(t *testing.T) (host string, port int, stop func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err = strconv.Atoi(portStr)
	require.NoError(t, err)

	var once sync.Once
	stop = func() { once.Do(func() { ln.Close() }) }
	t.Cleanup(stop)
	return host, port, stop
}

// ============================================================================
// Registration Tests
// ============================================================================

func TestRegisterAssignsLowestFreeID(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	h1, p1, _ := liveEndpoint(t)
	h2, p2, _ := liveEndpoint(t)

	assert.Equal(t, 1, s.Register(h1, p1, nil))
	assert.Equal(t, 2, s.Register(h2, p2, nil))

	first, ok := s.Find(1)
	require.True(t, ok)
	assert.Equal(t, h1, first.Host)
	assert.Equal(t, p1, first.ClientPort)
	assert.False(t, first.Registered.IsZero())

	var ids []int
	for _, e := range s.ActiveServers() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []int{1, 2}, ids)
}

func TestRegisterRewritesPlaceholderPort(t *testing.T) {
	t.Parallel()

	s := NewState(StateConfig{BasePort: 9000}, nil, nil)
	require.Equal(t, 1, s.Register("10.0.0.5", 9000, nil))

	srv, ok := s.Find(1)
	require.True(t, ok)
	assert.Equal(t, 9001, srv.ClientPort)
	assert.Equal(t, "10.0.0.5:9001", srv.Addr())
}

func TestRegisterKeepsExplicitPort(t *testing.T) {
	t.Parallel()

	s := NewState(StateConfig{BasePort: 9000}, nil, nil)
	require.Equal(t, 1, s.Register("10.0.0.5", 4242, nil))

	srv, ok := s.Find(1)
	require.True(t, ok)
	assert.Equal(t, 4242, srv.ClientPort)
}

func TestRegisterRejectsWhenFull(t *testing.T) {
	t.Parallel()

	s := NewState(StateConfig{MaxServers: 2, ProbeTimeout: 200 * time.Millisecond}, nil, nil)
	h1, p1, _ := liveEndpoint(t)
	h2, p2, _ := liveEndpoint(t)
	h3, p3, _ := liveEndpoint(t)

	require.Equal(t, 1, s.Register(h1, p1, nil))
	require.Equal(t, 2, s.Register(h2, p2, nil))
	assert.Equal(t, -1, s.Register(h3, p3, nil))
}

func TestRegisterReusesEvictedIDAndPurgesIndex(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	h1, p1, stop1 := liveEndpoint(t)
	h2, p2, _ := liveEndpoint(t)

	require.Equal(t, 1, s.Register(h1, p1, []string{"keep.txt", "shared.txt"}))
	require.Equal(t, 2, s.Register(h2, p2, []string{"shared.txt"}))
	s.Put("lost.txt", 1)

	// Server 1 dies; a replacement registers, reporting only keep.txt.
	stop1()
	h3, p3, _ := liveEndpoint(t)
	assert.Equal(t, 1, s.Register(h3, p3, []string{"keep.txt"}))

	// The reported file survived the purge under the reused id.
	keep, ok := s.Get("keep.txt")
	require.True(t, ok)
	assert.Equal(t, []int{1}, keep.Servers)

	// Unreported pairs of the evicted server are gone.
	_, ok = s.Get("lost.txt")
	assert.False(t, ok)
	shared, ok := s.Get("shared.txt")
	require.True(t, ok)
	assert.Equal(t, []int{2}, shared.Servers)

	// Server 2 kept answering probes and was untouched.
	_, ok = s.Find(2)
	assert.True(t, ok)
}

func TestSweepEvictsOnlyDeadServers(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	h1, p1, stop1 := liveEndpoint(t)
	h2, p2, _ := liveEndpoint(t)
	require.Equal(t, 1, s.Register(h1, p1, []string{"one.txt"}))
	require.Equal(t, 2, s.Register(h2, p2, []string{"two.txt"}))

	assert.Equal(t, 0, s.Sweep())

	stop1()
	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Sweep())

	_, ok := s.Find(1)
	assert.False(t, ok)
	_, ok = s.Get("one.txt")
	assert.False(t, ok)

	two, ok := s.Get("two.txt")
	require.True(t, ok)
	assert.Equal(t, []int{2}, two.Servers)
}

// ============================================================================
// File Index Tests
// ============================================================================

func TestPutIsIdempotentAndSorted(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	s.Put("doc.txt", 3)
	s.Put("doc.txt", 1)
	s.Put("doc.txt", 3)

	e, ok := s.Get("doc.txt")
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, e.Servers)
}

func TestRemoveDropsEntryWithLastServer(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	s.Put("doc.txt", 1)
	s.Put("doc.txt", 2)

	s.Remove("doc.txt", 1)
	e, ok := s.Get("doc.txt")
	require.True(t, ok)
	assert.Equal(t, []int{2}, e.Servers)

	s.Remove("doc.txt", 2)
	_, ok = s.Get("doc.txt")
	assert.False(t, ok)

	// Removing an unknown file is a no-op.
	s.Remove("ghost.txt", 1)
}

func TestWalkVisitsEntriesInNameOrder(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	s.Put("zebra.txt", 1)
	s.Put("alpha.txt", 1)
	s.Put("mid.txt", 2)

	var names []string
	s.Walk(func(e IndexEntry) { names = append(names, e.Name) })
	assert.Equal(t, []string{"alpha.txt", "mid.txt", "zebra.txt"}, names)
}

func TestRecordCreateSeedsOwnership(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	s.RecordCreate("doc.txt", "alice", 2)

	e, ok := s.Get("doc.txt")
	require.True(t, ok)
	assert.Equal(t, "alice", e.Owner)
	assert.Equal(t, []string{"alice"}, e.ReadUsers)
	assert.Equal(t, []string{"alice"}, e.WriteUsers)
	assert.Equal(t, []int{2}, e.Servers)
	assert.False(t, e.Created.IsZero())
}

func TestMergeFileInfoAccumulatesServers(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.Local)
	fi := wire.FileInfo{
		Name:       "doc.txt",
		Owner:      "alice",
		Created:    created,
		ReadUsers:  []string{"alice", "bob"},
		WriteUsers: []string{"alice"},
	}
	s.MergeFileInfo(fi, 1)
	s.MergeFileInfo(fi, 2)

	e, ok := s.Get("doc.txt")
	require.True(t, ok)
	assert.Equal(t, "alice", e.Owner)
	assert.Equal(t, created, e.Created)
	assert.Equal(t, []string{"alice", "bob"}, e.ReadUsers)
	assert.Equal(t, []int{1, 2}, e.Servers)
}

// ============================================================================
// Access Control Tests
// ============================================================================

func TestGrantRequiresOwnership(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	s.RecordCreate("doc.txt", "alice", 1)

	_, err := s.GrantRead("ghost.txt", "alice", "bob")
	assert.ErrorIs(t, err, ErrNotIndexed)

	_, err = s.GrantRead("doc.txt", "bob", "carol")
	assert.ErrorIs(t, err, ErrNotOwner)

	changed, err := s.GrantRead("doc.txt", "alice", "bob")
	require.NoError(t, err)
	assert.True(t, changed)

	// Granting again reports no change.
	changed, err = s.GrantRead("doc.txt", "alice", "bob")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.GrantWrite("doc.txt", "alice", "bob")
	require.NoError(t, err)
	assert.True(t, changed)

	e, ok := s.Get("doc.txt")
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob"}, e.ReadUsers)
	assert.Equal(t, []string{"alice", "bob"}, e.WriteUsers)
}

func TestRevokeAccess(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	s.RecordCreate("doc.txt", "alice", 1)
	_, err := s.GrantRead("doc.txt", "alice", "bob")
	require.NoError(t, err)
	_, err = s.GrantWrite("doc.txt", "alice", "bob")
	require.NoError(t, err)

	assert.ErrorIs(t, s.RevokeAccess("ghost.txt", "alice", "bob"), ErrNotIndexed)
	assert.ErrorIs(t, s.RevokeAccess("doc.txt", "bob", "alice"), ErrNotOwner)
	assert.ErrorIs(t, s.RevokeAccess("doc.txt", "alice", "alice"), ErrRevokeOwner)

	require.NoError(t, s.RevokeAccess("doc.txt", "alice", "bob"))
	e, ok := s.Get("doc.txt")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, e.ReadUsers)
	assert.Equal(t, []string{"alice"}, e.WriteUsers)
}

// ============================================================================
// Routing Target Tests
// ============================================================================

func TestResolveServerPrefersLiveHolder(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	_, err := s.ResolveServer("doc.txt")
	assert.ErrorIs(t, err, ErrNoStorageServers)

	h1, p1, _ := liveEndpoint(t)
	h2, p2, _ := liveEndpoint(t)
	require.Equal(t, 1, s.Register(h1, p1, nil))
	require.Equal(t, 2, s.Register(h2, p2, nil))

	s.Put("doc.txt", 2)
	srv, err := s.ResolveServer("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.ID)

	// Unknown files and files whose holders are gone fall back to the
	// first active server.
	srv, err = s.ResolveServer("ghost.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.ID)

	s.Put("orphan.txt", 7)
	srv, err = s.ResolveServer("orphan.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, srv.ID)
}

func TestCreateTargetRoundRobins(t *testing.T) {
	t.Parallel()

	s := newTestState(t)
	_, err := s.CreateTarget("fresh.txt")
	assert.ErrorIs(t, err, ErrNoStorageServers)

	h1, p1, _ := liveEndpoint(t)
	h2, p2, _ := liveEndpoint(t)
	require.Equal(t, 1, s.Register(h1, p1, nil))
	require.Equal(t, 2, s.Register(h2, p2, nil))

	var placed []int
	for i := 0; i < 4; i++ {
		srv, err := s.CreateTarget("fresh.txt")
		require.NoError(t, err)
		placed = append(placed, srv.ID)
	}
	assert.Equal(t, []int{1, 2, 1, 2}, placed)

	// A file already indexed goes back to its holder regardless of the
	// rotation cursor.
	s.Put("pinned.txt", 2)
	srv, err := s.CreateTarget("pinned.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, srv.ID)
}
