package nameserver

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfs/quillfs/pkg/storage"
	"github.com/quillfs/quillfs/pkg/wire"
)

// startBareStorage serves store on an ephemeral port without registering
// it anywhere, and returns the endpoint for a hand-built registry entry.
func startBareStorage(t *testing.T, store *storage.Store) (host string, port int) {
	t.Helper()

	srv := storage.NewServer(store, storage.ServerConfig{
		Addr:            "127.0.0.1:0",
		ShutdownTimeout: 5 * time.Second,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	host, portStr, err := net.SplitHostPort(srv.GetListenerAddr())
	require.NoError(t, err)
	port, err = strconv.Atoi(portStr)
	require.NoError(t, err)
	return host, port
}

// ============================================================================
// Index Refresh Tests
// ============================================================================

func TestRefreshIndexPullsFromStorage(t *testing.T) {
	t.Parallel()

	store := newStorageStore(t, 3)
	require.NoError(t, store.Create("a.txt", "alice"))
	require.NoError(t, store.Create("b.txt", "bob"))
	_, err := store.AddRead("a.txt", "carol")
	require.NoError(t, err)

	host, port := startBareStorage(t, store)

	s := newTestState(t)
	require.NoError(t, s.RefreshIndex(ServerEntry{ID: 3, Host: host, ClientPort: port}, time.Second))

	a, ok := s.Get("a.txt")
	require.True(t, ok)
	assert.Equal(t, "alice", a.Owner)
	assert.Equal(t, []string{"alice", "carol"}, a.ReadUsers)
	assert.Equal(t, []string{"alice"}, a.WriteUsers)
	assert.Equal(t, []int{3}, a.Servers)

	b, ok := s.Get("b.txt")
	require.True(t, ok)
	assert.Equal(t, "bob", b.Owner)
	assert.Equal(t, []int{3}, b.Servers)
}

func TestRefreshIndexEmptyServer(t *testing.T) {
	t.Parallel()

	store := newStorageStore(t, 1)
	host, port := startBareStorage(t, store)

	s := newTestState(t)
	require.NoError(t, s.RefreshIndex(ServerEntry{ID: 1, Host: host, ClientPort: port}, time.Second))

	var count int
	s.Walk(func(IndexEntry) { count++ })
	assert.Zero(t, count)
}

func TestRegistrationTriggersRefresh(t *testing.T) {
	t.Parallel()

	_, addr, _ := startNameServer(t, RouterConfig{}, nil)

	// The storage server already holds files when it registers; the
	// background refresh mirrors them into the index.
	store := newStorageStore(t, 1)
	require.NoError(t, store.Create("old.txt", "alice"))
	_, err := store.AddRead("old.txt", "bob")
	require.NoError(t, err)
	serveStorage(t, addr, store)

	require.Eventually(t, func() bool {
		reply, err := tryCommand(addr, "alice", "INFO old.txt")
		if err != nil {
			return false
		}
		fi, err := wire.ParseFileInfo(reply)
		return err == nil && fi.Owner == "alice"
	}, 5*time.Second, 50*time.Millisecond)

	fi, err := wire.ParseFileInfo(sendCommand(t, addr, "alice", "INFO old.txt"))
	require.NoError(t, err)
	assert.Equal(t, "alice", fi.Owner)
	assert.Equal(t, []string{"alice", "bob"}, fi.ReadUsers)
	assert.Equal(t, []int{1}, fi.StorageIDs)
}
