// Package storage implements a storage server: the file engine (create,
// read, delete, stream, info, listing), per-file ACL sidecars, sentence
// oriented interactive writes with locking, undo, tagged checkpoints, the
// registration handshake with the name server, and the TCP server that
// speaks the wire protocol.
//
// All state lives on the local filesystem under <root>/storage<id>/:
//
//	files/        file contents
//	meta/         <name>.meta ACL sidecars
//	undo/         <name> undo backups
//	swap/         <name>.tmp staging for the undo swap
//	checkpoints/  <san>_<tag>.ckpt + .meta
//	<name>.<n>.lock  sentence lock markers
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/quillfs/quillfs/pkg/metrics"
	"github.com/quillfs/quillfs/pkg/wire"
)

// Sentinel errors. Connection handlers translate these to the wire reply
// catalog; everything else surfaces as a generic error line and an ERROR
// log entry.
var (
	// ErrNotFound indicates the file (or its sidecar) does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrExists indicates CREATE hit an existing file.
	ErrExists = errors.New("file already exists")

	// ErrNoReadAccess indicates the user is not owner nor in READ_USERS.
	ErrNoReadAccess = errors.New("no read access")

	// ErrNoWriteAccess indicates the user is not owner nor in WRITE_USERS.
	ErrNoWriteAccess = errors.New("no write access")

	// ErrLocked indicates the (file, sentence) pair is held by another
	// write session.
	ErrLocked = errors.New("sentence locked")

	// ErrNoUndo indicates no undo backup exists for the file.
	ErrNoUndo = errors.New("no undo history")

	// ErrCheckpointExists indicates the tag is already used for the file.
	ErrCheckpointExists = errors.New("checkpoint already exists")

	// ErrCheckpointNotFound indicates no checkpoint carries the tag.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrInvalidName rejects names with path separators or parent
	// references before they reach the filesystem.
	ErrInvalidName = errors.New("invalid filename")
)

// DefaultStreamDelay is the pause between streamed words.
const DefaultStreamDelay = 100 * time.Millisecond

// Store is the on-disk state of one storage server instance. All methods
// are safe for concurrent use: the filesystem provides file-level
// atomicity, the lock table serializes sentence sessions, and a per-file
// mutex serializes the commit read-modify-write.
type Store struct {
	id   int
	base string // <root>/storage<id>

	// StreamDelay is the pause between streamed words. Defaults to
	// DefaultStreamDelay; tests shorten it.
	StreamDelay time.Duration

	locks   *lockTable
	writeMu *mutexMap
	metrics metrics.StorageMetrics
}

// NewStore creates (or reopens) the storage tree for server id under root
// and returns a ready Store.
//
// Parameters:
//   - root: Data directory shared by all local storage servers
//   - id: Server id assigned by the name server (1..32)
//   - m: Optional metrics collector (nil disables collection)
func NewStore(root string, id int, m metrics.StorageMetrics) (*Store, error) {
	base := filepath.Join(root, fmt.Sprintf("storage%d", id))
	for _, dir := range []string{"files", "meta", "undo", "swap", "checkpoints"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
		}
	}
	return &Store{
		id:          id,
		base:        base,
		StreamDelay: DefaultStreamDelay,
		locks:       newLockTable(base),
		writeMu:     newMutexMap(),
		metrics:     m,
	}, nil
}

// ID returns the server id assigned at registration.
func (s *Store) ID() int { return s.id }

// BaseDir returns the <root>/storage<id> directory.
func (s *Store) BaseDir() string { return s.base }

func (s *Store) filePath(name string) string {
	return filepath.Join(s.base, "files", name)
}

func (s *Store) metaPath(name string) string {
	return filepath.Join(s.base, "meta", name+".meta")
}

func (s *Store) undoPath(name string) string {
	return filepath.Join(s.base, "undo", name)
}

func (s *Store) swapPath(name string) string {
	return filepath.Join(s.base, "swap", name+".tmp")
}

func (s *Store) checkpointDir() string {
	return filepath.Join(s.base, "checkpoints")
}

// checkName rejects names that could escape the files directory.
func checkName(name string) error {
	if !wire.ValidFilename(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// copyFile copies src to dst, truncating dst. The copy is not atomic;
// callers that need rollback keep their own backup first.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := out.ReadFrom(in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// mutexMap hands out one mutex per file so commits serialize the full
// sentence-array rewrite without a global lock.
type mutexMap struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func newMutexMap() *mutexMap {
	return &mutexMap{m: make(map[string]*sync.Mutex)}
}

func (mm *mutexMap) get(name string) *sync.Mutex {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if l, ok := mm.m[name]; ok {
		return l
	}
	l := &sync.Mutex{}
	mm.m[name] = l
	return l
}
