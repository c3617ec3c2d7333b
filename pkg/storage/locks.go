package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// lockTable tracks which (file, sentence) pairs are held by a write
// session. The in-memory map is the authority for mutual exclusion; a
// marker file <base>/<name>.<n>.lock mirrors each held lock on disk so
// operators can see active sessions. Stale markers left by a crash are
// ignored and overwritten.
type lockTable struct {
	base string

	mu   sync.Mutex
	held map[lockKey]string // holder username
}

type lockKey struct {
	name     string
	sentence int
}

func newLockTable(base string) *lockTable {
	return &lockTable{base: base, held: make(map[lockKey]string)}
}

func (lt *lockTable) markerPath(name string, sentence int) string {
	return filepath.Join(lt.base, fmt.Sprintf("%s.%d.lock", name, sentence))
}

// acquire takes the lock for (name, sentence) on behalf of user. Returns
// ErrLocked when another session holds it.
func (lt *lockTable) acquire(name string, sentence int, user string) error {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	key := lockKey{name: name, sentence: sentence}
	if holder, ok := lt.held[key]; ok {
		return fmt.Errorf("%w: sentence %d of %s held by %s", ErrLocked, sentence, name, holder)
	}
	lt.held[key] = user

	// Mirror on disk. Failure to create the marker does not undo the
	// in-memory acquisition.
	if f, err := os.Create(lt.markerPath(name, sentence)); err == nil {
		f.Close()
	}
	return nil
}

// release drops the lock and its marker. Releasing an unheld lock is a
// no-op.
func (lt *lockTable) release(name string, sentence int) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	delete(lt.held, lockKey{name: name, sentence: sentence})
	_ = os.Remove(lt.markerPath(name, sentence))
}

// holder reports who holds (name, sentence), if anyone.
func (lt *lockTable) holder(name string, sentence int) (string, bool) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	h, ok := lt.held[lockKey{name: name, sentence: sentence}]
	return h, ok
}

// count returns the number of held locks.
func (lt *lockTable) count() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return len(lt.held)
}
