package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Undo Swap Tests
// ============================================================================

func TestUndoSwapsFileAndBackup(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "version one.")
	require.NoError(t, s.snapshotUndo("doc.txt"))
	require.NoError(t, os.WriteFile(s.filePath("doc.txt"), []byte("version two."), 0o644))

	// First undo restores the snapshot and banks the replaced content.
	require.NoError(t, s.Undo("doc.txt", "alice"))
	assert.Equal(t, "version one.", readFileContent(t, s, "doc.txt"))

	backup, err := os.ReadFile(s.undoPath("doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "version two.", string(backup))

	// A second undo toggles back.
	require.NoError(t, s.Undo("doc.txt", "alice"))
	assert.Equal(t, "version two.", readFileContent(t, s, "doc.txt"))
}

func TestUndoReversesCommittedWriteSession(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "the original.")

	runWriteSession(t, s, "doc.txt", 0, "alice", "0 rewritten,\nETIRW\n")
	require.Equal(t, "rewritten, the original.", readFileContent(t, s, "doc.txt"))

	require.NoError(t, s.Undo("doc.txt", "alice"))
	assert.Equal(t, "the original.", readFileContent(t, s, "doc.txt"))
}

func TestUndoWithoutHistory(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "never written.")

	assert.ErrorIs(t, s.Undo("doc.txt", "alice"), ErrNoUndo)
}

func TestUndoMissingFile(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.ErrorIs(t, s.Undo("ghost.txt", "alice"), ErrNoWriteAccess)

	// Sidecar without content file: write access passes, stat fails.
	seedFile(t, s, "doc.txt", "alice", "x.")
	require.NoError(t, os.Remove(s.filePath("doc.txt")))
	assert.ErrorIs(t, s.Undo("doc.txt", "alice"), ErrNotFound)
}

func TestUndoRequiresWriteAccess(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "private.")
	require.NoError(t, s.snapshotUndo("doc.txt"))

	assert.ErrorIs(t, s.Undo("doc.txt", "bob"), ErrNoWriteAccess)
}

// ============================================================================
// Undo Failure Tests
// ============================================================================

func TestUndoStageFailure(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "current.")
	require.NoError(t, s.snapshotUndo("doc.txt"))

	// A directory squatting on the swap slot makes the staging copy fail
	// before anything is touched.
	require.NoError(t, os.Mkdir(s.swapPath("doc.txt"), 0o755))

	err := s.Undo("doc.txt", "alice")
	assert.ErrorIs(t, err, errUndoStage)
	assert.Equal(t, "current.", readFileContent(t, s, "doc.txt"))
}

func TestUndoRestoreFailure(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "current.")

	// A directory in place of the backup passes the existence check but
	// cannot be copied back.
	require.NoError(t, os.Mkdir(s.undoPath("doc.txt"), 0o755))

	err := s.Undo("doc.txt", "alice")
	assert.ErrorIs(t, err, errUndoRestore)
}
