package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a store rooted in a fresh temp directory with a
// fast stream delay.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), 1, nil)
	require.NoError(t, err)
	s.StreamDelay = time.Millisecond
	return s
}

// seedFile creates name owned by owner and fills it with content.
func seedFile(t *testing.T, s *Store, name, owner, content string) {
	t.Helper()
	require.NoError(t, s.Create(name, owner))
	if content != "" {
		require.NoError(t, os.WriteFile(s.filePath(name), []byte(content), 0o644))
	}
}

// readFileContent returns the current content of name.
func readFileContent(t *testing.T, s *Store, name string) string {
	t.Helper()
	data, err := os.ReadFile(s.filePath(name))
	require.NoError(t, err)
	return string(data)
}

// ============================================================================
// Store Setup Tests
// ============================================================================

func TestNewStoreCreatesLayout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := NewStore(root, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, s.ID())
	assert.Equal(t, filepath.Join(root, "storage3"), s.BaseDir())

	for _, dir := range []string{"files", "meta", "undo", "swap", "checkpoints"} {
		info, err := os.Stat(filepath.Join(root, "storage3", dir))
		require.NoError(t, err, "directory %s should exist", dir)
		assert.True(t, info.IsDir())
	}
}

func TestNewStoreReopensExistingTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s1, err := NewStore(root, 1, nil)
	require.NoError(t, err)
	seedFile(t, s1, "keep.txt", "alice", "still here.")

	s2, err := NewStore(root, 1, nil)
	require.NoError(t, err)
	content, err := s2.Read("keep.txt", "alice")
	require.NoError(t, err)
	assert.Equal(t, "still here.", content)
}

func TestCheckNameRejectsTraversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		valid bool
	}{
		{"notes.txt", true},
		{"with-dash_and_underscore", true},
		{"", false},
		{"..", false},
		{"../escape", false},
		{"dir/file", false},
		{"dir\\file", false},
	}

	for _, tt := range tests {
		err := checkName(tt.name)
		if tt.valid {
			assert.NoError(t, err, "name %q", tt.name)
		} else {
			assert.ErrorIs(t, err, ErrInvalidName, "name %q", tt.name)
		}
	}
}

func TestCopyFileTruncatesDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	require.NoError(t, os.WriteFile(src, []byte("short"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("much longer content"), 0o644))

	require.NoError(t, copyFile(src, dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestMutexMapReturnsSameMutexPerName(t *testing.T) {
	t.Parallel()

	mm := newMutexMap()
	a := mm.get("file.txt")
	b := mm.get("file.txt")
	c := mm.get("other.txt")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestDiskUsageReportsCapacity(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	usage, err := s.DiskUsage()
	require.NoError(t, err)

	assert.Greater(t, usage.TotalBytes, uint64(0))
	assert.LessOrEqual(t, usage.UsedBytes, usage.TotalBytes)
}
