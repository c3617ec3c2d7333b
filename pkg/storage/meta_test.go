package storage

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfs/quillfs/pkg/wire"
)

// ============================================================================
// Sidecar Persistence Tests
// ============================================================================

func TestMetadataRoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	in := &Metadata{
		Owner:      "alice",
		Created:    time.Unix(1700000000, 0),
		Accessed:   time.Unix(1700000100, 0),
		ReadUsers:  []string{"alice", "bob"},
		WriteUsers: []string{"alice"},
	}
	require.NoError(t, s.writeMetadata("doc.txt", in))

	out, err := s.readMetadata("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, in.Owner, out.Owner)
	assert.True(t, in.Created.Equal(out.Created))
	assert.True(t, in.Accessed.Equal(out.Accessed))
	assert.Equal(t, in.ReadUsers, out.ReadUsers)
	assert.Equal(t, in.WriteUsers, out.WriteUsers)
}

func TestMetadataSidecarFormat(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	meta := &Metadata{
		Owner:      "alice",
		Created:    time.Unix(1700000000, 0),
		Accessed:   time.Unix(1700000100, 0),
		ReadUsers:  []string{"alice", "bob"},
		WriteUsers: []string{"alice"},
	}
	require.NoError(t, s.writeMetadata("doc.txt", meta))

	raw, err := os.ReadFile(s.metaPath("doc.txt"))
	require.NoError(t, err)

	want := "OWNER:alice\n" +
		"CREATED:1700000000\n" +
		"LAST_ACCESS:1700000100\n" +
		"READ_USERS:alice,bob\n" +
		"WRITE_USERS:alice\n"
	assert.Equal(t, want, string(raw))
}

func TestReadMetadataMissingSidecar(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.readMetadata("ghost.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJoinUserListBounded(t *testing.T) {
	t.Parallel()

	// Names that would overflow the serialized bound are dropped whole,
	// never truncated mid-name.
	var users []string
	for i := 0; i < 100; i++ {
		users = append(users, fmt.Sprintf("user%02d_%s", i, strings.Repeat("x", 20)))
	}

	csv := joinUserList(users)
	assert.LessOrEqual(t, len(csv), wire.MaxUserListLen)
	for _, u := range splitUserList(csv) {
		assert.Contains(t, users, u)
	}
	assert.NotContains(t, csv, ",,")
	assert.False(t, strings.HasSuffix(csv, ","))
}

// ============================================================================
// Access Check Tests
// ============================================================================

func TestCheckReadAndWrite(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "content.")
	_, err := s.AddRead("doc.txt", "bob")
	require.NoError(t, err)

	tests := []struct {
		name      string
		user      string
		wantRead  bool
		wantWrite bool
	}{
		{"owner has both", "alice", true, true},
		{"granted reader only reads", "bob", true, false},
		{"stranger has neither", "mallory", false, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.wantRead {
				assert.NoError(t, s.CheckRead("doc.txt", tt.user))
			} else {
				assert.ErrorIs(t, s.CheckRead("doc.txt", tt.user), ErrNoReadAccess)
			}
			if tt.wantWrite {
				assert.NoError(t, s.CheckWrite("doc.txt", tt.user))
			} else {
				assert.ErrorIs(t, s.CheckWrite("doc.txt", tt.user), ErrNoWriteAccess)
			}
		})
	}
}

func TestCheckReadMissingSidecarDenies(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	assert.ErrorIs(t, s.CheckRead("nothing.txt", "alice"), ErrNoReadAccess)
	assert.ErrorIs(t, s.CheckWrite("nothing.txt", "alice"), ErrNoWriteAccess)
}

// ============================================================================
// Access Mutation Tests
// ============================================================================

func TestAddAccessIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "")

	changed, err := s.AddRead("doc.txt", "bob")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.AddRead("doc.txt", "bob")
	require.NoError(t, err)
	assert.False(t, changed, "second grant should report no change")

	meta, err := s.readMetadata("doc.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, meta.ReadUsers)
}

func TestAddWriteDoesNotGrantRead(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "content.")

	changed, err := s.AddWrite("doc.txt", "bob")
	require.NoError(t, err)
	assert.True(t, changed)

	assert.NoError(t, s.CheckWrite("doc.txt", "bob"))
	assert.ErrorIs(t, s.CheckRead("doc.txt", "bob"), ErrNoReadAccess)
}

func TestRemoveAccessDropsBothLists(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "")
	_, err := s.AddRead("doc.txt", "bob")
	require.NoError(t, err)
	_, err = s.AddWrite("doc.txt", "bob")
	require.NoError(t, err)

	require.NoError(t, s.RemoveAccess("doc.txt", "bob"))

	assert.ErrorIs(t, s.CheckRead("doc.txt", "bob"), ErrNoReadAccess)
	assert.ErrorIs(t, s.CheckWrite("doc.txt", "bob"), ErrNoWriteAccess)
}

func TestRemoveAccessRejectsOwner(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "")

	err := s.RemoveAccess("doc.txt", "alice")
	require.Error(t, err)

	// Owner membership is untouched.
	assert.NoError(t, s.CheckRead("doc.txt", "alice"))
	assert.NoError(t, s.CheckWrite("doc.txt", "alice"))
}

func TestOwnerAlwaysInBothListsOnCreate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	seedFile(t, s, "doc.txt", "alice", "")

	meta, err := s.readMetadata("doc.txt")
	require.NoError(t, err)
	assert.Contains(t, meta.ReadUsers, "alice")
	assert.Contains(t, meta.WriteUsers, "alice")
}
