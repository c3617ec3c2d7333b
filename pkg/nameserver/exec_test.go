package nameserver

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfs/quillfs/pkg/wire"
)

// ============================================================================
// Exec Routing Tests
// ============================================================================

func TestExecDisabledByDefault(t *testing.T) {
	t.Parallel()

	_, addr, _ := startNameServer(t, RouterConfig{}, nil)
	startStorageServer(t, addr, 1)

	assert.Equal(t, wire.ReplyExecDisabled, sendCommand(t, addr, "alice", "EXEC run.txt"))
}

func TestExecRunsFileLines(t *testing.T) {
	t.Parallel()

	_, addr, _ := startNameServer(t, RouterConfig{ExecEnabled: true}, nil)
	store, _ := startStorageServer(t, addr, 1)

	require.Equal(t, wire.ReplyCreated("run.txt"), sendCommand(t, addr, "alice", "CREATE run.txt"))
	seedContent(t, store, "run.txt", "echo first\n```\nfalse\n  echo indented\n\necho last\n")

	// Fence lines and blank lines are skipped, indentation is stripped,
	// and a failing command does not stop the run.
	out := sendCommand(t, addr, "alice", "EXEC run.txt")
	assert.Equal(t, "first\nindented\nlast\n", out)
}

func TestExecRejectsUnreadableFile(t *testing.T) {
	t.Parallel()

	_, addr, _ := startNameServer(t, RouterConfig{ExecEnabled: true}, nil)
	startStorageServer(t, addr, 1)

	assert.Equal(t, wire.ReplyExecReadFailed("ghost.txt"), sendCommand(t, addr, "alice", "EXEC ghost.txt"))

	require.Equal(t, wire.ReplyCreated("empty.txt"), sendCommand(t, addr, "alice", "CREATE empty.txt"))
	assert.Equal(t, wire.ReplyExecReadFailed("empty.txt"), sendCommand(t, addr, "alice", "EXEC empty.txt"))

	assert.Equal(t, wire.ReplySpecifyFilename, sendCommand(t, addr, "alice", "EXEC"))
}

func TestExecWithoutServers(t *testing.T) {
	t.Parallel()

	_, addr, _ := startNameServer(t, RouterConfig{ExecEnabled: true}, nil)
	assert.Equal(t, wire.ReplyNoStorageServer, sendCommand(t, addr, "alice", "EXEC run.txt"))
}

// ============================================================================
// Exec Helper Tests
// ============================================================================

func TestReadSucceeded(t *testing.T) {
	t.Parallel()

	assert.True(t, readSucceeded("echo hi\n"))
	assert.False(t, readSucceeded(""))
	assert.False(t, readSucceeded("   \n"))
	assert.False(t, readSucceeded(wire.ReplyNoReadPermission("f.txt")))
	assert.False(t, readSucceeded(wire.ReplyEmptyFile("f.txt")))
	assert.False(t, readSucceeded(wire.ReplyExecFailed("x")))
}

func TestExecLineStreamsStdout(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	require.NoError(t, execLine(context.Background(), "echo hello", &b))
	assert.Equal(t, "hello\n", b.String())

	// A non-zero exit is not an error and produces no output.
	b.Reset()
	require.NoError(t, execLine(context.Background(), "exit 3", &b))
	assert.Empty(t, b.String())
}
