package nameserver

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillfs/quillfs/pkg/wire"
)

// ============================================================================
// Audit Format Tests
// ============================================================================

func TestAuditWritesTimestampedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nameserver.log")
	audit := NewAudit(path, AuditConfig{})
	audit.Infof("User '%s' issued: %s", "alice", "VIEW")
	audit.Warnf("Authentication failed for user '%s'", "mallory")
	require.NoError(t, audit.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	format := regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[(INFO|WARN)\] .+$`)
	for _, line := range lines {
		assert.Regexp(t, format, line)
	}
	assert.Contains(t, lines[0], "[INFO] User 'alice' issued: VIEW")
	assert.Contains(t, lines[1], "[WARN] Authentication failed for user 'mallory'")
}

func TestNilAuditDiscards(t *testing.T) {
	t.Parallel()

	var audit *Audit
	audit.Infof("dropped %d", 1)
	audit.Warnf("dropped")
	audit.Errorf("dropped")
	assert.NoError(t, audit.Close())
}

// ============================================================================
// Audit Trail Tests
// ============================================================================

func TestRouterWritesAuditTrail(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nameserver.log")
	audit := NewAudit(path, AuditConfig{})
	t.Cleanup(func() { _ = audit.Close() })

	_, addr, _ := startNameServer(t, RouterConfig{}, audit)
	startStorageServer(t, addr, 1)

	sendRaw(t, addr, wire.AuthRequest{User: "alice", Pass: "secret"}.Encode())
	sendRaw(t, addr, wire.AuthRequest{User: "mallory", Pass: "nope"}.Encode())
	sendCommand(t, addr, "alice", "CREATE doc.txt")
	sendCommand(t, addr, "alice", "ADDACCESS -R doc.txt bob")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	trail := string(data)

	assert.Contains(t, trail, "Storage server 1 registered")
	assert.Contains(t, trail, "Authentication succeeded for user 'alice'")
	assert.Contains(t, trail, "Authentication failed for user 'mallory'")
	assert.Contains(t, trail, "User 'alice' issued: CREATE doc.txt")
	assert.Contains(t, trail, "granted read access to 'bob' on 'doc.txt'")
}
