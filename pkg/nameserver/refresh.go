package nameserver

import (
	"fmt"
	"time"

	"github.com/quillfs/quillfs/internal/logger"
	"github.com/quillfs/quillfs/pkg/wire"
)

// refreshUser is the identity on the listing the name server requests
// during an index refresh. Storage servers trust forwarded envelopes, and
// the -a listing is not gated per file, so any name passes; this one
// makes the refresh recognizable in storage logs.
const refreshUser = "nameserver"

// A freshly registered storage server starts listening only after the
// registration reply reaches it, so the first refresh dials may be
// refused.
const (
	refreshAttempts = 20
	refreshDelay    = 150 * time.Millisecond
)

// RefreshIndex mirrors the files held by srv into the index: one VIEW -al
// for the listing, then one INFO per listed file. The INFO envelope
// carries the file's owner (from the listing's owner column) as its
// identity, which always passes the storage-side read gate. Files whose
// INFO fails are skipped and picked up on the server's next registration.
func (s *State) RefreshIndex(srv ServerEntry, timeout time.Duration) error {
	listing, err := forwardWithRetry(srv, wire.Envelope{User: refreshUser, Cmd: "VIEW -al"}, timeout)
	if err != nil {
		return fmt.Errorf("failed to list files on storage server %d: %w", srv.ID, err)
	}

	rows := wire.ParseViewLongRows(listing)
	merged := 0
	for _, row := range rows {
		reply, err := forwardCommand(srv, wire.Envelope{User: row.Owner, Cmd: "INFO " + row.Name}, timeout)
		if err != nil {
			logger.Warn("index refresh: INFO failed", "server_id", srv.ID, "file", row.Name, "error", err)
			continue
		}
		fi, err := wire.ParseFileInfo(reply)
		if err != nil {
			logger.Warn("index refresh: unparseable INFO", "server_id", srv.ID, "file", row.Name, "error", err)
			continue
		}
		s.MergeFileInfo(fi, srv.ID)
		merged++
	}

	logger.Info("index refreshed from storage server", "server_id", srv.ID, "files", merged)
	return nil
}

func forwardWithRetry(srv ServerEntry, env wire.Envelope, timeout time.Duration) (string, error) {
	var lastErr error
	for attempt := 0; attempt < refreshAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(refreshDelay)
		}
		reply, err := forwardCommand(srv, env, timeout)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}
	return "", lastErr
}
