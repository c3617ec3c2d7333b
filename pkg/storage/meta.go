package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quillfs/quillfs/pkg/wire"
)

// Metadata is the per-file ACL sidecar, persisted as meta/<name>.meta:
//
//	OWNER:<user>
//	CREATED:<unix>
//	LAST_ACCESS:<unix>
//	READ_USERS:<csv>
//	WRITE_USERS:<csv>
//
// Last-modified is not persisted; it is derived from the content file's
// mtime. Access lists serialize as comma-separated names bounded at
// wire.MaxUserListLen bytes.
type Metadata struct {
	Owner      string
	Created    time.Time
	Accessed   time.Time
	ReadUsers  []string
	WriteUsers []string
}

// newMetadata builds the sidecar for a freshly created file: the owner
// appears in both access lists and both timestamps are now.
func newMetadata(owner string) *Metadata {
	now := time.Now()
	return &Metadata{
		Owner:      owner,
		Created:    now,
		Accessed:   now,
		ReadUsers:  []string{owner},
		WriteUsers: []string{owner},
	}
}

// readMetadata loads the sidecar for name. Returns ErrNotFound when the
// sidecar is missing.
func (s *Store) readMetadata(name string) (*Metadata, error) {
	f, err := os.Open(s.metaPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to open metadata for %s: %w", name, err)
	}
	defer f.Close()

	meta := &Metadata{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case strings.HasPrefix(line, "OWNER:"):
			meta.Owner = strings.TrimPrefix(line, "OWNER:")
		case strings.HasPrefix(line, "CREATED:"):
			meta.Created = parseUnixLine(strings.TrimPrefix(line, "CREATED:"))
		case strings.HasPrefix(line, "LAST_ACCESS:"):
			meta.Accessed = parseUnixLine(strings.TrimPrefix(line, "LAST_ACCESS:"))
		case strings.HasPrefix(line, "READ_USERS:"):
			meta.ReadUsers = splitUserList(strings.TrimPrefix(line, "READ_USERS:"))
		case strings.HasPrefix(line, "WRITE_USERS:"):
			meta.WriteUsers = splitUserList(strings.TrimPrefix(line, "WRITE_USERS:"))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read metadata for %s: %w", name, err)
	}
	return meta, nil
}

// writeMetadata rewrites the sidecar for name.
func (s *Store) writeMetadata(name string, meta *Metadata) error {
	var b strings.Builder
	fmt.Fprintf(&b, "OWNER:%s\n", meta.Owner)
	fmt.Fprintf(&b, "CREATED:%d\n", meta.Created.Unix())
	fmt.Fprintf(&b, "LAST_ACCESS:%d\n", meta.Accessed.Unix())
	fmt.Fprintf(&b, "READ_USERS:%s\n", joinUserList(meta.ReadUsers))
	fmt.Fprintf(&b, "WRITE_USERS:%s\n", joinUserList(meta.WriteUsers))

	if err := os.WriteFile(s.metaPath(name), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write metadata for %s: %w", name, err)
	}
	return nil
}

// touchAccess updates LAST_ACCESS to now, best effort. READ and STREAM
// call it; a missing sidecar is not an error here.
func (s *Store) touchAccess(name string) {
	meta, err := s.readMetadata(name)
	if err != nil {
		return
	}
	meta.Accessed = time.Now()
	_ = s.writeMetadata(name, meta)
}

func parseUnixLine(v string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

func splitUserList(csv string) []string {
	var users []string
	for _, u := range strings.Split(csv, ",") {
		u = strings.TrimSpace(u)
		if u != "" {
			users = append(users, u)
		}
	}
	return users
}

// joinUserList serializes an access list, dropping trailing names that
// would push the csv past the wire bound rather than truncating one
// mid-name.
func joinUserList(users []string) string {
	var b strings.Builder
	for _, u := range users {
		sep := 0
		if b.Len() > 0 {
			sep = 1
		}
		if b.Len()+sep+len(u) > wire.MaxUserListLen {
			break
		}
		if sep == 1 {
			b.WriteString(",")
		}
		b.WriteString(u)
	}
	return b.String()
}
