package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/quillfs/quillfs/pkg/wire"
)

// Read returns the full content of name after a read-access check and
// updates the sidecar's LAST_ACCESS. An empty file returns "" with a nil
// error; the connection layer renders the empty-file line.
func (s *Store) Read(name, user string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := s.CheckRead(name, user); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}

	s.touchAccess(name)
	return string(data), nil
}

// Create makes an empty file owned by user. The check-then-create is a
// single O_EXCL open, so concurrent CREATEs race safely.
func (s *Store) Create(name, user string) error {
	if err := checkName(name); err != nil {
		return err
	}

	f, err := os.OpenFile(s.filePath(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	f.Close()

	return s.writeMetadata(name, newMetadata(user))
}

// Delete removes the file, its sidecar, and its undo backup. Requires
// write access.
func (s *Store) Delete(name, user string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if _, err := os.Stat(s.filePath(name)); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := s.CheckWrite(name, user); err != nil {
		return err
	}

	if err := os.Remove(s.filePath(name)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	_ = os.Remove(s.metaPath(name))
	_ = os.Remove(s.undoPath(name))
	return nil
}

// Stream writes the file's whitespace-separated words to w, each followed
// by a single space, pausing StreamDelay between words, then the stream
// terminator. The context aborts mid-stream on shutdown.
func (s *Store) Stream(ctx context.Context, name, user string, w io.Writer) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.CheckRead(name, user); err != nil {
		return err
	}

	data, err := os.ReadFile(s.filePath(name))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.touchAccess(name)

	var sent uint64
	for _, word := range strings.Fields(string(data)) {
		n, err := io.WriteString(w, word+" ")
		sent += uint64(n)
		if err != nil {
			return fmt.Errorf("stream aborted: %w", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.StreamDelay):
		}
	}

	if s.metrics != nil {
		s.metrics.RecordBytesTransferred(wire.VerbStream, "sent", sent)
	}
	_, err = io.WriteString(w, wire.StreamTerminator)
	return err
}

// Info returns the FILE INFO record for name: sidecar fields plus the
// content file's mtime, with this server's id in the storage set. Requires
// read access.
func (s *Store) Info(name, user string) (wire.FileInfo, error) {
	if err := checkName(name); err != nil {
		return wire.FileInfo{}, err
	}
	if err := s.CheckRead(name, user); err != nil {
		return wire.FileInfo{}, err
	}

	st, err := os.Stat(s.filePath(name))
	if err != nil {
		return wire.FileInfo{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	meta, err := s.readMetadata(name)
	if err != nil {
		return wire.FileInfo{}, err
	}

	return wire.FileInfo{
		Name:       name,
		Owner:      meta.Owner,
		Created:    meta.Created,
		Modified:   st.ModTime(),
		Accessed:   meta.Accessed,
		ReadUsers:  meta.ReadUsers,
		WriteUsers: meta.WriteUsers,
		StorageIDs: []int{s.id},
	}, nil
}

// ListFiles returns the names this server hosts, sorted. When all is
// false only files user can read or write are included.
func (s *Store) ListFiles(user string, all bool) ([]string, error) {
	entries, err := os.ReadDir(s.filePath(""))
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !all && s.CheckRead(name, user) != nil && s.CheckWrite(name, user) != nil {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// ViewListing renders the VIEW response: one name per line by default, or
// the long table with word/char counts, last access time, and owner.
func (s *Store) ViewListing(user string, flags wire.ViewFlags) (string, error) {
	names, err := s.ListFiles(user, flags.All)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if flags.Long {
		b.WriteString(wire.ViewLongHeader)
	}
	for _, name := range names {
		if !flags.Long {
			b.WriteString(name)
			b.WriteString("\n")
			continue
		}

		data, err := os.ReadFile(s.filePath(name))
		if err != nil {
			continue
		}
		accessed := time.Now()
		owner := "unknown"
		if meta, err := s.readMetadata(name); err == nil {
			accessed = meta.Accessed
			owner = meta.Owner
		} else if st, err := os.Stat(s.filePath(name)); err == nil {
			accessed = st.ModTime()
		}
		b.WriteString(wire.FormatViewLongRow(name, len(strings.Fields(string(data))), len(data), accessed, owner))
	}

	if b.Len() == 0 {
		return wire.ReplyNoFilesFound, nil
	}
	return b.String(), nil
}
