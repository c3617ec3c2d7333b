package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quillfs/quillfs/pkg/wire"
)

// checkpointMeta is the sidecar persisted next to each .ckpt file. It
// carries the original (unsanitized) name and tag so listings can
// disambiguate colliding sanitized paths.
type checkpointMeta struct {
	Filename  string
	Tag       string
	Timestamp time.Time
	CreatedBy string
}

// sanitizePart replaces path separators so a tag can never escape the
// checkpoints directory.
func sanitizePart(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	return strings.ReplaceAll(s, "\\", "_")
}

func (s *Store) checkpointPath(name, tag string) string {
	return filepath.Join(s.checkpointDir(), sanitizePart(name)+"_"+sanitizePart(tag)+".ckpt")
}

func (s *Store) writeCheckpointMeta(path string, meta checkpointMeta) error {
	var b strings.Builder
	fmt.Fprintf(&b, "filename=%s\n", meta.Filename)
	fmt.Fprintf(&b, "tag=%s\n", meta.Tag)
	fmt.Fprintf(&b, "timestamp=%d\n", meta.Timestamp.Unix())
	fmt.Fprintf(&b, "created_by=%s\n", meta.CreatedBy)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint metadata: %w", err)
	}
	return nil
}

func readCheckpointMeta(path string) (checkpointMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return checkpointMeta{}, err
	}
	defer f.Close()

	var meta checkpointMeta
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		switch key {
		case "filename":
			meta.Filename = value
		case "tag":
			meta.Tag = value
		case "timestamp":
			if sec, err := strconv.ParseInt(value, 10, 64); err == nil {
				meta.Timestamp = time.Unix(sec, 0)
			}
		case "created_by":
			meta.CreatedBy = value
		}
	}
	return meta, scanner.Err()
}

// CheckpointCreate snapshots the current content of name under tag.
// Requires read access; an existing tag for the same file is rejected.
func (s *Store) CheckpointCreate(name, tag, user string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.CheckRead(name, user); err != nil {
		return err
	}
	if _, err := os.Stat(s.filePath(name)); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	ckpt := s.checkpointPath(name, tag)
	if _, err := os.Stat(ckpt); err == nil {
		return fmt.Errorf("%w: %s for %s", ErrCheckpointExists, tag, name)
	}

	if err := copyFile(s.filePath(name), ckpt); err != nil {
		return fmt.Errorf("failed to create checkpoint %s for %s: %w", tag, name, err)
	}
	meta := checkpointMeta{
		Filename:  name,
		Tag:       tag,
		Timestamp: time.Now(),
		CreatedBy: user,
	}
	if err := s.writeCheckpointMeta(ckpt+".meta", meta); err != nil {
		os.Remove(ckpt)
		return fmt.Errorf("failed to create checkpoint %s for %s: %w", tag, name, err)
	}

	if s.metrics != nil {
		s.metrics.RecordCheckpoint("create")
	}
	return nil
}

// CheckpointView returns the raw content stored under tag. Requires read
// access. The connection layer frames the content with the checkpoint
// header and footer lines.
func (s *Store) CheckpointView(name, tag, user string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := s.CheckRead(name, user); err != nil {
		return "", err
	}

	data, err := os.ReadFile(s.checkpointPath(name, tag))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s for %s", ErrCheckpointNotFound, tag, name)
		}
		return "", fmt.Errorf("failed to read checkpoint %s for %s: %w", tag, name, err)
	}

	if s.metrics != nil {
		s.metrics.RecordCheckpoint("view")
	}
	return string(data), nil
}

// CheckpointRevert replaces the current content of name with the
// checkpoint stored under tag. Requires write access. The current content
// is staged to files/<name>.backup first; if the restore fails midway the
// backup is copied back, so the file never stays truncated.
func (s *Store) CheckpointRevert(name, tag, user string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.CheckWrite(name, user); err != nil {
		return err
	}

	ckpt := s.checkpointPath(name, tag)
	if _, err := os.Stat(ckpt); err != nil {
		return fmt.Errorf("%w: %s for %s", ErrCheckpointNotFound, tag, name)
	}

	current := s.filePath(name)
	if _, err := os.Stat(current); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	// The commit rewrite must not interleave with the restore.
	mu := s.writeMu.get(name)
	mu.Lock()
	defer mu.Unlock()

	backup := current + ".backup"
	if err := copyFile(current, backup); err != nil {
		return fmt.Errorf("failed to stage revert backup for %s: %w", name, err)
	}
	if err := copyFile(ckpt, current); err != nil {
		if rbErr := copyFile(backup, current); rbErr == nil {
			os.Remove(backup)
		}
		return fmt.Errorf("failed to restore checkpoint %s for %s: %w", tag, name, err)
	}
	os.Remove(backup)

	if s.metrics != nil {
		s.metrics.RecordCheckpoint("revert")
	}
	return nil
}

// CheckpointList renders the checkpoint table for name. Requires read
// access. Rows are sorted by tag; checkpoints whose metadata sidecar is
// missing fall back to the tag embedded in the path.
func (s *Store) CheckpointList(name, user string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := s.CheckRead(name, user); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(s.checkpointDir())
	if err != nil {
		return "", fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	prefix := sanitizePart(name) + "_"
	type row struct {
		tag       string
		timestamp time.Time
		size      int64
		createdBy string
	}
	var rows []row
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) || !strings.HasSuffix(entry.Name(), ".ckpt") {
			continue
		}
		path := filepath.Join(s.checkpointDir(), entry.Name())

		r := row{createdBy: "unknown"}
		if meta, err := readCheckpointMeta(path + ".meta"); err == nil {
			// Sanitized paths can collide across files; the sidecar
			// records which file the checkpoint belongs to.
			if meta.Filename != name {
				continue
			}
			r.tag = meta.Tag
			r.timestamp = meta.Timestamp
			r.createdBy = meta.CreatedBy
		} else {
			r.tag = strings.TrimSuffix(strings.TrimPrefix(entry.Name(), prefix), ".ckpt")
		}
		if info, err := entry.Info(); err == nil {
			r.size = info.Size()
		}
		rows = append(rows, r)
	}

	if s.metrics != nil {
		s.metrics.RecordCheckpoint("list")
	}

	if len(rows) == 0 {
		return wire.ReplyNoCheckpoints, nil
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].tag < rows[j].tag })

	var b strings.Builder
	b.WriteString(wire.CheckpointListHeader(name))
	for _, r := range rows {
		b.WriteString(wire.CheckpointListRow(r.tag, r.timestamp, r.size, r.createdBy))
	}
	b.WriteString(wire.CheckpointListFooter(len(rows)))
	return b.String(), nil
}
