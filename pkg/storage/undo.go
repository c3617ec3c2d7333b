package storage

import (
	"errors"
	"fmt"
	"os"
)

// Undo swap failures map to distinct wire lines.
var (
	errUndoStage   = errors.New("failed to create temporary backup")
	errUndoRestore = errors.New("failed to restore from undo backup")
)

// snapshotUndo copies the current content of name to undo/<name>. Each
// write session calls this right after acquiring its sentence lock, so
// UNDO always restores the state before the most recent session.
func (s *Store) snapshotUndo(name string) error {
	return copyFile(s.filePath(name), s.undoPath(name))
}

// Undo swaps the file with its undo backup in three steps: current →
// swap/<name>.tmp, undo/<name> → current, tmp → undo/<name>. Because the
// backup and the file trade places, a second UNDO restores the state the
// first one replaced. Requires write access.
func (s *Store) Undo(name, user string) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := s.CheckWrite(name, user); err != nil {
		return err
	}

	current := s.filePath(name)
	undo := s.undoPath(name)
	tmp := s.swapPath(name)

	if _, err := os.Stat(current); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if _, err := os.Stat(undo); err != nil {
		return fmt.Errorf("%w: %s", ErrNoUndo, name)
	}

	// The commit rewrite must not interleave with the swap.
	mu := s.writeMu.get(name)
	mu.Lock()
	defer mu.Unlock()

	if err := copyFile(current, tmp); err != nil {
		return fmt.Errorf("%w: %s", errUndoStage, err)
	}
	if err := copyFile(undo, current); err != nil {
		return fmt.Errorf("%w: %s", errUndoRestore, err)
	}
	if err := os.Remove(undo); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", errUndoRestore, err)
	}
	if err := os.Rename(tmp, undo); err != nil {
		return fmt.Errorf("%w: %s", errUndoRestore, err)
	}

	if s.metrics != nil {
		s.metrics.RecordUndo()
	}
	return nil
}
