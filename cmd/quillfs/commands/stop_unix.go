//go:build !windows

package commands

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// stopProcess asks a QuillFS server process to shut down. Graceful stop
// is SIGTERM so the server can flush state; --force escalates to SIGKILL.
func stopProcess(process *os.Process, pid int, force bool) error {
	sig := unix.SIGTERM
	if force {
		sig = unix.SIGKILL
	}

	fmt.Printf("Sending %s to process %d...\n", unix.SignalName(sig), pid)

	switch err := process.Signal(sig); err {
	case nil:
		return nil
	case os.ErrProcessDone:
		return errProcessDone
	default:
		return fmt.Errorf("failed to send signal: %w", err)
	}
}
