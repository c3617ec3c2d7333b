//go:build windows

package commands

import (
	"fmt"
	"os"
)

// stopProcess terminates a QuillFS server process on Windows. There is no
// SIGTERM equivalent: graceful stop sends os.Interrupt, --force kills.
func stopProcess(process *os.Process, pid int, force bool) error {
	var err error
	if force {
		fmt.Printf("Killing process %d...\n", pid)
		err = process.Kill()
	} else {
		fmt.Printf("Sending interrupt to process %d...\n", pid)
		err = process.Signal(os.Interrupt)
	}

	switch err {
	case nil:
		return nil
	case os.ErrProcessDone:
		return errProcessDone
	default:
		return fmt.Errorf("failed to stop process: %w", err)
	}
}
