//go:build !windows

package processstate

import (
	stdErrors "errors"
	"os"
	"syscall"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// IsProcessRunning probes the PID with signal 0
func IsProcessRunning(pid int) (bool, error) {
	if pid <= 0 {
		return false, errors.NewValidationError("invalid PID", nil).WithContext("pid", pid)
	}

	// FindProcess always succeeds on Unix
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, errors.NewProcessError("failed to find process", err).WithContext("pid", pid)
	}

	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true, nil
	case stdErrors.Is(err, os.ErrProcessDone), stdErrors.Is(err, syscall.ESRCH):
		return false, nil
	case stdErrors.Is(err, syscall.EPERM):
		// exists, owned by someone else
		return true, nil
	}
	return false, errors.NewProcessError("failed to probe process", err).WithContext("pid", pid)
}
