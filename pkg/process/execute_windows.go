//go:build windows

package process

import (
	"io"
	"os"
	"os/exec"
	"syscall"
)

func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP,
	}
}

// no pseudo-terminals, output falls back to a pipe
func startWithTTY(cmd *exec.Cmd) (io.ReadCloser, error) {
	return nil, errTTYUnsupported
}

func interruptProcessGroup(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	return p.Kill()
}

func isClosedTTY(err error) bool {
	return false
}
