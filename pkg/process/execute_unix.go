//go:build !windows

package process

import (
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// setupProcessAttributes puts the node into its own process group,
// so that an interrupt reaches every process it spawned
func setupProcessAttributes(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// startWithTTY runs cmd as the leader of a new session attached to a pseudo-terminal.
// Line-buffered, colorized ROS console output depends on it.
func startWithTTY(cmd *exec.Cmd) (io.ReadCloser, error) {
	tty, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}
	return tty, nil
}

// interruptProcessGroup sends SIGINT to the whole group, the signal ROS nodes shut down on
func interruptProcessGroup(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	if err := syscall.Kill(-p.Pid, syscall.SIGINT); err != nil {
		if stderrors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return nil
}

func isClosedTTY(err error) bool {
	return stderrors.Is(err, syscall.EIO)
}
