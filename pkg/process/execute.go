package process

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
	"github.com/core-tools/hsu-ros-launch/pkg/launch"
	"github.com/core-tools/hsu-ros-launch/pkg/logging"
)

// DefaultWaitDelay is how long a node gets between SIGINT and SIGKILL
const DefaultWaitDelay = 10 * time.Second

type ExecutionConfig struct {
	ExecutablePath   string        `yaml:"executable_path"`
	Args             []string      `yaml:"args,omitempty"`
	Environment      []string      `yaml:"environment,omitempty"`
	WorkingDirectory string        `yaml:"working_directory,omitempty"`
	WaitDelay        time.Duration `yaml:"wait_delay,omitempty"`
	EmulateTTY       bool          `yaml:"emulate_tty,omitempty"`
}

// NewNodeExecution turns a resolved node into an execution config.
// The executable is looked up in the package's lib directory, the same place ros2 run uses.
func NewNodeExecution(node launch.ResolvedNode, packages launch.PackageLocator, environment []string, waitDelay time.Duration) (ExecutionConfig, error) {
	if packages == nil {
		return ExecutionConfig{}, errors.NewValidationError("package locator cannot be nil", nil)
	}
	executable, err := packages.Executable(node.Package, node.Executable)
	if err != nil {
		return ExecutionConfig{}, err
	}
	if waitDelay == 0 {
		waitDelay = DefaultWaitDelay
	}
	return ExecutionConfig{
		ExecutablePath: executable,
		Args:           node.RosArgs(),
		Environment:    append([]string(nil), environment...),
		WaitDelay:      waitDelay,
		EmulateTTY:     node.EmulateTTY,
	}, nil
}

// Started is called once the process is running
type Started func(pid int)

// Run starts the process, forwards its combined output to logger line by line and waits for it.
// Cancelling ctx interrupts the process group and kills it after WaitDelay.
// The exit code is returned together with a process error when it is non-zero.
func Run(ctx context.Context, execution ExecutionConfig, id string, logger logging.Logger, started Started) (int, error) {
	if ctx == nil {
		return -1, errors.NewValidationError("context cannot be nil", nil).WithContext("id", id)
	}

	if err := ValidateExecutionConfig(execution); err != nil {
		logger.Errorf("Execution configuration validation failed, id: %s, error: %v", id, err)
		return -1, errors.NewValidationError("invalid execution configuration", err).WithContext("id", id)
	}

	workDir := execution.WorkingDirectory
	if workDir == "" {
		absPath, err := filepath.Abs(execution.ExecutablePath)
		if err != nil {
			return -1, errors.NewIOError("failed to get absolute path", err).WithContext("id", id).WithContext("executable_path", execution.ExecutablePath)
		}
		workDir = filepath.Dir(absPath)
	}

	cmd := exec.CommandContext(ctx, execution.ExecutablePath, execution.Args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(), execution.Environment...)
	// interrupt first, the kill after WaitDelay is done by exec
	cmd.Cancel = func() error {
		return interruptProcessGroup(cmd.Process)
	}
	cmd.WaitDelay = execution.WaitDelay

	logger.Debugf("Executing process, id: %s, executable path: '%s', args: %v, working directory: '%s', tty: %t",
		id, execution.ExecutablePath, execution.Args, workDir, execution.EmulateTTY)

	output, err := start(cmd, execution.EmulateTTY)
	if err != nil {
		return -1, errors.NewProcessError("failed to start the process", err).WithContext("id", id).WithContext("executable_path", execution.ExecutablePath)
	}
	defer output.Close()

	pid := cmd.Process.Pid
	logger.Infof("Process started, id: %s, PID: %d", id, pid)
	if started != nil {
		started(pid)
	}

	forwardOutput(output, id, logger)

	err = cmd.Wait()
	exitCode := cmd.ProcessState.ExitCode()

	if ctx.Err() != nil {
		logger.Infof("Process stopped on shutdown, id: %s, PID: %d, exit code: %d", id, pid, exitCode)
		return exitCode, errors.NewCancelledError("process was stopped", ctx.Err()).WithContext("id", id).WithContext("exit_code", exitCode)
	}

	var exitErr *exec.ExitError
	if err != nil && !stderrors.As(err, &exitErr) {
		return exitCode, errors.NewProcessError("failed waiting for the process", err).WithContext("id", id)
	}
	if exitCode != 0 {
		logger.Errorf("Process exited with failure, id: %s, PID: %d, exit code: %d", id, pid, exitCode)
		return exitCode, errors.NewProcessError("process exited with non-zero code", err).WithContext("id", id).WithContext("exit_code", exitCode)
	}

	logger.Infof("Process finished, id: %s, PID: %d", id, pid)
	return 0, nil
}

// start launches cmd and returns the stream carrying both stdout and stderr
func start(cmd *exec.Cmd, emulateTTY bool) (io.ReadCloser, error) {
	if emulateTTY {
		if tty, err := startWithTTY(cmd); err != errTTYUnsupported {
			return tty, err
		}
	}

	setupProcessAttributes(cmd)

	reader, writer, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Start(); err != nil {
		reader.Close()
		writer.Close()
		return nil, err
	}
	// the child holds its own copy now
	writer.Close()
	return reader, nil
}

// maxLineLength bounds a forwarded log entry; longer lines are split
const maxLineLength = 1024 * 1024

// forwardOutput reads output until it is closed. It never stops early,
// a node blocked on a full pipe would never exit.
func forwardOutput(output io.Reader, id string, logger logging.Logger) {
	reader := bufio.NewReaderSize(output, 64*1024)
	var line []byte
	for {
		chunk, isPrefix, err := reader.ReadLine()
		if err != nil {
			if len(line) > 0 {
				logger.Infof("[%s] %s", id, trimCarriageReturn(string(line)))
			}
			// a pty master reports EIO once the child side is gone
			if err != io.EOF && !isClosedTTY(err) {
				logger.Warnf("Output stream of process ended with error, id: %s, error: %v", id, err)
			}
			return
		}
		line = append(line, chunk...)
		if isPrefix && len(line) < maxLineLength {
			continue
		}
		logger.Infof("[%s] %s", id, trimCarriageReturn(string(line)))
		line = line[:0]
	}
}

func trimCarriageReturn(line string) string {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

var errTTYUnsupported = stderrors.New("tty emulation is not supported on this platform")
