package processfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
	"github.com/core-tools/hsu-ros-launch/pkg/logging"
	"github.com/core-tools/hsu-ros-launch/pkg/processstate"
)

// DefaultAppName names the subdirectory PID files are grouped in
const DefaultAppName = "hsu-ros-launch"

// ProcessFileConfig holds configuration for PID file generation
type ProcessFileConfig struct {
	// Base directory for PID files. If empty, DefaultBaseDirectory is used
	BaseDirectory string

	// Application name for subdirectory creation
	AppName string

	// Namespace of the launched nodes, keeps PID files of different robots apart
	Namespace string
}

// ProcessFileManager writes and removes PID files of launched nodes
type ProcessFileManager struct {
	config ProcessFileConfig
	logger logging.Logger
}

// DefaultBaseDirectory prefers the per-user runtime directory and falls back to the temp directory
func DefaultBaseDirectory(runtimeDir string) string {
	if runtimeDir != "" {
		return runtimeDir
	}
	return os.TempDir()
}

func NewProcessFileManager(config ProcessFileConfig, logger logging.Logger) *ProcessFileManager {
	if config.AppName == "" {
		config.AppName = DefaultAppName
	}
	if config.BaseDirectory == "" {
		config.BaseDirectory = DefaultBaseDirectory("")
	}
	return &ProcessFileManager{
		config: config,
		logger: logger,
	}
}

// GeneratePIDFilePath returns <base>/<app>[/<namespace>]/<node>.pid
func (m *ProcessFileManager) GeneratePIDFilePath(nodeID string) string {
	dir := filepath.Join(m.config.BaseDirectory, m.config.AppName)
	if ns := strings.Trim(m.config.Namespace, "/"); ns != "" {
		dir = filepath.Join(dir, filepath.FromSlash(ns))
	}
	return filepath.Join(dir, nodeID+".pid")
}

// WritePIDFile writes the process PID to the PID file of the given node
func (m *ProcessFileManager) WritePIDFile(nodeID string, pid int) (string, error) {
	pidFilePath := m.GeneratePIDFilePath(nodeID)
	m.logger.Debugf("Writing PID file, node: %s, pid: %d, path: %s", nodeID, pid, pidFilePath)

	if err := ValidatePIDFileDirectory(pidFilePath); err != nil {
		m.logger.Errorf("PID file directory validation failed, node: %s, path: %s, error: %v", nodeID, pidFilePath, err)
		return "", errors.NewIOError("PID file directory validation failed", err).WithContext("pid_file", pidFilePath)
	}

	pidContent := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(pidFilePath, []byte(pidContent), 0644); err != nil {
		m.logger.Errorf("Failed to write PID file, node: %s, pid: %d, path: %s, error: %v", nodeID, pid, pidFilePath, err)
		return "", errors.NewIOError("failed to write PID file", err).WithContext("pid_file", pidFilePath).WithContext("pid", pid)
	}

	m.logger.Infof("PID file written, node: %s, pid: %d, path: %s", nodeID, pid, pidFilePath)
	return pidFilePath, nil
}

// ReadPIDFile reads the PID recorded for the given node
func (m *ProcessFileManager) ReadPIDFile(nodeID string) (int, error) {
	pidFilePath := m.GeneratePIDFilePath(nodeID)

	content, err := os.ReadFile(pidFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.NewNotFoundError("PID file not found", err).WithContext("pid_file", pidFilePath)
		}
		return 0, errors.NewIOError("failed to read PID file", err).WithContext("pid_file", pidFilePath)
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, errors.NewValidationError("invalid PID in file: "+pidStr, err).WithContext("pid_file", pidFilePath)
	}
	return pid, nil
}

// RemovePIDFile deletes the PID file of the given node; a missing file is not an error
func (m *ProcessFileManager) RemovePIDFile(nodeID string) error {
	pidFilePath := m.GeneratePIDFilePath(nodeID)
	if err := os.Remove(pidFilePath); err != nil && !os.IsNotExist(err) {
		m.logger.Warnf("Failed to remove PID file, node: %s, path: %s, error: %v", nodeID, pidFilePath, err)
		return errors.NewIOError("failed to remove PID file", err).WithContext("pid_file", pidFilePath)
	}
	m.logger.Debugf("PID file removed, node: %s, path: %s", nodeID, pidFilePath)
	return nil
}

// EnsureNotRunning fails if the node's PID file points at a live process.
// Stale or unreadable PID files are removed.
func (m *ProcessFileManager) EnsureNotRunning(nodeID string) error {
	pid, err := m.ReadPIDFile(nodeID)
	switch {
	case err == nil:
	case errors.IsNotFoundError(err):
		return nil
	case errors.IsValidationError(err):
		m.logger.Warnf("Removing unreadable PID file, node: %s, error: %v", nodeID, err)
		return m.RemovePIDFile(nodeID)
	default:
		return err
	}

	running, err := isProcessRunning(pid)
	if err != nil {
		return err
	}
	if running {
		return errors.NewProcessError("node is already running", nil).
			WithContext("node", nodeID).
			WithContext("pid", pid).
			WithContext("pid_file", m.GeneratePIDFilePath(nodeID))
	}

	m.logger.Warnf("Removing stale PID file, node: %s, pid: %d", nodeID, pid)
	return m.RemovePIDFile(nodeID)
}

var isProcessRunning = processstate.IsProcessRunning

// ValidatePIDFileDirectory makes sure the parent directory exists and is writable
func ValidatePIDFileDirectory(pidFilePath string) error {
	dir := filepath.Dir(pidFilePath)

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.NewIOError("failed to create PID file directory", err).WithContext("directory", dir)
			}
		} else {
			return errors.NewIOError("failed to access PID file directory", err).WithContext("directory", dir)
		}
	} else if !info.IsDir() {
		return errors.NewValidationError("PID file path is not a directory", nil).WithContext("path", dir)
	}

	testFile := filepath.Join(dir, ".write_test")
	if file, err := os.Create(testFile); err != nil {
		return errors.NewPermissionError("PID file directory is not writable", err).WithContext("directory", dir)
	} else {
		file.Close()
		os.Remove(testFile)
	}

	return nil
}
