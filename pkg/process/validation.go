package process

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// ValidateExecutionConfig validates execution configuration
func ValidateExecutionConfig(config ExecutionConfig) error {
	if config.ExecutablePath == "" {
		return errors.NewValidationError("executable path is required", nil)
	}

	info, err := os.Stat(config.ExecutablePath)
	if err != nil {
		return errors.NewValidationError("executable not found: "+config.ExecutablePath, err)
	}
	if info.IsDir() {
		return errors.NewValidationError("executable path is a directory: "+config.ExecutablePath, nil)
	}

	if config.WorkingDirectory != "" {
		if !filepath.IsAbs(config.WorkingDirectory) {
			return errors.NewValidationError("working directory must be absolute path", nil)
		}

		if info, err := os.Stat(config.WorkingDirectory); err != nil {
			return errors.NewValidationError("working directory not accessible: "+config.WorkingDirectory, err)
		} else if !info.IsDir() {
			return errors.NewValidationError("working directory is not a directory: "+config.WorkingDirectory, nil)
		}
	}

	if err := ValidateEnvironment(config.Environment); err != nil {
		return err
	}

	if config.WaitDelay < 0 {
		return errors.NewValidationError("wait delay cannot be negative", nil)
	}

	return nil
}

// ValidateEnvironment checks that every entry has the NAME=VALUE form
func ValidateEnvironment(environment []string) error {
	for _, env := range environment {
		if name, _, ok := strings.Cut(env, "="); !ok || name == "" {
			return errors.NewValidationError("invalid environment variable format: "+env, nil)
		}
	}
	return nil
}
