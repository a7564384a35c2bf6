package config

import (
	"fmt"
	"os"
	"time"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
	"github.com/core-tools/hsu-ros-launch/pkg/logging"
	"github.com/core-tools/hsu-ros-launch/pkg/process"

	"gopkg.in/yaml.v3"
)

// LogFormat selects the logging backend
type LogFormat string

const (
	LogFormatText    LogFormat = "text"    // hsu-core sprintf logger
	LogFormatJSON    LogFormat = "json"    // zap, JSON encoder
	LogFormatConsole LogFormat = "console" // zap, console encoder
)

// LaunchConfig represents the top-level configuration file structure
type LaunchConfig struct {
	Launcher    LauncherOptions   `yaml:"launcher"`
	Arguments   map[string]string `yaml:"arguments,omitempty"`
	Environment []string          `yaml:"environment,omitempty"`
}

// LauncherOptions represents launcher-level configuration
type LauncherOptions struct {
	LogLevel     string        `yaml:"log_level,omitempty"`
	LogFormat    LogFormat     `yaml:"log_format,omitempty"`
	WaitDelay    time.Duration `yaml:"wait_delay,omitempty"`
	PIDDirectory string        `yaml:"pid_directory,omitempty"`
}

// DefaultConfig is used when no configuration file is given
func DefaultConfig() *LaunchConfig {
	config := &LaunchConfig{}
	setConfigDefaults(config)
	return config
}

// LoadConfigFromFile loads launcher configuration from a YAML file
func LoadConfigFromFile(filename string) (*LaunchConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	var config LaunchConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	setConfigDefaults(&config)
	return &config, nil
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *LaunchConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	collection := errors.NewErrorCollection()

	if _, err := logging.ParseLevel(config.Launcher.LogLevel); err != nil {
		collection.Add(errors.NewValidationError("invalid log level", err).WithContext("log_level", config.Launcher.LogLevel))
	}

	switch config.Launcher.LogFormat {
	case LogFormatText, LogFormatJSON, LogFormatConsole:
	default:
		collection.Add(errors.NewValidationError(
			fmt.Sprintf("unsupported log format: %s", config.Launcher.LogFormat), nil,
		).WithContext("supported_formats", "text, json, console"))
	}

	if config.Launcher.WaitDelay < 0 {
		collection.Add(errors.NewValidationError("wait delay cannot be negative", nil))
	}

	for name := range config.Arguments {
		if name == "" {
			collection.Add(errors.NewValidationError("argument name cannot be empty", nil))
		}
	}

	if err := process.ValidateEnvironment(config.Environment); err != nil {
		collection.Add(err)
	}

	if collection.HasErrors() {
		return errors.NewValidationError("invalid launcher configuration", collection.ToError())
	}
	return nil
}

func setConfigDefaults(config *LaunchConfig) {
	if config.Launcher.LogLevel == "" {
		config.Launcher.LogLevel = "info"
	}
	if config.Launcher.LogFormat == "" {
		config.Launcher.LogFormat = LogFormatText
	}
	if config.Launcher.WaitDelay == 0 {
		config.Launcher.WaitDelay = process.DefaultWaitDelay
	}
	if config.Arguments == nil {
		config.Arguments = make(map[string]string)
	}
}
