package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sprintfLogging "github.com/core-tools/hsu-core/pkg/logging/sprintf"

	"github.com/core-tools/hsu-ros-launch/pkg/apriltag"
	"github.com/core-tools/hsu-ros-launch/pkg/config"
	"github.com/core-tools/hsu-ros-launch/pkg/errors"
	"github.com/core-tools/hsu-ros-launch/pkg/launch"
	"github.com/core-tools/hsu-ros-launch/pkg/launcher"
	"github.com/core-tools/hsu-ros-launch/pkg/logging"

	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
)

type flagOptions struct {
	Config       string `long:"config" description:"path to the launcher YAML configuration file"`
	LogLevel     string `long:"log-level" description:"minimum log level (debug, info, warn, error)"`
	LogFormat    string `long:"log-format" description:"log output format (text, json, console)"`
	PIDDirectory string `long:"pid-dir" description:"directory to write node PID files to"`
	ShowArgs     bool   `short:"s" long:"show-args" description:"show the launch arguments and exit"`
	Print        bool   `short:"p" long:"print" description:"print the resolved launch plan and exit"`

	Positional struct {
		Arguments []string `positional-arg-name:"name:=value"`
	} `positional-args:"yes"`
}

func logPrefix(module string) string {
	return fmt.Sprintf("module: %s , ", module)
}

func runLogPrefix(runID string) string {
	return logPrefix("apriltag-launch") + fmt.Sprintf("run: %s , ", runID)
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts flagOptions
	var argv []string = os.Args[1:]
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	_, err := parser.ParseArgs(argv)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "Command line flags parsing failed: %v\n", err)
		return exitValidation
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration failed: %v\n", err)
		return exitValidation
	}

	runID := uuid.NewString()
	logger, sync, err := newLogger(cfg, runID, opts.Print || opts.ShowArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Logger setup failed: %v\n", err)
		return exitFailure
	}
	defer sync()

	overrides, err := launch.ParseOverrides(opts.Positional.Arguments)
	if err != nil {
		logger.Errorf("Invalid launch arguments: %v", err)
		return exitValidation
	}

	env := launch.EnvironmentFromOS()
	l, err := launcher.New(launcher.Options{
		Description: apriltag.GenerateLaunchDescription(),
		Config:      cfg,
		Environment: env,
		Packages:    launch.NewAmentIndexFromEnvironment(env),
		RunID:       runID,
	}, logger)
	if err != nil {
		logger.Errorf("Failed to create launcher: %v", err)
		return exitFailure
	}

	if opts.ShowArgs {
		if err := l.ShowArguments(os.Stdout); err != nil {
			logger.Errorf("Failed to show arguments: %v", err)
			return exitFailure
		}
		return exitOK
	}

	plan, err := l.Plan(overrides)
	if err != nil {
		return exitCode(err)
	}

	if opts.Print {
		if err := l.Print(os.Stdout, plan); err != nil {
			logger.Errorf("Failed to print launch plan: %v", err)
			return exitFailure
		}
		return exitOK
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Infof("Launching, run: %s, nodes: %d", runID, len(plan.Nodes))
	if err := l.Run(ctx, plan); err != nil {
		logger.Errorf("Launch failed: %v", err)
		return exitCode(err)
	}

	logger.Infof("Done")
	return exitOK
}

func loadConfig(opts flagOptions) (*config.LaunchConfig, error) {
	cfg := config.DefaultConfig()
	if opts.Config != "" {
		loaded, err := config.LoadConfigFromFile(opts.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.LogLevel != "" {
		cfg.Launcher.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Launcher.LogFormat = config.LogFormat(opts.LogFormat)
	}
	if opts.PIDDirectory != "" {
		cfg.Launcher.PIDDirectory = opts.PIDDirectory
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger picks the backend from the configured format.
// Diagnostics go to stderr when stdout carries command output.
func newLogger(cfg *config.LaunchConfig, runID string, quietStdout bool) (logging.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Launcher.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	output := "stdout"
	if quietStdout {
		output = "stderr"
	}

	switch cfg.Launcher.LogFormat {
	case config.LogFormatJSON, config.LogFormatConsole:
		funcs, sync, err := logging.NewZapLogFuncs(logging.ZapConfig{
			Level:  cfg.Launcher.LogLevel,
			Format: string(cfg.Launcher.LogFormat),
			Output: output,
		}, zap.String("run_id", runID))
		if err != nil {
			return nil, nil, err
		}
		return logging.NewLogger("", funcs), func() { _ = sync() }, nil

	default:
		if quietStdout {
			// the std sprintf logger writes to stdout; keep printed plans parseable
			level = logging.LogLevelError
		}
		stdLogger := sprintfLogging.NewStdSprintfLogger()
		funcs := logging.LogFuncs{
			Debugf: stdLogger.Debugf,
			Infof:  stdLogger.Infof,
			Warnf:  stdLogger.Warnf,
			Errorf: stdLogger.Errorf,
		}
		return logging.NewFilteredLogger(runLogPrefix(runID), level, funcs), func() {}, nil
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.IsValidationError(err):
		return exitValidation
	}
	if code, ok := errors.ContextValue(err, "exit_code"); ok {
		if c, ok := code.(int); ok && c > 0 {
			return c
		}
	}
	return exitFailure
}
