package launcher

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/config"
	"github.com/core-tools/hsu-ros-launch/pkg/errors"
	"github.com/core-tools/hsu-ros-launch/pkg/launch"
	"github.com/core-tools/hsu-ros-launch/pkg/logging"
	"github.com/core-tools/hsu-ros-launch/pkg/process"
	"github.com/core-tools/hsu-ros-launch/pkg/processfile"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Launcher turns a launch description into running node processes
type Launcher struct {
	description *launch.Description
	config      *config.LaunchConfig
	environment launch.Environment
	packages    launch.PackageLocator
	runID       string
	logger      logging.Logger
}

type Options struct {
	Description *launch.Description
	Config      *config.LaunchConfig
	Environment launch.Environment
	Packages    launch.PackageLocator
	RunID       string
}

func New(opts Options, logger logging.Logger) (*Launcher, error) {
	if opts.Description == nil {
		return nil, errors.NewValidationError("launch description cannot be nil", nil)
	}
	if opts.Config == nil {
		opts.Config = config.DefaultConfig()
	}
	if opts.Packages == nil {
		opts.Packages = launch.NewAmentIndexFromEnvironment(opts.Environment)
	}
	return &Launcher{
		description: opts.Description,
		config:      opts.Config,
		environment: opts.Environment,
		packages:    opts.Packages,
		runID:       opts.RunID,
		logger:      logger,
	}, nil
}

// Plan resolves the description; CLI overrides take precedence over the configuration file
func (l *Launcher) Plan(cliOverrides map[string]string) (*launch.Plan, error) {
	overrides := launch.MergeOverrides(l.config.Arguments, cliOverrides)

	plan, err := launch.Resolve(l.description, launch.ResolveOptions{
		Overrides:   overrides,
		Environment: l.environment,
		Packages:    l.packages,
	})
	if err != nil {
		l.logger.Errorf("Failed to resolve launch description, error: %v", err)
		return nil, err
	}

	for _, name := range plan.UnusedOverrides {
		l.logger.Warnf("Launch argument is not declared and will be ignored, name: %s", name)
	}
	for _, arg := range plan.Arguments {
		l.logger.Debugf("Launch argument resolved, name: %s, value: '%s', overridden: %t", arg.Name, arg.Value, arg.Overridden)
	}
	return plan, nil
}

// ShowArguments lists the declared arguments the way ros2 launch --show-args does
func (l *Launcher) ShowArguments(w io.Writer) error {
	defaults, failures := launch.DefaultValues(l.description, l.environment, l.packages)

	var sb strings.Builder
	sb.WriteString("Arguments (pass arguments as '<name>:=<value>'):\n")
	for _, arg := range l.description.Arguments() {
		fmt.Fprintf(&sb, "\n    '%s':\n", arg.Name)
		description := arg.Description
		if description == "" {
			description = "no description given"
		}
		if len(arg.Choices) > 0 {
			description = strings.TrimSuffix(description, ".") + ". Valid choices are: [" + launch.QuoteChoices(arg.Choices) + "]"
		}
		fmt.Fprintf(&sb, "        %s\n", description)

		switch {
		case arg.Default == nil:
			sb.WriteString("        (required)\n")
		case failures[arg.Name] != nil:
			fmt.Fprintf(&sb, "        (default: unresolved, %v)\n", failures[arg.Name])
		default:
			fmt.Fprintf(&sb, "        (default: '%s')\n", defaults[arg.Name])
		}
	}

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return errors.NewIOError("failed to write argument list", err)
	}
	return nil
}

// PrintedCommand is one node process as it would be started
type PrintedCommand struct {
	Node        string   `yaml:"node"`
	Executable  string   `yaml:"executable"`
	Args        []string `yaml:"args"`
	EmulateTTY  bool     `yaml:"emulate_tty"`
	Unavailable string   `yaml:"unavailable,omitempty"`
}

type printedPlan struct {
	RunID    string           `yaml:"run_id,omitempty"`
	Plan     *launch.Plan     `yaml:"plan"`
	Commands []PrintedCommand `yaml:"commands"`
}

// Commands renders the command line of every planned node.
// A node whose executable cannot be located is still rendered, with the reason attached.
func (l *Launcher) Commands(plan *launch.Plan) []PrintedCommand {
	commands := make([]PrintedCommand, 0, len(plan.Nodes))
	for _, node := range plan.Nodes {
		cmd := PrintedCommand{
			Node:       node.ID(),
			Executable: node.Package + "/" + node.Executable,
			Args:       node.RosArgs(),
			EmulateTTY: node.EmulateTTY,
		}
		if execution, err := process.NewNodeExecution(node, l.packages, l.config.Environment, l.config.Launcher.WaitDelay); err != nil {
			cmd.Unavailable = err.Error()
		} else {
			cmd.Executable = execution.ExecutablePath
		}
		commands = append(commands, cmd)
	}
	return commands
}

// Print dumps the resolved plan and the node command lines as YAML
func (l *Launcher) Print(w io.Writer, plan *launch.Plan) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(printedPlan{RunID: l.runID, Plan: plan, Commands: l.Commands(plan)}); err != nil {
		return errors.NewIOError("failed to encode launch plan", err)
	}
	if err := encoder.Close(); err != nil {
		return errors.NewIOError("failed to encode launch plan", err)
	}
	return nil
}

// Run starts every planned node and waits for them.
// The first node that fails stops the others.
func (l *Launcher) Run(ctx context.Context, plan *launch.Plan) error {
	if len(plan.Nodes) == 0 {
		l.logger.Warnf("Launch plan contains no nodes, nothing to run")
		return nil
	}

	executions := make([]process.ExecutionConfig, len(plan.Nodes))
	for i, node := range plan.Nodes {
		execution, err := process.NewNodeExecution(node, l.packages, l.config.Environment, l.config.Launcher.WaitDelay)
		if err != nil {
			l.logger.Errorf("Failed to locate node executable, node: %s, package: %s, error: %v", node.ID(), node.Package, err)
			return err
		}
		executions[i] = execution

		if pidFiles := l.pidFiles(node); pidFiles != nil {
			if err := pidFiles.EnsureNotRunning(node.ID()); err != nil {
				l.logger.Errorf("Refusing to start node, node: %s, error: %v", node.ID(), err)
				return err
			}
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i := range plan.Nodes {
		node := plan.Nodes[i]
		execution := executions[i]
		id := nodeProcessID(node, i)
		group.Go(func() error {
			return l.runNode(groupCtx, node, execution, id)
		})
	}

	err := group.Wait()
	if err != nil && errors.IsCancelledError(err) && ctx.Err() != nil {
		l.logger.Infof("Launch stopped on request, run: %s", l.runID)
		return nil
	}
	return err
}

func (l *Launcher) runNode(ctx context.Context, node launch.ResolvedNode, execution process.ExecutionConfig, id string) error {
	pidFiles := l.pidFiles(node)
	if pidFiles != nil {
		defer pidFiles.RemovePIDFile(node.ID())
	}

	started := func(pid int) {
		if pidFiles == nil {
			return
		}
		if _, err := pidFiles.WritePIDFile(node.ID(), pid); err != nil {
			l.logger.Warnf("Could not record PID of node, node: %s, error: %v", id, err)
		}
	}

	l.logger.Infof("Starting node, node: %s, namespace: '%s', executable: %s", id, node.Namespace, execution.ExecutablePath)
	_, err := process.Run(ctx, execution, id, l.logger, started)
	return err
}

// pidFiles is nil when no PID directory is configured
func (l *Launcher) pidFiles(node launch.ResolvedNode) *processfile.ProcessFileManager {
	if l.config.Launcher.PIDDirectory == "" {
		return nil
	}
	return processfile.NewProcessFileManager(processfile.ProcessFileConfig{
		BaseDirectory: l.config.Launcher.PIDDirectory,
		Namespace:     node.Namespace,
	}, l.logger)
}

// nodeProcessID mirrors the <executable>-<n> naming ros2 launch uses in its output
func nodeProcessID(node launch.ResolvedNode, index int) string {
	return fmt.Sprintf("%s-%d", node.ID(), index+1)
}
