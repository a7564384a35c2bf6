package launch

import (
	"sort"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// Action is an entry of a launch description: a *DeclareArgument or a *Node
type Action interface {
	actionKind() string
}

// Description is an ordered list of launch actions
type Description struct {
	Actions []Action
}

func NewDescription(actions ...Action) *Description {
	return &Description{Actions: actions}
}

// Arguments returns the argument declarations in declaration order
func (d *Description) Arguments() []*DeclareArgument {
	var args []*DeclareArgument
	for _, action := range d.Actions {
		if a, ok := action.(*DeclareArgument); ok {
			args = append(args, a)
		}
	}
	return args
}

func (d *Description) Nodes() []*Node {
	var nodes []*Node
	for _, action := range d.Actions {
		if n, ok := action.(*Node); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// ResolveOptions are the explicit inputs of Resolve
type ResolveOptions struct {
	Overrides   map[string]string
	Environment Environment
	Packages    PackageLocator
}

// Plan is the fully resolved outcome of a launch description
type Plan struct {
	Arguments       []ResolvedArgument `yaml:"arguments"`
	Nodes           []ResolvedNode     `yaml:"nodes"`
	UnusedOverrides []string           `yaml:"unused_overrides,omitempty"`
}

// Argument returns the resolved value of the named argument
func (p *Plan) Argument(name string) (string, bool) {
	for _, a := range p.Arguments {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Resolve evaluates the description against opts.
// Arguments are resolved first, in declaration order, and all of them must pass
// choice validation before any node is resolved.
func Resolve(desc *Description, opts ResolveOptions) (*Plan, error) {
	if desc == nil {
		return nil, errors.NewValidationError("launch description cannot be nil", nil)
	}

	ctx := &Context{
		Configurations: make(map[string]string),
		Environment:    opts.Environment,
		Packages:       opts.Packages,
	}
	plan := &Plan{}

	declared := make(map[string]bool)
	for _, arg := range desc.Arguments() {
		if arg.Name == "" {
			return nil, errors.NewValidationError("argument name cannot be empty", nil)
		}
		if declared[arg.Name] {
			return nil, errors.NewValidationError("argument declared more than once", nil).WithContext("argument", arg.Name)
		}
		declared[arg.Name] = true

		resolved, err := resolveArgument(ctx, arg, opts.Overrides)
		if err != nil {
			return nil, err
		}
		ctx.Configurations[arg.Name] = resolved.Value
		plan.Arguments = append(plan.Arguments, resolved)
	}

	for name := range opts.Overrides {
		if !declared[name] {
			plan.UnusedOverrides = append(plan.UnusedOverrides, name)
		}
	}
	sort.Strings(plan.UnusedOverrides)

	for _, node := range desc.Nodes() {
		resolved, err := node.resolve(ctx)
		if err != nil {
			return nil, err
		}
		plan.Nodes = append(plan.Nodes, resolved)
	}

	return plan, nil
}

func resolveArgument(ctx *Context, arg *DeclareArgument, overrides map[string]string) (ResolvedArgument, error) {
	resolved := ResolvedArgument{
		Name:        arg.Name,
		Description: arg.Description,
		Choices:     arg.Choices,
	}

	if value, ok := overrides[arg.Name]; ok {
		resolved.Value = value
		resolved.Overridden = true
	} else {
		if arg.Default == nil {
			return ResolvedArgument{}, errors.NewValidationError("required launch argument not provided", nil).WithContext("argument", arg.Name)
		}
		value, err := arg.Default(ctx)
		if err != nil {
			return ResolvedArgument{}, errors.NewValidationError("failed to resolve argument default", err).WithContext("argument", arg.Name)
		}
		resolved.Value = value
	}

	if err := arg.ValidateChoice(resolved.Value); err != nil {
		return ResolvedArgument{}, err
	}
	return resolved, nil
}

// DefaultValues evaluates argument defaults for display purposes.
// Defaults that cannot be evaluated are reported through the error map instead of failing.
func DefaultValues(desc *Description, env Environment, packages PackageLocator) (map[string]string, map[string]error) {
	ctx := &Context{
		Configurations: make(map[string]string),
		Environment:    env,
		Packages:       packages,
	}
	values := make(map[string]string)
	failures := make(map[string]error)
	for _, arg := range desc.Arguments() {
		if arg.Default == nil {
			continue
		}
		value, err := arg.Default(ctx)
		if err != nil {
			failures[arg.Name] = err
			continue
		}
		values[arg.Name] = value
		ctx.Configurations[arg.Name] = value
	}
	return values, failures
}
