package launch

import (
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// Parameter is either an inline Name/Value pair or a parameters File loaded wholesale by the node
type Parameter struct {
	Name  string
	Value Substitution
	File  Substitution
}

// InlineParameter passes a single key on the command line
func InlineParameter(name string, value Substitution) Parameter {
	return Parameter{Name: name, Value: value}
}

// ParametersFile passes a YAML parameters file
func ParametersFile(path Substitution) Parameter {
	return Parameter{File: path}
}

// Remapping maps a topic name used inside the node onto an external topic
type Remapping struct {
	From string
	To   Substitution
}

// Node describes one ROS node process to start
type Node struct {
	Package    string
	Executable string
	Name       string
	Namespace  Substitution
	Parameters []Parameter
	Remappings []Remapping
	EmulateTTY bool
}

func (*Node) actionKind() string { return "node" }

type ResolvedParameter struct {
	Name  string `yaml:"name,omitempty"`
	Value string `yaml:"value,omitempty"`
	File  string `yaml:"file,omitempty"`
}

func (p ResolvedParameter) IsFile() bool {
	return p.File != ""
}

type ResolvedRemapping struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ResolvedNode is a Node with every substitution evaluated.
// It is built once by Resolve and never mutated afterwards.
type ResolvedNode struct {
	Package    string              `yaml:"package"`
	Executable string              `yaml:"executable"`
	Name       string              `yaml:"name,omitempty"`
	Namespace  string              `yaml:"namespace,omitempty"`
	Parameters []ResolvedParameter `yaml:"parameters"`
	Remappings []ResolvedRemapping `yaml:"remappings"`
	EmulateTTY bool                `yaml:"emulate_tty"`
}

// ID names the node process in log output
func (n ResolvedNode) ID() string {
	if n.Name != "" {
		return n.Name
	}
	return n.Executable
}

// RosArgs renders the node configuration as ROS command line arguments
func (n ResolvedNode) RosArgs() []string {
	args := []string{"--ros-args"}
	if n.Name != "" {
		args = append(args, "-r", "__node:="+n.Name)
	}
	if n.Namespace != "" {
		args = append(args, "-r", "__ns:="+n.Namespace)
	}
	for _, p := range n.Parameters {
		if p.IsFile() {
			args = append(args, "--params-file", p.File)
		} else {
			args = append(args, "-p", p.Name+":="+p.Value)
		}
	}
	for _, r := range n.Remappings {
		args = append(args, "-r", r.From+":="+r.To)
	}
	return args
}

// RemappingMap returns the remappings keyed by internal topic name
func (n ResolvedNode) RemappingMap() map[string]string {
	m := make(map[string]string, len(n.Remappings))
	for _, r := range n.Remappings {
		m[r.From] = r.To
	}
	return m
}

func (n *Node) resolve(ctx *Context) (ResolvedNode, error) {
	if n.Package == "" || n.Executable == "" {
		return ResolvedNode{}, errors.NewValidationError("node requires a package and an executable", nil).
			WithContext("package", n.Package).
			WithContext("executable", n.Executable)
	}

	resolved := ResolvedNode{
		Package:    n.Package,
		Executable: n.Executable,
		Name:       n.Name,
		Parameters: make([]ResolvedParameter, 0, len(n.Parameters)),
		Remappings: make([]ResolvedRemapping, 0, len(n.Remappings)),
		EmulateTTY: n.EmulateTTY,
	}

	if n.Namespace != nil {
		ns, err := n.Namespace(ctx)
		if err != nil {
			return ResolvedNode{}, errors.NewValidationError("failed to resolve node namespace", err).WithContext("node", resolved.ID())
		}
		resolved.Namespace = NormalizeNamespace(ns)
	}

	for i, p := range n.Parameters {
		rp, err := p.resolve(ctx)
		if err != nil {
			return ResolvedNode{}, errors.NewValidationError("failed to resolve node parameter", err).
				WithContext("node", resolved.ID()).
				WithContext("index", i)
		}
		resolved.Parameters = append(resolved.Parameters, rp)
	}

	for _, r := range n.Remappings {
		if r.From == "" || r.To == nil {
			return ResolvedNode{}, errors.NewValidationError("remapping requires a source and a target", nil).WithContext("node", resolved.ID())
		}
		to, err := r.To(ctx)
		if err != nil {
			return ResolvedNode{}, errors.NewValidationError("failed to resolve remapping", err).
				WithContext("node", resolved.ID()).
				WithContext("from", r.From)
		}
		resolved.Remappings = append(resolved.Remappings, ResolvedRemapping{From: r.From, To: to})
	}

	return resolved, nil
}

func (p Parameter) resolve(ctx *Context) (ResolvedParameter, error) {
	switch {
	case p.File != nil && p.Value == nil:
		path, err := p.File(ctx)
		if err != nil {
			return ResolvedParameter{}, err
		}
		if path == "" {
			return ResolvedParameter{}, errors.NewValidationError("parameters file path resolved to an empty string", nil)
		}
		return ResolvedParameter{File: path}, nil
	case p.File == nil && p.Value != nil && p.Name != "":
		value, err := p.Value(ctx)
		if err != nil {
			return ResolvedParameter{}, err
		}
		return ResolvedParameter{Name: p.Name, Value: value}, nil
	default:
		return ResolvedParameter{}, errors.NewValidationError("parameter must be either a named value or a file", nil).WithContext("name", p.Name)
	}
}

// NormalizeNamespace makes a non-empty namespace absolute and drops trailing separators.
// An empty namespace stays empty so that the node lands in the root namespace.
// Other characters are kept as given, the same value is substituted into config paths.
func NormalizeNamespace(ns string) string {
	if ns == "" {
		return ""
	}
	ns = strings.TrimRight(ns, "/")
	if ns == "" {
		return "/"
	}
	if !strings.HasPrefix(ns, "/") {
		ns = "/" + ns
	}
	return ns
}
