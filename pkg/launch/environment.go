package launch

import (
	"os"
	"sort"
	"strings"
)

// Environment is an immutable snapshot of environment variables.
// Substitutions never consult the process environment directly.
type Environment struct {
	vars map[string]string
}

func NewEnvironment(vars map[string]string) Environment {
	copied := make(map[string]string, len(vars))
	for k, v := range vars {
		copied[k] = v
	}
	return Environment{vars: copied}
}

// ParseEnvironment builds an Environment from NAME=VALUE entries; later entries win
func ParseEnvironment(entries []string) Environment {
	vars := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		vars[name] = value
	}
	return Environment{vars: vars}
}

// EnvironmentFromOS snapshots the current process environment
func EnvironmentFromOS() Environment {
	return ParseEnvironment(os.Environ())
}

func (e Environment) Lookup(name string) (string, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// With returns a copy with the given variables set
func (e Environment) With(vars map[string]string) Environment {
	merged := make(map[string]string, len(e.vars)+len(vars))
	for k, v := range e.vars {
		merged[k] = v
	}
	for k, v := range vars {
		merged[k] = v
	}
	return Environment{vars: merged}
}

// Entries returns NAME=VALUE pairs sorted by name
func (e Environment) Entries() []string {
	entries := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		entries = append(entries, k+"="+v)
	}
	sort.Strings(entries)
	return entries
}
