package launch

import (
	"path/filepath"
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// Context carries everything a Substitution may read while it is evaluated
type Context struct {
	Configurations map[string]string
	Environment    Environment
	Packages       PackageLocator
}

// Substitution is a deferred string value, evaluated once the launch context is known
type Substitution func(ctx *Context) (string, error)

// Text is a literal value
func Text(value string) Substitution {
	return func(*Context) (string, error) {
		return value, nil
	}
}

// Configuration reads a launch configuration that an earlier argument declaration resolved
func Configuration(name string) Substitution {
	return func(ctx *Context) (string, error) {
		value, ok := ctx.Configurations[name]
		if !ok {
			return "", errors.NewNotFoundError("launch configuration is not set", nil).WithContext("name", name)
		}
		return value, nil
	}
}

// EnvironmentVariable reads name from the injected environment, evaluating fallback when unset.
// A nil fallback makes the variable mandatory.
func EnvironmentVariable(name string, fallback Substitution) Substitution {
	return func(ctx *Context) (string, error) {
		if value, ok := ctx.Environment.Lookup(name); ok {
			return value, nil
		}
		if fallback == nil {
			return "", errors.NewNotFoundError("environment variable is not set", nil).WithContext("name", name)
		}
		return fallback(ctx)
	}
}

// Concat joins the values of parts without a separator
func Concat(parts ...Substitution) Substitution {
	return func(ctx *Context) (string, error) {
		values, err := evaluateAll(ctx, parts)
		if err != nil {
			return "", err
		}
		return strings.Join(values, ""), nil
	}
}

// PathJoin joins the values of parts as path segments
func PathJoin(parts ...Substitution) Substitution {
	return func(ctx *Context) (string, error) {
		values, err := evaluateAll(ctx, parts)
		if err != nil {
			return "", err
		}
		return filepath.Join(values...), nil
	}
}

// PackageShare resolves the installed share directory of pkg
func PackageShare(pkg string) Substitution {
	return func(ctx *Context) (string, error) {
		if ctx.Packages == nil {
			return "", errors.NewNotFoundError("no package locator configured", nil).WithContext("package", pkg)
		}
		return ctx.Packages.ShareDirectory(pkg)
	}
}

// Replacement rewrites every occurrence of Old with the value of New.
// An exhaustive replacement is repeated until Old no longer occurs.
type Replacement struct {
	Old        string
	New        Substitution
	Exhaustive bool
}

// ReplaceString applies rules to the value of source, strictly in slice order
func ReplaceString(source Substitution, rules ...Replacement) Substitution {
	return func(ctx *Context) (string, error) {
		text, err := source(ctx)
		if err != nil {
			return "", err
		}
		for _, rule := range rules {
			if rule.Old == "" {
				continue
			}
			replacement, err := rule.New(ctx)
			if err != nil {
				return "", err
			}
			text = applyReplacement(text, rule.Old, replacement, rule.Exhaustive)
		}
		return text, nil
	}
}

func applyReplacement(text, old, replacement string, exhaustive bool) string {
	text = strings.ReplaceAll(text, old, replacement)
	// a replacement containing old would never reach a fixed point
	if !exhaustive || strings.Contains(replacement, old) {
		return text
	}
	for strings.Contains(text, old) {
		text = strings.ReplaceAll(text, old, replacement)
	}
	return text
}

func evaluateAll(ctx *Context, parts []Substitution) ([]string, error) {
	values := make([]string, len(parts))
	for i, part := range parts {
		value, err := part(ctx)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}
