package launch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// AmentPrefixPathVariable lists the install prefixes of sourced ROS workspaces
const AmentPrefixPathVariable = "AMENT_PREFIX_PATH"

const packageIndexDirectory = "share/ament_index/resource_index/packages"

// PackageLocator finds installed ROS packages
type PackageLocator interface {
	Prefix(pkg string) (string, error)
	ShareDirectory(pkg string) (string, error)
	Executable(pkg, executable string) (string, error)
}

// AmentIndex locates packages through the ament resource index of each install prefix.
// Prefixes are searched in order; the first one that registers a package wins.
type AmentIndex struct {
	prefixes []string
}

func NewAmentIndex(prefixes []string) *AmentIndex {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &AmentIndex{prefixes: cleaned}
}

// NewAmentIndexFromEnvironment reads the prefixes from AMENT_PREFIX_PATH
func NewAmentIndexFromEnvironment(env Environment) *AmentIndex {
	value, _ := env.Lookup(AmentPrefixPathVariable)
	return NewAmentIndex(filepath.SplitList(value))
}

func (a *AmentIndex) Prefixes() []string {
	return append([]string(nil), a.prefixes...)
}

func (a *AmentIndex) Prefix(pkg string) (string, error) {
	if pkg == "" {
		return "", errors.NewValidationError("package name cannot be empty", nil)
	}
	for _, prefix := range a.prefixes {
		marker := filepath.Join(prefix, filepath.FromSlash(packageIndexDirectory), pkg)
		if info, err := os.Stat(marker); err == nil && !info.IsDir() {
			return prefix, nil
		}
	}
	return "", errors.NewNotFoundError("package not found in ament index", nil).
		WithContext("package", pkg).
		WithContext("prefixes", strings.Join(a.prefixes, string(filepath.ListSeparator)))
}

func (a *AmentIndex) ShareDirectory(pkg string) (string, error) {
	prefix, err := a.Prefix(pkg)
	if err != nil {
		return "", err
	}
	return filepath.Join(prefix, "share", pkg), nil
}

// Executable returns <prefix>/lib/<pkg>/<executable>, the location ros2 run uses
func (a *AmentIndex) Executable(pkg, executable string) (string, error) {
	if executable == "" {
		return "", errors.NewValidationError("executable name cannot be empty", nil).WithContext("package", pkg)
	}
	prefix, err := a.Prefix(pkg)
	if err != nil {
		return "", err
	}
	path := filepath.Join(prefix, "lib", pkg, executable)
	if _, err := os.Stat(path); err != nil {
		return "", errors.NewNotFoundError("executable not found in package", err).
			WithContext("package", pkg).
			WithContext("executable", executable)
	}
	return path, nil
}
