package launch

import (
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// ParseOverrides parses ros2 launch style name:=value tokens.
// The value may be empty; a repeated name keeps the last value.
func ParseOverrides(tokens []string) (map[string]string, error) {
	overrides := make(map[string]string, len(tokens))
	for _, token := range tokens {
		name, value, ok := strings.Cut(token, ":=")
		if !ok {
			return nil, errors.NewValidationError("malformed launch argument, expected name:=value", nil).WithContext("token", token)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.NewValidationError("launch argument name cannot be empty", nil).WithContext("token", token)
		}
		overrides[name] = value
	}
	return overrides, nil
}

// MergeOverrides layers maps from lowest to highest precedence
func MergeOverrides(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}
