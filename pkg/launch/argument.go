package launch

import (
	"fmt"
	"strings"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"
)

// DeclareArgument exposes a launch configuration that the invoker may override.
// A nil Default makes the argument required.
type DeclareArgument struct {
	Name        string
	Default     Substitution
	Description string
	Choices     []string
}

func (*DeclareArgument) actionKind() string { return "argument" }

// ValidateChoice checks value against the declared choices, if any
func (a *DeclareArgument) ValidateChoice(value string) error {
	if len(a.Choices) == 0 {
		return nil
	}
	for _, choice := range a.Choices {
		if value == choice {
			return nil
		}
	}
	return errors.NewValidationError(
		fmt.Sprintf("argument '%s' provided value '%s' is not valid, valid options are: [%s]",
			a.Name, value, QuoteChoices(a.Choices)),
		nil,
	).WithContext("argument", a.Name)
}

// ResolvedArgument is a launch argument after overrides and defaults were applied
type ResolvedArgument struct {
	Name        string   `yaml:"name"`
	Value       string   `yaml:"value"`
	Overridden  bool     `yaml:"overridden"`
	Description string   `yaml:"description,omitempty"`
	Choices     []string `yaml:"choices,omitempty"`
}

// QuoteChoices renders values as 'a', 'b' the way ros2 launch lists choices
func QuoteChoices(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	return strings.Join(quoted, ", ")
}
