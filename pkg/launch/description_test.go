package launch

import (
	"strings"
	"testing"

	"github.com/core-tools/hsu-ros-launch/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescription() *Description {
	return NewDescription(
		&DeclareArgument{
			Name:        "use_sim",
			Default:     Text("False"),
			Description: "Whether simulation is used",
			Choices:     []string{"True", "False"},
		},
		&DeclareArgument{
			Name:    "namespace",
			Default: EnvironmentVariable("ROBOT_NAMESPACE", Text("")),
		},
		&DeclareArgument{
			Name:    "topic",
			Default: Concat(Configuration("namespace"), Text("/detections")),
		},
		&Node{
			Package:    "demo_pkg",
			Executable: "demo_node",
			Namespace:  Configuration("namespace"),
			Parameters: []Parameter{
				InlineParameter("use_sim_time", Configuration("use_sim")),
				ParametersFile(Text("/cfg/demo.yaml")),
			},
			Remappings: []Remapping{
				{From: "detections", To: Configuration("topic")},
			},
			EmulateTTY: true,
		},
	)
}

func TestResolveDefaults(t *testing.T) {
	plan, err := Resolve(testDescription(), ResolveOptions{Environment: NewEnvironment(nil)})
	require.NoError(t, err)

	require.Len(t, plan.Arguments, 3)
	assert.Equal(t, "use_sim", plan.Arguments[0].Name)
	assert.Equal(t, "False", plan.Arguments[0].Value)
	assert.False(t, plan.Arguments[0].Overridden)
	assert.Equal(t, []string{"True", "False"}, plan.Arguments[0].Choices)

	ns, ok := plan.Argument("namespace")
	assert.True(t, ok)
	assert.Equal(t, "", ns)

	require.Len(t, plan.Nodes, 1)
	node := plan.Nodes[0]
	assert.Equal(t, "", node.Namespace)
	assert.True(t, node.EmulateTTY)
	assert.Equal(t, []ResolvedParameter{
		{Name: "use_sim_time", Value: "False"},
		{File: "/cfg/demo.yaml"},
	}, node.Parameters)
	assert.Equal(t, map[string]string{"detections": "/detections"}, node.RemappingMap())
}

func TestResolveEnvironmentAndOverrides(t *testing.T) {
	env := NewEnvironment(map[string]string{"ROBOT_NAMESPACE": "panther"})

	plan, err := Resolve(testDescription(), ResolveOptions{Environment: env})
	require.NoError(t, err)
	assert.Equal(t, "/panther", plan.Nodes[0].Namespace)
	assert.Equal(t, "panther/detections", plan.Nodes[0].Remappings[0].To)

	plan, err = Resolve(testDescription(), ResolveOptions{
		Environment: env,
		Overrides:   map[string]string{"namespace": "robot1", "use_sim": "True", "unknown": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/robot1", plan.Nodes[0].Namespace)
	assert.Equal(t, "True", plan.Nodes[0].Parameters[0].Value)
	assert.True(t, plan.Arguments[1].Overridden)
	assert.Equal(t, []string{"unknown"}, plan.UnusedOverrides)
}

func TestResolveRejectsInvalidChoice(t *testing.T) {
	plan, err := Resolve(testDescription(), ResolveOptions{
		Overrides: map[string]string{"use_sim": "Maybe"},
	})
	assert.Nil(t, plan)
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.Contains(t, err.Error(), "'Maybe'")
	assert.Contains(t, err.Error(), "'True', 'False'")
}

func TestResolveEvaluatesDefaultsLazily(t *testing.T) {
	desc := NewDescription(
		&DeclareArgument{Name: "config", Default: PackageShare("not_installed")},
	)

	_, err := Resolve(desc, ResolveOptions{Packages: NewAmentIndex(nil)})
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.True(t, errors.IsNotFoundError(err))

	plan, err := Resolve(desc, ResolveOptions{
		Packages:  NewAmentIndex(nil),
		Overrides: map[string]string{"config": "/custom.yaml"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/custom.yaml", plan.Arguments[0].Value)
}

func TestResolveDescriptionErrors(t *testing.T) {
	tests := []struct {
		name string
		desc *Description
	}{
		{"nil_description", nil},
		{"required_argument", NewDescription(&DeclareArgument{Name: "required"})},
		{"empty_argument_name", NewDescription(&DeclareArgument{Default: Text("x")})},
		{"duplicate_argument", NewDescription(
			&DeclareArgument{Name: "a", Default: Text("1")},
			&DeclareArgument{Name: "a", Default: Text("2")},
		)},
		{"node_without_executable", NewDescription(&Node{Package: "pkg"})},
		{"parameter_without_value", NewDescription(&Node{
			Package: "pkg", Executable: "exe",
			Parameters: []Parameter{{Name: "orphan"}},
		})},
		{"empty_parameters_file", NewDescription(&Node{
			Package: "pkg", Executable: "exe",
			Parameters: []Parameter{ParametersFile(Text(""))},
		})},
		{"remapping_without_target", NewDescription(&Node{
			Package: "pkg", Executable: "exe",
			Remappings: []Remapping{{From: "image"}},
		})},
		{"namespace_from_unknown_configuration", NewDescription(&Node{
			Package: "pkg", Executable: "exe",
			Namespace: Configuration("namespace"),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.desc, ResolveOptions{})
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
		})
	}
}

func TestResolvedNodeRosArgs(t *testing.T) {
	node := ResolvedNode{
		Package:    "apriltag_ros",
		Executable: "apriltag_node",
		Name:       "apriltag",
		Namespace:  "/robot1",
		Parameters: []ResolvedParameter{
			{Name: "use_sim_time", Value: "True"},
			{File: "/cfg/robot1/apriltag.yaml"},
		},
		Remappings: []ResolvedRemapping{
			{From: "camera_info", To: "/camera/color/camera_info"},
			{From: "image_rect", To: "/camera/color/image_raw"},
		},
	}

	assert.Equal(t, []string{
		"--ros-args",
		"-r", "__node:=apriltag",
		"-r", "__ns:=/robot1",
		"-p", "use_sim_time:=True",
		"--params-file", "/cfg/robot1/apriltag.yaml",
		"-r", "camera_info:=/camera/color/camera_info",
		"-r", "image_rect:=/camera/color/image_raw",
	}, node.RosArgs())
	assert.Equal(t, "apriltag", node.ID())

	node.Name = ""
	node.Namespace = ""
	args := node.RosArgs()
	assert.NotContains(t, strings.Join(args, " "), "__ns")
	assert.NotContains(t, strings.Join(args, " "), "__node")
	assert.Equal(t, "-p", args[1])
	assert.Equal(t, "apriltag_node", node.ID())
}

func TestNormalizeNamespace(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{" robot1", "/ robot1"},
		{"robot1", "/robot1"},
		{"/robot1", "/robot1"},
		{"/robot1/", "/robot1"},
		{"fleet/robot1", "/fleet/robot1"},
		{"/", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeNamespace(tt.input))
		})
	}
}

func TestDefaultValues(t *testing.T) {
	desc := NewDescription(
		&DeclareArgument{Name: "namespace", Default: EnvironmentVariable("ROBOT_NAMESPACE", Text(""))},
		&DeclareArgument{Name: "config", Default: PackageShare("panther_docking")},
		&DeclareArgument{Name: "required"},
	)

	values, failures := DefaultValues(desc, NewEnvironment(map[string]string{"ROBOT_NAMESPACE": "r2"}), NewAmentIndex(nil))
	assert.Equal(t, map[string]string{"namespace": "r2"}, values)
	require.Contains(t, failures, "config")
	assert.True(t, errors.IsNotFoundError(failures["config"]))
	assert.NotContains(t, failures, "required")
}

func TestParseOverrides(t *testing.T) {
	overrides, err := ParseOverrides([]string{"use_sim:=True", "namespace:=", "path:=/a:=b", "use_sim:=False"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"use_sim":   "False",
		"namespace": "",
		"path":      "/a:=b",
	}, overrides)

	for _, bad := range []string{"use_sim=True", ":=value", "plain"} {
		_, err := ParseOverrides([]string{bad})
		assert.True(t, errors.IsValidationError(err), bad)
	}
}

func TestMergeOverrides(t *testing.T) {
	merged := MergeOverrides(
		map[string]string{"a": "file", "b": "file"},
		nil,
		map[string]string{"b": "cli"},
	)
	assert.Equal(t, map[string]string{"a": "file", "b": "cli"}, merged)
}

func TestQuoteChoices(t *testing.T) {
	assert.Equal(t, "'True', 'False'", QuoteChoices([]string{"True", "False"}))
	assert.Equal(t, "'x'", QuoteChoices([]string{"x"}))
	assert.Equal(t, "", QuoteChoices(nil))
}
