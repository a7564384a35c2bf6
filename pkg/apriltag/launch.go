// Package apriltag declares the launch description of the AprilTag detection node
// used for docking: its arguments, parameters and topic remappings.
package apriltag

import (
	"github.com/core-tools/hsu-ros-launch/pkg/launch"
)

// Launch argument names
const (
	ArgUseSim                  = "use_sim"
	ArgNamespace               = "namespace"
	ArgConfigPath              = "apriltag_config_path"
	ArgCameraImageTopic        = "camera_image_topic"
	ArgCameraInfoTopic         = "camera_info_topic"
	ArgApriltagDetectionsTopic = "apriltag_detections_topic"
)

// Defaults
const (
	NamespaceEnvironmentVariable = "ROBOT_NAMESPACE"
	ConfigPackage                = "panther_docking"
	DefaultCameraImageTopic      = "/camera/color/image_raw"
	DefaultCameraInfoTopic       = "/camera/color/camera_info"
	DefaultDetectionsTopic       = "/docking/april_tags"
)

// NamespacePlaceholder is replaced by the resolved namespace in the config path
const NamespacePlaceholder = "<robot_namespace>"

// Node identity and the topic names it uses internally
const (
	NodePackage    = "apriltag_ros"
	NodeExecutable = "apriltag_node"

	TopicCameraInfo = "camera_info"
	TopicImageRect  = "image_rect"
	TopicDetections = "detections"
)

// SimChoices are the accepted values of use_sim
var SimChoices = []string{"True", "False"}

// NamespacedConfigPath substitutes the namespace into the config path template
// and then collapses doubled separators, in that order: an empty namespace
// leaves "//" behind for the second rule to remove.
func NamespacedConfigPath(configPath, namespace launch.Substitution) launch.Substitution {
	return launch.ReplaceString(configPath,
		launch.Replacement{Old: NamespacePlaceholder, New: namespace},
		launch.Replacement{Old: "//", New: launch.Text("/"), Exhaustive: true},
	)
}

func GenerateLaunchDescription() *launch.Description {
	useSim := launch.Configuration(ArgUseSim)
	declareUseSim := &launch.DeclareArgument{
		Name:        ArgUseSim,
		Default:     launch.Text("False"),
		Description: "Whether simulation is used",
		Choices:     SimChoices,
	}

	namespace := launch.Configuration(ArgNamespace)
	declareNamespace := &launch.DeclareArgument{
		Name:        ArgNamespace,
		Default:     launch.EnvironmentVariable(NamespaceEnvironmentVariable, launch.Text("")),
		Description: "Add namespace to all launched nodes.",
	}

	configPath := launch.Configuration(ArgConfigPath)
	declareConfigPath := &launch.DeclareArgument{
		Name: ArgConfigPath,
		Default: launch.PathJoin(
			launch.PackageShare(ConfigPackage), launch.Text("config"), launch.Text("apriltag.yaml"),
		),
		Description: "Path to apriltag configuration file.",
	}

	cameraImageTopic := launch.Configuration(ArgCameraImageTopic)
	declareCameraImageTopic := &launch.DeclareArgument{
		Name:        ArgCameraImageTopic,
		Default:     launch.Text(DefaultCameraImageTopic),
		Description: "Image topic from camera",
	}

	cameraInfoTopic := launch.Configuration(ArgCameraInfoTopic)
	declareCameraInfoTopic := &launch.DeclareArgument{
		Name:        ArgCameraInfoTopic,
		Default:     launch.Text(DefaultCameraInfoTopic),
		Description: "Camera info topic",
	}

	detectionsTopic := launch.Configuration(ArgApriltagDetectionsTopic)
	declareDetectionsTopic := &launch.DeclareArgument{
		Name:        ArgApriltagDetectionsTopic,
		Default:     launch.Text(DefaultDetectionsTopic),
		Description: "Topic to publish apriltag detections",
	}

	node := &launch.Node{
		Package:    NodePackage,
		Executable: NodeExecutable,
		Namespace:  namespace,
		Parameters: []launch.Parameter{
			launch.InlineParameter("use_sim_time", useSim),
			launch.ParametersFile(NamespacedConfigPath(configPath, namespace)),
		},
		Remappings: []launch.Remapping{
			{From: TopicCameraInfo, To: cameraInfoTopic},
			{From: TopicImageRect, To: cameraImageTopic},
			{From: TopicDetections, To: detectionsTopic},
		},
		EmulateTTY: true,
	}

	return launch.NewDescription(
		declareUseSim,
		declareNamespace,
		declareCameraImageTopic,
		declareCameraInfoTopic,
		declareDetectionsTopic,
		declareConfigPath,
		node,
	)
}
