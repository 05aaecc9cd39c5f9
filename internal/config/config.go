// Package config loads and validates the project-local batcher.yml file
// into the immutable Configuration the rest of the engine operates on.
package config

// Configuration is the fully parsed, validated project file. It is created
// once per process invocation and is immutable thereafter.
type Configuration struct {
	ProjectName string                   `yaml:"project_name"`
	Containers  map[string]*ContainerDef `yaml:"containers"`
	Tasks       map[string]*TaskDef      `yaml:"tasks"`
}

// ImageSource is a tagged union: exactly one of Build or Pull is set.
type ImageSource struct {
	// BuildDirectory is set when the image is built from a local context.
	BuildDirectory string
	// PullReference is set when the image is pulled from a registry.
	PullReference string
}

// IsBuild reports whether the image is built from a Dockerfile context.
func (s ImageSource) IsBuild() bool { return s.BuildDirectory != "" }

// IsPull reports whether the image is pulled from a registry reference.
func (s ImageSource) IsPull() bool { return s.PullReference != "" }

// VolumeMount binds a host path into the container.
type VolumeMount struct {
	HostPath      string `yaml:"local"`
	ContainerPath string `yaml:"container"`
	Mode          string `yaml:"options,omitempty"` // e.g. "ro", "rw" (default)
}

// PortMapping exposes a container port on the host.
type PortMapping struct {
	HostPort      int `yaml:"local"`
	ContainerPort int `yaml:"container"`
}

// HealthCheckConfig marks a container as having a health check: its
// dependents are not created until it reports healthy, while containers
// without one count as healthy as soon as they start. Its fields are not
// passed to the container daemon; the status waited on is the one from the
// image's own HEALTHCHECK, and an image without one counts as healthy.
type HealthCheckConfig struct {
	Command     string `yaml:"command,omitempty"`
	Interval    string `yaml:"interval,omitempty"`
	Retries     int    `yaml:"retries,omitempty"`
	StartPeriod string `yaml:"start_period,omitempty"`
}

// ContainerDef is a container definition as written in the config file.
type ContainerDef struct {
	Name string `yaml:"-"` // populated from the map key

	BuildDirectory string             `yaml:"build_directory,omitempty"`
	Image          string             `yaml:"image,omitempty"`
	HealthCheck    *HealthCheckConfig `yaml:"health_check,omitempty"`

	// CommandRaw is the unparsed shell-style command string; Command is
	// populated by Validate() from CommandRaw.
	CommandRaw string   `yaml:"command,omitempty"`
	Command    []string `yaml:"-"`

	Environment map[string]string `yaml:"environment,omitempty"`
	WorkingDir  string            `yaml:"working_directory,omitempty"`
	Volumes     []VolumeMount     `yaml:"volumes,omitempty"`
	Ports       []PortMapping     `yaml:"ports,omitempty"`

	// DependsOn is the current key. Start is the deprecated alias (§6: "the
	// start key is a deprecated alias of dependencies"). When both are
	// present the loader takes the union and emits a warning (§9 Open
	// Question, resolved).
	DependsOn []string `yaml:"dependencies,omitempty"`
	Start     []string `yaml:"start,omitempty"`
}

// ImageSource resolves the definition's build-or-pull tag.
func (c *ContainerDef) ImageSource() ImageSource {
	if c.BuildDirectory != "" {
		return ImageSource{BuildDirectory: c.BuildDirectory}
	}
	return ImageSource{PullReference: c.Image}
}

// TaskRunConfig is the task's run-time override of its container.
type TaskRunConfig struct {
	Container      string            `yaml:"container"`
	CommandRaw     string            `yaml:"command,omitempty"`
	Command        []string          `yaml:"-"`
	Environment    map[string]string `yaml:"environment,omitempty"`
	Ports          []PortMapping     `yaml:"ports,omitempty"`
}

// TaskDef is a task definition as written in the config file.
type TaskDef struct {
	Name        string        `yaml:"-"` // populated from the map key
	Description string        `yaml:"description,omitempty"`
	Run         TaskRunConfig `yaml:"run"`

	// DependsOn lists additional container dependencies beyond the run
	// container's own declared dependencies.
	DependsOn []string `yaml:"dependencies,omitempty"`

	// Prerequisites is the ordered sequence of task names that must run
	// (and succeed) before this task, per §4.7.
	Prerequisites []string `yaml:"prerequisites,omitempty"`
}
