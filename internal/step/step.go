// Package step defines the Task step taxonomy (§3) the planners emit and
// the Step Runner (§4.5) that executes one step against the container
// daemon.
package step

import "github.com/batcher/batcher/internal/config"

// Kind identifies one variant of work the step runner can execute.
type Kind string

const (
	BeginTask           Kind = "begin_task"
	BuildImage          Kind = "build_image"
	PullImage           Kind = "pull_image"
	CreateTaskNetwork   Kind = "create_task_network"
	CreateContainer     Kind = "create_container"
	RunContainer        Kind = "run_container"   // task container only
	StartContainer      Kind = "start_container" // dependency containers
	WaitForHealthy      Kind = "wait_for_healthy"
	StopContainer       Kind = "stop_container"
	RemoveContainer     Kind = "remove_container"
	CleanUpContainer    Kind = "clean_up_container" // forcible
	DeleteTaskNetwork   Kind = "delete_task_network"
	DisplayTaskFailure  Kind = "display_task_failure"
	FinishTask          Kind = "finish_task"
)

// Step is one atomic unit of work a planner has decided is ready (§4.3
// rule emission, §4.4 cleanup rules).
type Step struct {
	Kind Kind

	// Container names the container this step concerns, empty for
	// task/network-scoped steps (BeginTask, CreateTaskNetwork,
	// DeleteTaskNetwork, FinishTask, DisplayTaskFailure).
	Container string

	// Command/Image/Env/WorkingDir/Volumes/Ports are the effective
	// container spec, populated for CreateContainer.
	Command    []string
	Image      string
	Env        map[string]string
	WorkingDir string
	Volumes    []config.VolumeMount
	Ports      []config.PortMapping

	// ImageRef is the pull reference, populated for PullImage. Identical
	// references are coalesced into a single in-flight step by the
	// execution manager (§4.3 rule 3).
	ImageRef string

	// NetworkID is populated for CreateContainer (the network to attach
	// to) and DeleteTaskNetwork (the network to remove).
	NetworkID string

	// Handle is the daemon-assigned container handle, populated for steps
	// that act on an already-created container.
	Handle string

	// Instructions is populated for DisplayTaskFailure (§4.4 "manual
	// cleanup instructions").
	Instructions string
}

// Identity returns the key the execution manager uses for at-most-once
// dispatch tracking (§4.6): "container+step-kind or network+step-kind".
// Pull steps are keyed by image reference so identical pulls coalesce.
func (s Step) Identity() string {
	switch s.Kind {
	case PullImage:
		return string(PullImage) + ":" + s.ImageRef
	case CreateTaskNetwork, DeleteTaskNetwork, BeginTask, FinishTask, DisplayTaskFailure:
		return string(s.Kind)
	default:
		return string(s.Kind) + ":" + s.Container
	}
}
