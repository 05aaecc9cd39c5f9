// Package events defines the Task event taxonomy (§3) and the append-only
// Event Log (§4.2) that is the single source of truth the planner reads.
package events

import "time"

// Kind identifies one variant of the Task event taxonomy (§3).
type Kind string

const (
	TaskStarted Kind = "task_started"

	TaskNetworkCreated        Kind = "task_network_created"
	TaskNetworkCreationFailed Kind = "task_network_creation_failed"

	ImageBuildProgress Kind = "image_build_progress"
	ImageBuilt         Kind = "image_built"
	ImageBuildFailed   Kind = "image_build_failed"
	ImagePulled        Kind = "image_pulled"
	ImagePullFailed    Kind = "image_pull_failed"

	ContainerCreated         Kind = "container_created"
	ContainerCreationFailed  Kind = "container_creation_failed"
	ContainerStarted         Kind = "container_started"
	ContainerStartFailed     Kind = "container_start_failed"
	ContainerBecameHealthy   Kind = "container_became_healthy"
	ContainerNotHealthy      Kind = "container_did_not_become_healthy"
	RunningContainerExited   Kind = "running_container_exited"
	ContainerStopped         Kind = "container_stopped"
	ContainerStopFailed      Kind = "container_stop_failed"
	ContainerRemoved         Kind = "container_removed"
	ContainerRemovalFailed   Kind = "container_removal_failed"

	TaskNetworkDeleted        Kind = "task_network_deleted"
	TaskNetworkDeletionFailed Kind = "task_network_deletion_failed"
)

// failureKinds is the set of "*Failed" variants used by IsFailure and the
// planners' terminal-signal checks (§4.3, §4.4).
var failureKinds = map[Kind]bool{
	TaskNetworkCreationFailed: true,
	ImageBuildFailed:          true,
	ImagePullFailed:           true,
	ContainerCreationFailed:   true,
	ContainerStartFailed:      true,
	ContainerNotHealthy:       true,
	ContainerStopFailed:       true,
	ContainerRemovalFailed:    true,
	TaskNetworkDeletionFailed: true,
}

// Event is one immutable, posted occurrence in the event log. Only the
// fields relevant to Kind are populated; see the taxonomy in §3.
type Event struct {
	Time time.Time `json:"time"`
	Kind Kind       `json:"kind"`

	// Container is the container this event concerns. Empty for
	// task/network-level events.
	Container string `json:"container,omitempty"`

	Message   string `json:"message,omitempty"`
	NetworkID string `json:"network_id,omitempty"`
	ImageID   string `json:"image_id,omitempty"`
	ImageRef  string `json:"image_ref,omitempty"`
	Handle    string `json:"handle,omitempty"`
	Progress  string `json:"progress,omitempty"`
	ExitCode  *int   `json:"exit_code,omitempty"`
}

// New creates an event of the given kind concerning container (may be "").
// Time is left zero; the log stamps it on post.
func New(kind Kind, container string) Event {
	return Event{Kind: kind, Container: container}
}

func (e Event) WithMessage(msg string) Event    { e.Message = msg; return e }
func (e Event) WithNetworkID(id string) Event   { e.NetworkID = id; return e }
func (e Event) WithImageID(id string) Event     { e.ImageID = id; return e }
func (e Event) WithImageRef(ref string) Event   { e.ImageRef = ref; return e }
func (e Event) WithHandle(handle string) Event  { e.Handle = handle; return e }
func (e Event) WithProgress(p string) Event     { e.Progress = p; return e }
func (e Event) WithExitCode(code int) Event     { e.ExitCode = &code; return e }
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// IsFailure reports whether this event is one of the "*Failed" variants.
func (e Event) IsFailure() bool { return failureKinds[e.Kind] }

// String renders a human-readable one-line form, used by the simple UI
// sink and in test failure output.
func (e Event) String() string {
	s := "[" + string(e.Kind) + "]"
	if e.Container != "" {
		s += " " + e.Container
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}
