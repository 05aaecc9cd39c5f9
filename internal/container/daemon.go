// Package container abstracts the external container daemon (§6): the
// engine never talks to Docker/Podman directly, only through this
// interface, so the core stays testable against a fake.
package container

import (
	"context"
	"io"
	"time"

	"github.com/batcher/batcher/internal/config"
)

// ContainerConfig specifies container creation parameters (§6 create).
type ContainerConfig struct {
	Name       string
	Image      string
	Command    []string
	Env        map[string]string
	WorkingDir string
	Volumes    []config.VolumeMount
	Ports      []config.PortMapping
	Network    string
}

// HealthStatus is the result of waitForHealthStatus (§6).
type HealthStatus int

const (
	NoHealthCheck HealthStatus = iota
	BecameHealthy
	BecameUnhealthy
	Exited
)

func (h HealthStatus) String() string {
	switch h {
	case NoHealthCheck:
		return "no_health_check"
	case BecameHealthy:
		return "became_healthy"
	case BecameUnhealthy:
		return "became_unhealthy"
	case Exited:
		return "exited"
	default:
		return "unknown"
	}
}

// RunResult is the outcome of a blocking Run call.
type RunResult struct {
	ExitCode int
}

// Daemon is the only interface the engine requires of a container runtime
// (§6). Implementations must be safe for concurrent use — the execution
// manager calls these from multiple worker goroutines at once.
type Daemon interface {
	// Build builds an image from a local context directory, reporting
	// incremental progress via onProgress (may be called zero or more
	// times before returning).
	Build(ctx context.Context, projectName, containerName, buildDir string, onProgress func(string)) (imageID string, err error)

	// Pull fetches an image by reference.
	Pull(ctx context.Context, ref string) (imageID string, err error)

	// CreateBridgeNetwork creates an isolated network for one task run.
	CreateBridgeNetwork(ctx context.Context) (networkID string, err error)

	// DeleteNetwork removes a task network.
	DeleteNetwork(ctx context.Context, networkID string) error

	// Create creates a container but does not start it.
	Create(ctx context.Context, image string, cfg ContainerConfig) (handle string, err error)

	// Start starts a previously created dependency container.
	Start(ctx context.Context, handle string) error

	// Run starts the task container and blocks until it exits, forwarding
	// its stdio to stdout/stderr.
	Run(ctx context.Context, handle string, stdout, stderr io.Writer) (RunResult, error)

	// WaitForHealthStatus blocks until the container reports a health
	// outcome (§6).
	WaitForHealthStatus(ctx context.Context, handle string) (HealthStatus, error)

	// Stop stops a running container within timeout.
	Stop(ctx context.Context, handle string, timeout time.Duration) error

	// Remove removes a stopped container.
	Remove(ctx context.Context, handle string) error

	// ForciblyRemove removes a container regardless of state, tolerating
	// the container already being gone (§7 propagation policy).
	ForciblyRemove(ctx context.Context, handle string) error
}

// ErrContainerDoesNotExist is returned by Remove/ForciblyRemove when the
// daemon reports the container is already gone. The step runner converts
// this into a successful ContainerRemoved event (§7).
var ErrContainerDoesNotExist = &daemonError{"container does not exist"}

type daemonError struct{ msg string }

func (e *daemonError) Error() string { return e.msg }
