package step

import (
	"context"
	"io"
	"time"

	"github.com/batcher/batcher/internal/container"
	"github.com/batcher/batcher/internal/events"
)

// DefaultStopTimeout is how long Stop waits for a container to exit
// gracefully before the daemon sends it SIGKILL.
const DefaultStopTimeout = 10 * time.Second

// Runner executes one Step against a container.Daemon, posting exactly
// one terminal event to the log per step (§4.5); DisplayTaskFailure and
// FinishTask post none. It holds no state of its
// own beyond its collaborators, so the same Runner serves every worker
// goroutine in the execution manager's pool.
type Runner struct {
	Daemon      container.Daemon
	Log         *events.Log
	Sink        events.Sink
	ProjectName string
	TaskName    string
	Stdout      io.Writer
	Stderr      io.Writer
}

// Run executes s and returns the terminal event it posted, or a zero Event
// for steps that post none.
func (r *Runner) Run(ctx context.Context, s Step) events.Event {
	switch s.Kind {
	case BeginTask:
		return r.Log.Post(events.New(events.TaskStarted, ""))

	case CreateTaskNetwork:
		id, err := r.Daemon.CreateBridgeNetwork(ctx)
		if err != nil {
			return r.Log.Post(events.New(events.TaskNetworkCreationFailed, "").WithError(err))
		}
		return r.Log.Post(events.New(events.TaskNetworkCreated, "").WithNetworkID(id))

	case BuildImage:
		imageID, err := r.Daemon.Build(ctx, r.ProjectName, s.Container, s.Image, func(line string) {
			r.Log.Post(events.New(events.ImageBuildProgress, s.Container).WithProgress(line))
		})
		if err != nil {
			return r.Log.Post(events.New(events.ImageBuildFailed, s.Container).WithError(err))
		}
		return r.Log.Post(events.New(events.ImageBuilt, s.Container).WithImageID(imageID))

	case PullImage:
		imageID, err := r.Daemon.Pull(ctx, s.ImageRef)
		if err != nil {
			return r.Log.Post(events.New(events.ImagePullFailed, s.Container).WithImageRef(s.ImageRef).WithError(err))
		}
		return r.Log.Post(events.New(events.ImagePulled, s.Container).WithImageRef(s.ImageRef).WithImageID(imageID))

	case CreateContainer:
		handle, err := r.Daemon.Create(ctx, s.Image, container.ContainerConfig{
			Name:       s.Container,
			Image:      s.Image,
			Command:    s.Command,
			Env:        s.Env,
			WorkingDir: s.WorkingDir,
			Volumes:    s.Volumes,
			Ports:      s.Ports,
			Network:    s.NetworkID,
		})
		if err != nil {
			return r.Log.Post(events.New(events.ContainerCreationFailed, s.Container).WithError(err))
		}
		return r.Log.Post(events.New(events.ContainerCreated, s.Container).WithHandle(handle))

	case StartContainer:
		if err := r.Daemon.Start(ctx, s.Handle); err != nil {
			return r.Log.Post(events.New(events.ContainerStartFailed, s.Container).WithHandle(s.Handle).WithError(err))
		}
		return r.Log.Post(events.New(events.ContainerStarted, s.Container).WithHandle(s.Handle))

	case RunContainer:
		result, err := r.Daemon.Run(ctx, s.Handle, r.Stdout, r.Stderr)
		if err != nil {
			return r.Log.Post(events.New(events.ContainerStartFailed, s.Container).WithHandle(s.Handle).WithError(err))
		}
		return r.Log.Post(events.New(events.RunningContainerExited, s.Container).WithHandle(s.Handle).WithExitCode(result.ExitCode))

	case WaitForHealthy:
		status, err := r.Daemon.WaitForHealthStatus(ctx, s.Handle)
		if err != nil {
			return r.Log.Post(events.New(events.ContainerNotHealthy, s.Container).WithHandle(s.Handle).WithError(err))
		}
		switch status {
		case container.NoHealthCheck, container.BecameHealthy:
			return r.Log.Post(events.New(events.ContainerBecameHealthy, s.Container).WithHandle(s.Handle))
		default:
			return r.Log.Post(events.New(events.ContainerNotHealthy, s.Container).WithHandle(s.Handle).WithMessage("container "+status.String()))
		}

	case StopContainer:
		if err := r.Daemon.Stop(ctx, s.Handle, DefaultStopTimeout); err != nil {
			return r.Log.Post(events.New(events.ContainerStopFailed, s.Container).WithHandle(s.Handle).WithError(err))
		}
		return r.Log.Post(events.New(events.ContainerStopped, s.Container).WithHandle(s.Handle))

	case RemoveContainer:
		if err := r.Daemon.Remove(ctx, s.Handle); err != nil && err != container.ErrContainerDoesNotExist {
			return r.Log.Post(events.New(events.ContainerRemovalFailed, s.Container).WithHandle(s.Handle).WithError(err))
		}
		return r.Log.Post(events.New(events.ContainerRemoved, s.Container).WithHandle(s.Handle))

	case CleanUpContainer:
		if err := r.Daemon.ForciblyRemove(ctx, s.Handle); err != nil && err != container.ErrContainerDoesNotExist {
			return r.Log.Post(events.New(events.ContainerRemovalFailed, s.Container).WithHandle(s.Handle).WithError(err))
		}
		return r.Log.Post(events.New(events.ContainerRemoved, s.Container).WithHandle(s.Handle))

	case DeleteTaskNetwork:
		if err := r.Daemon.DeleteNetwork(ctx, s.NetworkID); err != nil {
			return r.Log.Post(events.New(events.TaskNetworkDeletionFailed, "").WithNetworkID(s.NetworkID).WithError(err))
		}
		return r.Log.Post(events.New(events.TaskNetworkDeleted, "").WithNetworkID(s.NetworkID))

	case DisplayTaskFailure:
		if r.Sink != nil {
			r.Sink.OnTaskFailed(r.TaskName, s.Instructions)
		}
		return events.Event{}

	case FinishTask:
		return events.Event{}

	default:
		return events.Event{}
	}
}
