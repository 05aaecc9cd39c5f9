package step

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/batcher/batcher/internal/container"
	"github.com/batcher/batcher/internal/events"
)

// fakeDaemon is a scripted container.Daemon for testing the step runner's
// event mapping without a real container runtime.
type fakeDaemon struct {
	pullImageID string
	pullErr     error

	createHandle string
	createErr    error

	startErr error

	runResult container.RunResult
	runErr    error

	healthStatus container.HealthStatus
	healthErr    error

	stopErr   error
	removeErr error
}

func (f *fakeDaemon) Build(context.Context, string, string, string, func(string)) (string, error) {
	return "", nil
}
func (f *fakeDaemon) Pull(context.Context, string) (string, error) { return f.pullImageID, f.pullErr }
func (f *fakeDaemon) CreateBridgeNetwork(context.Context) (string, error) {
	return "net-1", nil
}
func (f *fakeDaemon) DeleteNetwork(context.Context, string) error { return nil }
func (f *fakeDaemon) Create(context.Context, string, container.ContainerConfig) (string, error) {
	return f.createHandle, f.createErr
}
func (f *fakeDaemon) Start(context.Context, string) error { return f.startErr }
func (f *fakeDaemon) Run(context.Context, string, io.Writer, io.Writer) (container.RunResult, error) {
	return f.runResult, f.runErr
}
func (f *fakeDaemon) WaitForHealthStatus(context.Context, string) (container.HealthStatus, error) {
	return f.healthStatus, f.healthErr
}
func (f *fakeDaemon) Stop(context.Context, string, time.Duration) error { return f.stopErr }
func (f *fakeDaemon) Remove(context.Context, string) error              { return f.removeErr }
func (f *fakeDaemon) ForciblyRemove(context.Context, string) error      { return f.removeErr }

var _ container.Daemon = (*fakeDaemon)(nil)

func newRunner(d container.Daemon) (*Runner, *events.Log) {
	log := events.NewLog(16)
	go func() {
		for range log.Feed() {
		}
	}()
	return &Runner{Daemon: d, Log: log, Sink: events.NopSink{}, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}, log
}

func TestRunner_PullImage_Success(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{pullImageID: "img-1"})
	e := runner.Run(context.Background(), Step{Kind: PullImage, Container: "svc", ImageRef: "alpine"})
	if e.Kind != events.ImagePulled {
		t.Fatalf("Kind = %s, want ImagePulled", e.Kind)
	}
	if e.ImageID != "img-1" {
		t.Errorf("ImageID = %q, want img-1", e.ImageID)
	}
}

func TestRunner_PullImage_Failure(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{pullErr: errors.New("no such image")})
	e := runner.Run(context.Background(), Step{Kind: PullImage, Container: "svc", ImageRef: "ghost"})
	if e.Kind != events.ImagePullFailed {
		t.Fatalf("Kind = %s, want ImagePullFailed", e.Kind)
	}
}

func TestRunner_CreateContainer_Success(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{createHandle: "h-1"})
	e := runner.Run(context.Background(), Step{Kind: CreateContainer, Container: "svc"})
	if e.Kind != events.ContainerCreated || e.Handle != "h-1" {
		t.Fatalf("got %+v, want ContainerCreated with handle h-1", e)
	}
}

func TestRunner_RunContainer_Exits(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{runResult: container.RunResult{ExitCode: 3}})
	e := runner.Run(context.Background(), Step{Kind: RunContainer, Container: "svc", Handle: "h-1"})
	if e.Kind != events.RunningContainerExited {
		t.Fatalf("Kind = %s, want RunningContainerExited", e.Kind)
	}
	if e.ExitCode == nil || *e.ExitCode != 3 {
		t.Fatalf("ExitCode = %v, want 3", e.ExitCode)
	}
}

func TestRunner_WaitForHealthy_NoHealthCheckCountsAsHealthy(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{healthStatus: container.NoHealthCheck})
	e := runner.Run(context.Background(), Step{Kind: WaitForHealthy, Container: "svc", Handle: "h-1"})
	if e.Kind != events.ContainerBecameHealthy {
		t.Fatalf("Kind = %s, want ContainerBecameHealthy", e.Kind)
	}
}

func TestRunner_WaitForHealthy_Unhealthy(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{healthStatus: container.BecameUnhealthy})
	e := runner.Run(context.Background(), Step{Kind: WaitForHealthy, Container: "svc", Handle: "h-1"})
	if e.Kind != events.ContainerNotHealthy {
		t.Fatalf("Kind = %s, want ContainerNotHealthy", e.Kind)
	}
}

func TestRunner_RemoveContainer_MissingIsSuccess(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{removeErr: container.ErrContainerDoesNotExist})
	e := runner.Run(context.Background(), Step{Kind: RemoveContainer, Container: "svc", Handle: "h-1"})
	if e.Kind != events.ContainerRemoved {
		t.Fatalf("Kind = %s, want ContainerRemoved", e.Kind)
	}
}

func TestRunner_BeginTask_PostsTaskStarted(t *testing.T) {
	runner, _ := newRunner(&fakeDaemon{})
	e := runner.Run(context.Background(), Step{Kind: BeginTask})
	if e.Kind != events.TaskStarted {
		t.Fatalf("Kind = %s, want TaskStarted", e.Kind)
	}
}
