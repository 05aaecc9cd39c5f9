package container

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCLIDaemon_ImplementsDaemon(t *testing.T) {
	var _ Daemon = (*CLIDaemon)(nil)
}

func TestNewCLIDaemon(t *testing.T) {
	d := NewCLIDaemon("docker")
	if d.runtime != "docker" {
		t.Errorf("runtime = %q, want docker", d.runtime)
	}
}

func TestCLIDaemon_FullLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	runtime, err := DetectRuntime()
	if err != nil {
		t.Skip("no container runtime available")
	}
	d := NewCLIDaemon(runtime)
	ctx := context.Background()

	cfg := ContainerConfig{
		Name:    fmt.Sprintf("batcher-test-%d", time.Now().UnixNano()),
		Command: []string{"sh", "-c", "echo hello && exit 42"},
	}

	handle, err := d.Create(ctx, "alpine:latest", cfg)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	t.Cleanup(func() { d.ForciblyRemove(context.Background(), handle) })

	var stdout, stderr strings.Builder
	result, err := d.Run(ctx, handle, &stdout, &stderr)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ExitCode != 42 {
		t.Errorf("ExitCode = %d, want 42", result.ExitCode)
	}
}

func TestCLIDaemon_RemoveMissingContainerIsTolerated(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	runtime, err := DetectRuntime()
	if err != nil {
		t.Skip("no container runtime available")
	}
	d := NewCLIDaemon(runtime)

	err = d.ForciblyRemove(context.Background(), "no-such-container-ever")
	if err != nil && err != ErrContainerDoesNotExist {
		t.Errorf("ForciblyRemove on missing container = %v, want nil or ErrContainerDoesNotExist", err)
	}
}
