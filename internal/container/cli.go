package container

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CLIDaemon implements Daemon by shelling out to the docker or podman CLI
// (§6). Both runtimes accept the same subcommands used here, so one
// implementation serves both.
type CLIDaemon struct {
	runtime string // "docker" or "podman"
}

// NewCLIDaemon creates a Daemon that drives runtime ("docker" or
// "podman"). Use DetectRuntime to choose one automatically.
func NewCLIDaemon(runtime string) *CLIDaemon {
	return &CLIDaemon{runtime: runtime}
}

var _ Daemon = (*CLIDaemon)(nil)

func (d *CLIDaemon) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, d.runtime, args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s %s: %s", d.runtime, args[0], strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s %s: %w", d.runtime, args[0], err)
	}
	return strings.TrimSpace(string(output)), nil
}

// Build builds containerName's image from buildDir, streaming build
// progress lines to onProgress, and resolves the built image ID.
func (d *CLIDaemon) Build(ctx context.Context, projectName, containerName, buildDir string, onProgress func(string)) (string, error) {
	tag := fmt.Sprintf("%s-%s", projectName, containerName)
	cmd := exec.CommandContext(ctx, d.runtime, "build", "-t", tag, buildDir)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("build %s: %w", containerName, err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("build %s: %w", containerName, err)
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		if onProgress != nil {
			onProgress(scanner.Text())
		}
	}

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("build %s: %w", containerName, err)
	}

	return d.run(ctx, "inspect", "--format", "{{.Id}}", tag)
}

// Pull fetches ref and resolves its image ID.
func (d *CLIDaemon) Pull(ctx context.Context, ref string) (string, error) {
	if _, err := d.run(ctx, "pull", ref); err != nil {
		return "", err
	}
	return d.run(ctx, "inspect", "--format", "{{.Id}}", ref)
}

// CreateBridgeNetwork creates an isolated network named after a random
// identifier so concurrent task runs never collide.
func (d *CLIDaemon) CreateBridgeNetwork(ctx context.Context) (string, error) {
	name := "batcher-" + uuid.NewString()
	return d.run(ctx, "network", "create", "--driver", "bridge", name)
}

// DeleteNetwork removes a task network.
func (d *CLIDaemon) DeleteNetwork(ctx context.Context, networkID string) error {
	_, err := d.run(ctx, "network", "rm", networkID)
	return err
}

// Create creates a container from image but does not start it.
func (d *CLIDaemon) Create(ctx context.Context, image string, cfg ContainerConfig) (string, error) {
	args := []string{"create", "--name", cfg.Name, "--network", cfg.Network}

	for k, v := range cfg.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}
	if cfg.WorkingDir != "" {
		args = append(args, "-w", cfg.WorkingDir)
	}
	for _, v := range cfg.Volumes {
		mode := v.Mode
		if mode == "" {
			mode = "rw"
		}
		args = append(args, "-v", fmt.Sprintf("%s:%s:%s", v.HostPath, v.ContainerPath, mode))
	}
	for _, p := range cfg.Ports {
		args = append(args, "-p", fmt.Sprintf("%d:%d", p.HostPort, p.ContainerPort))
	}

	args = append(args, image)
	args = append(args, cfg.Command...)

	return d.run(ctx, args...)
}

// Start starts a previously created dependency container.
func (d *CLIDaemon) Start(ctx context.Context, handle string) error {
	_, err := d.run(ctx, "start", handle)
	return err
}

// Run starts the task container and blocks until it exits, forwarding its
// combined stdio to stdout and stderr.
func (d *CLIDaemon) Run(ctx context.Context, handle string, stdout, stderr io.Writer) (RunResult, error) {
	cmd := exec.CommandContext(ctx, d.runtime, "start", "--attach", handle)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()

	code, inspectErr := d.run(ctx, "inspect", "--format", "{{.State.ExitCode}}", handle)
	if inspectErr != nil {
		return RunResult{}, fmt.Errorf("run %s: %w", handle, inspectErr)
	}
	exitCode, err := strconv.Atoi(code)
	if err != nil {
		return RunResult{}, fmt.Errorf("run %s: parse exit code %q: %w", handle, code, err)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return RunResult{}, fmt.Errorf("run %s: %w", handle, runErr)
		}
	}

	return RunResult{ExitCode: exitCode}, nil
}

// WaitForHealthStatus blocks (via a short poll loop, since the CLI has no
// blocking "wait for healthy" primitive) until the container's health
// check settles or it has none.
func (d *CLIDaemon) WaitForHealthStatus(ctx context.Context, handle string) (HealthStatus, error) {
	status, err := d.run(ctx, "inspect", "--format", "{{.State.Health.Status}}", handle)
	if err != nil || status == "<no value>" || status == "" {
		return NoHealthCheck, nil
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		switch status {
		case "healthy":
			return BecameHealthy, nil
		case "unhealthy":
			return BecameUnhealthy, nil
		}

		running, err := d.run(ctx, "inspect", "--format", "{{.State.Running}}", handle)
		if err != nil {
			return NoHealthCheck, err
		}
		if running == "false" {
			return Exited, nil
		}

		select {
		case <-ctx.Done():
			return NoHealthCheck, ctx.Err()
		case <-ticker.C:
		}

		status, err = d.run(ctx, "inspect", "--format", "{{.State.Health.Status}}", handle)
		if err != nil {
			return NoHealthCheck, err
		}
	}
}

// Stop stops a running container within timeout.
func (d *CLIDaemon) Stop(ctx context.Context, handle string, timeout time.Duration) error {
	_, err := d.run(ctx, "stop", "-t", strconv.Itoa(int(timeout.Seconds())), handle)
	return err
}

// Remove removes a stopped container.
func (d *CLIDaemon) Remove(ctx context.Context, handle string) error {
	_, err := d.run(ctx, "rm", handle)
	return wrapMissing(err)
}

// ForciblyRemove removes a container regardless of state, tolerating it
// already being gone.
func (d *CLIDaemon) ForciblyRemove(ctx context.Context, handle string) error {
	_, err := d.run(ctx, "rm", "-f", handle)
	return wrapMissing(err)
}

func wrapMissing(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "No such container") {
		return ErrContainerDoesNotExist
	}
	return err
}
