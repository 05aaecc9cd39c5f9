package container

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrNoRuntime is returned when no container runtime is found.
var ErrNoRuntime = errors.New("no container runtime found (need docker or podman)")

// runtimeOverrideEnvVar pins DetectRuntime to a single runtime, bypassing
// the docker/podman probe order below. Useful in CI images that carry both
// binaries but only have one of them actually wired up to a daemon.
const runtimeOverrideEnvVar = "BATCHER_CONTAINER_RUNTIME"

// DetectRuntime finds an available container runtime, preferring docker
// and falling back to podman. It confirms the binary actually works by
// running "<runtime> version" rather than trusting PATH alone. If
// BATCHER_CONTAINER_RUNTIME is set, only that runtime is probed.
func DetectRuntime() (string, error) {
	candidates := []string{"docker", "podman"}
	if override := os.Getenv(runtimeOverrideEnvVar); override != "" {
		candidates = []string{override}
	}

	for _, bin := range candidates {
		if _, err := exec.LookPath(bin); err != nil {
			continue
		}
		if err := exec.Command(bin, "version").Run(); err != nil {
			continue
		}
		return bin, nil
	}
	if override := os.Getenv(runtimeOverrideEnvVar); override != "" {
		return "", fmt.Errorf("%s=%s: %w", runtimeOverrideEnvVar, override, ErrNoRuntime)
	}
	return "", ErrNoRuntime
}
