package container

import (
	"os/exec"
	"testing"
)

func TestDetectRuntime_FindsDocker(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not available")
	}

	runtime, err := DetectRuntime()
	if err != nil {
		t.Fatalf("DetectRuntime() failed: %v", err)
	}
	if runtime != "docker" {
		t.Errorf("expected docker, got %s", runtime)
	}
}

func TestDetectRuntime_FindsPodman(t *testing.T) {
	if _, err := exec.LookPath("docker"); err == nil {
		t.Skip("docker is available, podman fallback not tested")
	}
	if _, err := exec.LookPath("podman"); err != nil {
		t.Skip("podman not available")
	}

	runtime, err := DetectRuntime()
	if err != nil {
		t.Fatalf("DetectRuntime() failed: %v", err)
	}
	if runtime != "podman" {
		t.Errorf("expected podman, got %s", runtime)
	}
}

func TestDetectRuntime_VerifiesBinaryWorks(t *testing.T) {
	runtime, err := DetectRuntime()
	if err != nil {
		t.Skip("no container runtime available")
	}

	if err := exec.Command(runtime, "version").Run(); err != nil {
		t.Errorf("%s version failed: %v", runtime, err)
	}
}
