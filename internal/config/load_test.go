package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "batcher.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFile_HappyPath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project_name: demo
containers:
  svc:
    image: alpine
tasks:
  t:
    run:
      container: svc
      command: echo hi
`)

	cfg, warnings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("expected no warnings, got %v", warnings)
	}
	if cfg.ProjectName != "demo" {
		t.Errorf("ProjectName = %q, want demo", cfg.ProjectName)
	}
	task := cfg.Tasks["t"]
	if task == nil {
		t.Fatal("task 't' not found")
	}
	if got, want := task.Run.Command, []string{"echo", "hi"}; !equalSlices(got, want) {
		t.Errorf("Run.Command = %v, want %v", got, want)
	}
}

func TestLoadFile_MissingContainerReference(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project_name: demo
containers:
  svc:
    image: alpine
tasks:
  t:
    run:
      container: nope
`)

	_, _, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error for missing container reference")
	}
}

func TestLoadFile_SelfDependency(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project_name: demo
containers:
  svc:
    image: alpine
    dependencies: [svc]
tasks:
  t:
    run:
      container: svc
`)

	_, _, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected error for self-dependency")
	}
}

func TestLoadFile_StartAliasMergedWithWarning(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
project_name: demo
containers:
  db:
    image: postgres
  svc:
    image: alpine
    dependencies: [db]
    start: [db]
tasks:
  t:
    run:
      container: svc
`)

	cfg, warnings, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one warning, got %v", warnings)
	}
	if got := cfg.Containers["svc"].DependsOn; !equalSlices(got, []string{"db"}) {
		t.Errorf("DependsOn = %v, want [db]", got)
	}
}

func equalSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
