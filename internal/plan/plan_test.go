package plan

import (
	"testing"

	"github.com/batcher/batcher/internal/config"
	"github.com/batcher/batcher/internal/events"
	"github.com/batcher/batcher/internal/graph"
	"github.com/batcher/batcher/internal/step"
)

func cfgWith(containers map[string]*config.ContainerDef, tasks map[string]*config.TaskDef) *config.Configuration {
	for name, c := range containers {
		c.Name = name
	}
	for name, t := range tasks {
		t.Name = name
	}
	return &config.Configuration{ProjectName: "demo", Containers: containers, Tasks: tasks}
}

func hasStepKind(steps []step.Step, kind step.Kind) bool {
	for _, s := range steps {
		if s.Kind == kind {
			return true
		}
	}
	return false
}

func TestPlan_FirstCallBeginsTask(t *testing.T) {
	cfg := cfgWith(map[string]*config.ContainerDef{"svc": {Image: "alpine"}},
		map[string]*config.TaskDef{"t": {Run: config.TaskRunConfig{Container: "svc"}}})
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	if err != nil {
		t.Fatal(err)
	}

	result := Plan(g, nil)
	if len(result.ReadySteps) != 1 || result.ReadySteps[0].Kind != step.BeginTask {
		t.Fatalf("ReadySteps = %v, want [BeginTask]", result.ReadySteps)
	}
}

func TestPlan_SingleContainerHappyPath(t *testing.T) {
	cfg := cfgWith(map[string]*config.ContainerDef{"svc": {Image: "alpine"}},
		map[string]*config.TaskDef{"t": {Run: config.TaskRunConfig{Container: "svc"}}})
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	if err != nil {
		t.Fatal(err)
	}

	log := []events.Event{events.New(events.TaskStarted, "")}
	result := Plan(g, log)
	if !hasStepKind(result.ReadySteps, step.CreateTaskNetwork) {
		t.Error("expected CreateTaskNetwork to be ready once task has started")
	}
	if !hasStepKind(result.ReadySteps, step.PullImage) {
		t.Error("expected PullImage to be ready once task has started")
	}

	log = append(log,
		events.New(events.TaskNetworkCreated, "").WithNetworkID("net-1"),
		events.New(events.ImagePulled, "svc").WithImageID("img-1"),
	)
	result = Plan(g, log)
	if !hasStepKind(result.ReadySteps, step.CreateContainer) {
		t.Fatalf("expected CreateContainer once image and network are ready, got %v", result.ReadySteps)
	}

	log = append(log, events.New(events.ContainerCreated, "svc").WithHandle("h-1"))
	result = Plan(g, log)
	if !hasStepKind(result.ReadySteps, step.RunContainer) {
		t.Fatalf("expected RunContainer for root once created, got %v", result.ReadySteps)
	}

	log = append(log, events.New(events.RunningContainerExited, "svc").WithExitCode(0))
	result = Plan(g, log)
	if !result.Terminal.Done || !result.Terminal.Success {
		t.Fatalf("Terminal = %+v, want Done+Success", result.Terminal)
	}
}

func TestPlan_DependencyMustBeHealthyBeforeRootCreated(t *testing.T) {
	cfg := cfgWith(map[string]*config.ContainerDef{
		"db":  {Image: "postgres"},
		"app": {Image: "app", DependsOn: []string{"db"}},
	}, map[string]*config.TaskDef{"t": {Run: config.TaskRunConfig{Container: "app"}}})
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	if err != nil {
		t.Fatal(err)
	}

	log := []events.Event{
		events.New(events.TaskStarted, ""),
		events.New(events.TaskNetworkCreated, "").WithNetworkID("net-1"),
		events.New(events.ImagePulled, "db").WithImageID("img-db"),
		events.New(events.ImagePulled, "app").WithImageID("img-app"),
	}

	result := Plan(g, log)
	if !hasStepKind(result.ReadySteps, step.CreateContainer) {
		t.Fatal("expected db to be creatable")
	}
	for _, s := range result.ReadySteps {
		if s.Kind == step.CreateContainer && s.Container == "app" {
			t.Fatal("app should not be creatable before db is healthy")
		}
	}

	log = append(log,
		events.New(events.ContainerCreated, "db").WithHandle("h-db"),
		events.New(events.ContainerStarted, "db"),
	)
	result = Plan(g, log)
	// db has no health check, so it is healthy as soon as it starts —
	// app should now be creatable.
	found := false
	for _, s := range result.ReadySteps {
		if s.Kind == step.CreateContainer && s.Container == "app" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected app creatable once db (no health check) has started, got %v", result.ReadySteps)
	}
}

func TestPlan_ContainerFailurePropagatesTerminal(t *testing.T) {
	cfg := cfgWith(map[string]*config.ContainerDef{"svc": {Image: "alpine"}},
		map[string]*config.TaskDef{"t": {Run: config.TaskRunConfig{Container: "svc"}}})
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	if err != nil {
		t.Fatal(err)
	}

	log := []events.Event{
		events.New(events.TaskStarted, ""),
		events.New(events.TaskNetworkCreated, "").WithNetworkID("net-1"),
		events.New(events.ImagePullFailed, "svc").WithMessage("no such image"),
	}
	result := Plan(g, log)
	if !result.Terminal.Done || result.Terminal.Success {
		t.Fatalf("Terminal = %+v, want Done+Failure", result.Terminal)
	}
	if result.Terminal.FailedContainer != "svc" {
		t.Errorf("FailedContainer = %q, want svc", result.Terminal.FailedContainer)
	}
}

func TestCleanup_TearsDownCreatedContainerAndNetwork(t *testing.T) {
	cfg := cfgWith(map[string]*config.ContainerDef{"svc": {Image: "alpine"}},
		map[string]*config.TaskDef{"t": {Run: config.TaskRunConfig{Container: "svc"}}})
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	if err != nil {
		t.Fatal(err)
	}

	log := []events.Event{
		events.New(events.TaskStarted, ""),
		events.New(events.TaskNetworkCreated, "").WithNetworkID("net-1"),
		events.New(events.ImagePulled, "svc").WithImageID("img-1"),
		events.New(events.ContainerCreated, "svc").WithHandle("h-1"),
		events.New(events.RunningContainerExited, "svc").WithExitCode(0),
	}

	result := Cleanup(g, log, true)
	if !hasStepKind(result.ReadySteps, step.RemoveContainer) {
		t.Fatalf("expected RemoveContainer for a successful run's exited container, got %v", result.ReadySteps)
	}

	log = append(log, events.New(events.ContainerRemoved, "svc"))
	result = Cleanup(g, log, true)
	if !hasStepKind(result.ReadySteps, step.DeleteTaskNetwork) {
		t.Fatalf("expected DeleteTaskNetwork once container removed, got %v", result.ReadySteps)
	}

	log = append(log, events.New(events.TaskNetworkDeleted, "").WithNetworkID("net-1"))
	result = Cleanup(g, log, true)
	if !result.Terminal.Done || !result.Terminal.Success {
		t.Fatalf("Terminal = %+v, want Done+Success", result.Terminal)
	}
	if !hasStepKind(result.ReadySteps, step.FinishTask) {
		t.Fatalf("expected FinishTask on the final cleanup call, got %v", result.ReadySteps)
	}
}

func TestCleanup_FailedRunForciblyRemovesEvenACleanlyStoppedContainer(t *testing.T) {
	// Scenario 3: a dependency's health check reports unhealthy. db started
	// and stopped cleanly, but because the run stage failed, db must be
	// forcibly removed rather than gracefully removed.
	cfg := cfgWith(map[string]*config.ContainerDef{
		"db":  {Image: "postgres"},
		"app": {Image: "app", DependsOn: []string{"db"}},
	}, map[string]*config.TaskDef{"t": {Run: config.TaskRunConfig{Container: "app"}}})
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	if err != nil {
		t.Fatal(err)
	}

	log := []events.Event{
		events.New(events.TaskStarted, ""),
		events.New(events.TaskNetworkCreated, "").WithNetworkID("net-1"),
		events.New(events.ContainerCreated, "db").WithHandle("h-db"),
		events.New(events.ContainerStarted, "db"),
		events.New(events.ContainerNotHealthy, "db").WithMessage("unhealthy"),
		events.New(events.ContainerStopped, "db"),
	}

	result := Cleanup(g, log, false)
	var gotKind step.Kind
	for _, s := range result.ReadySteps {
		if s.Container == "db" {
			gotKind = s.Kind
		}
	}
	if gotKind != step.CleanUpContainer {
		t.Fatalf("db step kind = %v, want CleanUpContainer (forcible) on a failed run", gotKind)
	}
	if hasStepKind(result.ReadySteps, step.RemoveContainer) {
		t.Fatalf("did not expect a graceful RemoveContainer on a failed run, got %v", result.ReadySteps)
	}
}

func TestCleanup_SurfacesManualInstructionsOnFailure(t *testing.T) {
	cfg := cfgWith(map[string]*config.ContainerDef{"svc": {Image: "alpine"}},
		map[string]*config.TaskDef{"t": {Run: config.TaskRunConfig{Container: "svc"}}})
	g, err := graph.Build(cfg, cfg.Tasks["t"])
	if err != nil {
		t.Fatal(err)
	}

	log := []events.Event{
		events.New(events.TaskStarted, ""),
		events.New(events.TaskNetworkCreated, "").WithNetworkID("net-1"),
		events.New(events.ImagePulled, "svc").WithImageID("img-1"),
		events.New(events.ContainerCreated, "svc").WithHandle("h-1"),
		events.New(events.RunningContainerExited, "svc").WithExitCode(1),
		events.New(events.ContainerRemovalFailed, "svc").WithMessage("device busy"),
		events.New(events.TaskNetworkDeleted, "").WithNetworkID("net-1"),
	}

	result := Cleanup(g, log, false)
	if !result.Terminal.Done || result.Terminal.Success {
		t.Fatalf("Terminal = %+v, want Done+Failure", result.Terminal)
	}
	if !hasStepKind(result.ReadySteps, step.DisplayTaskFailure) {
		t.Fatalf("expected DisplayTaskFailure when a removal failed, got %v", result.ReadySteps)
	}
}
