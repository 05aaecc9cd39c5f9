package plan

import (
	"github.com/batcher/batcher/internal/events"
	"github.com/batcher/batcher/internal/graph"
	"github.com/batcher/batcher/internal/step"
)

// Signal reports whether the run stage has reached a terminal outcome
// (§4.3: "success", "failure", or "none" — keep planning).
type Signal struct {
	Done            bool
	Success         bool
	FailedContainer string
	ExitCode        int
}

// Result is what one Plan or Cleanup call returns: the steps that are
// currently safe to dispatch, and whether the stage is finished.
type Result struct {
	ReadySteps []step.Step
	Terminal   Signal
}

// Plan derives the run-stage steps that are ready to dispatch given the
// graph and the event log accumulated so far (§4.3). It is a pure
// function: called repeatedly as the log grows, it always returns the
// complete set of currently-ready steps, not just newly-ready ones — the
// execution manager is responsible for not re-dispatching a step whose
// Identity() is already in flight or already terminal.
func Plan(g *graph.Graph, log []events.Event) Result {
	if !hasKind(log, events.TaskStarted) {
		return Result{ReadySteps: []step.Step{{Kind: step.BeginTask}}}
	}

	networkReady, networkID, networkFailed := networkState(log)
	if networkFailed {
		return Result{Terminal: Signal{Done: true, Success: false}}
	}

	var ready []step.Step
	if !networkReady {
		ready = append(ready, step.Step{Kind: step.CreateTaskNetwork})
	}

	states := deriveStates(g, log, networkReady)

	for _, node := range g.Nodes() {
		switch states[node.Name] {
		case Failed:
			return Result{Terminal: Signal{Done: true, Success: false, FailedContainer: node.Name}}

		case NotStarted:
			if node.ImageSource.IsBuild() {
				ready = append(ready, step.Step{Kind: step.BuildImage, Container: node.Name, Image: node.ImageSource.BuildDirectory})
			} else {
				ready = append(ready, step.Step{Kind: step.PullImage, Container: node.Name, ImageRef: node.ImageSource.PullReference})
			}

		case ImageReady:
			// Waiting on the network and/or its dependencies; nothing to
			// dispatch for this node yet.

		case Creatable:
			ready = append(ready, step.Step{
				Kind:       step.CreateContainer,
				Container:  node.Name,
				Command:    node.Command,
				Image:      resolvedImage(log, node),
				Env:        node.Environment,
				WorkingDir: node.WorkingDir,
				Volumes:    node.Volumes,
				Ports:      node.Ports,
				NetworkID:  networkID,
			})

		case Created:
			handle, _ := handleFor(log, node.Name)
			if node.IsRoot {
				ready = append(ready, step.Step{Kind: step.RunContainer, Container: node.Name, Handle: handle})
			} else {
				ready = append(ready, step.Step{Kind: step.StartContainer, Container: node.Name, Handle: handle})
			}

		case Started:
			if !node.IsRoot && node.HasHealthCheck() {
				handle, _ := handleFor(log, node.Name)
				ready = append(ready, step.Step{Kind: step.WaitForHealthy, Container: node.Name, Handle: handle})
			}
			// Root containers are run synchronously by RunContainer; there
			// is no separate Started state to wait out for the root.

		case Healthy:
			// Terminal per-container state short of the root exiting;
			// nothing further to dispatch for this node.

		case Exited:
			if node.IsRoot {
				code, _ := lastExitCode(log, node.Name)
				return Result{Terminal: Signal{Done: true, Success: code == 0, ExitCode: code}}
			}
		}
	}

	return Result{ReadySteps: ready}
}

// resolvedImage returns the image reference or built image ID a container
// should be created from: the daemon-assigned build/pull image ID once
// known, falling back to the configured pull reference.
func resolvedImage(log []events.Event, node *graph.Node) string {
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		if e.Container == node.Name && e.ImageID != "" {
			return e.ImageID
		}
	}
	return node.ImageSource.PullReference
}

func hasKind(log []events.Event, kind events.Kind) bool {
	for _, e := range log {
		if e.Kind == kind {
			return true
		}
	}
	return false
}
