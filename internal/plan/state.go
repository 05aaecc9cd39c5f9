// Package plan implements the Stage Planner (§4.3, §4.4): two pure
// functions, Plan and Cleanup, that read a container dependency graph plus
// an event log snapshot and return the steps that are now safe to
// dispatch. Neither function keeps state between calls — both are called
// repeatedly as the event log grows, and must derive the same answer
// every time from the graph and log alone.
package plan

import (
	"github.com/batcher/batcher/internal/events"
	"github.com/batcher/batcher/internal/graph"
)

// ContainerState is a container's derived position in the run-stage
// lifecycle (§4.3). States only move forward; a Failed container never
// returns to an earlier state.
type ContainerState int

const (
	NotStarted ContainerState = iota
	ImageReady
	Creatable
	Created
	Started
	Healthy
	Exited
	Failed
)

func (s ContainerState) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case ImageReady:
		return "image_ready"
	case Creatable:
		return "creatable"
	case Created:
		return "created"
	case Started:
		return "started"
	case Healthy:
		return "healthy"
	case Exited:
		return "exited"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// imageState reports whether node's image has finished building/pulling.
// Pull events also match by image reference, since identical pulls are
// coalesced into one step whose events name only one container.
func imageState(log []events.Event, node *graph.Node) (ready, failed bool) {
	ref := node.ImageSource.PullReference
	for _, e := range log {
		if e.Container != node.Name && (ref == "" || e.ImageRef != ref) {
			continue
		}
		switch e.Kind {
		case events.ImageBuilt, events.ImagePulled:
			ready = true
		case events.ImageBuildFailed, events.ImagePullFailed:
			failed = true
		}
	}
	return
}

// networkState reports the task network's lifecycle from the log.
func networkState(log []events.Event) (created bool, networkID string, failed bool) {
	for _, e := range log {
		switch e.Kind {
		case events.TaskNetworkCreated:
			created, networkID = true, e.NetworkID
		case events.TaskNetworkCreationFailed:
			failed = true
		}
	}
	return
}

// deriveStates computes every node's current ContainerState from the log,
// resolving dependsOn against the states derived for predecessor nodes in
// the same pass (graph.Nodes() returns name-sorted, not dependency-sorted,
// order, so dependency states are looked up by name, not assumed ready).
func deriveStates(g *graph.Graph, log []events.Event, networkReady bool) map[string]ContainerState {
	states := make(map[string]ContainerState, len(g.Nodes()))

	var resolve func(name string) ContainerState
	resolving := map[string]bool{}
	resolve = func(name string) ContainerState {
		if s, ok := states[name]; ok {
			return s
		}
		if resolving[name] {
			// Cycles are rejected at graph-build time; this only guards
			// against re-entrant recursion within one derivation pass.
			return NotStarted
		}
		resolving[name] = true
		defer delete(resolving, name)

		node, _ := g.Node(name)
		s := deriveOne(node, log, networkReady, func(dep string) ContainerState { return resolve(dep) })
		states[name] = s
		return s
	}

	for _, n := range g.Nodes() {
		resolve(n.Name)
	}
	return states
}

func deriveOne(node *graph.Node, log []events.Event, networkReady bool, predecessorState func(string) ContainerState) ContainerState {
	nodeEvents := eventsFor(log, node.Name)

	if hasFailure(nodeEvents) {
		return Failed
	}
	if exited(nodeEvents) {
		return Exited
	}
	if healthy(nodeEvents, node) {
		return Healthy
	}
	if started(nodeEvents) {
		return Started
	}
	if created(nodeEvents) {
		return Created
	}

	imgReady, imgFailed := imageState(log, node)
	if imgFailed {
		return Failed
	}

	allDepsHealthy := true
	for _, dep := range node.DependsOn() {
		if predecessorState(dep) != Healthy {
			allDepsHealthy = false
			break
		}
	}

	if imgReady && networkReady && allDepsHealthy {
		return Creatable
	}
	if imgReady {
		return ImageReady
	}
	return NotStarted
}

func eventsFor(log []events.Event, container string) []events.Event {
	var out []events.Event
	for _, e := range log {
		if e.Container == container {
			out = append(out, e)
		}
	}
	return out
}

func hasFailure(es []events.Event) bool {
	for _, e := range es {
		if e.IsFailure() {
			return true
		}
	}
	return false
}

func created(es []events.Event) bool {
	for _, e := range es {
		if e.Kind == events.ContainerCreated {
			return true
		}
	}
	return false
}

func started(es []events.Event) bool {
	for _, e := range es {
		if e.Kind == events.ContainerStarted {
			return true
		}
	}
	return false
}

func exited(es []events.Event) bool {
	for _, e := range es {
		if e.Kind == events.RunningContainerExited {
			return true
		}
	}
	return false
}

// healthy reports whether a container counts as healthy: an explicit
// became_healthy event, or a started container with no configured health
// check (§4.3: "containers without a health check are treated as healthy
// as soon as they start").
func healthy(es []events.Event, node *graph.Node) bool {
	for _, e := range es {
		if e.Kind == events.ContainerBecameHealthy {
			return true
		}
	}
	if !node.HasHealthCheck() {
		return started(es)
	}
	return false
}

// handleFor returns the daemon handle recorded for container, if any.
func handleFor(log []events.Event, container string) (string, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		if e.Container == container && e.Handle != "" {
			return e.Handle, true
		}
	}
	return "", false
}

// lastExitCode returns the exit code recorded for container's
// RunningContainerExited event, if any.
func lastExitCode(log []events.Event, container string) (int, bool) {
	for i := len(log) - 1; i >= 0; i-- {
		e := log[i]
		if e.Container == container && e.Kind == events.RunningContainerExited && e.ExitCode != nil {
			return *e.ExitCode, true
		}
	}
	return 0, false
}
