package plan

import (
	"fmt"
	"strings"

	"github.com/batcher/batcher/internal/events"
	"github.com/batcher/batcher/internal/graph"
	"github.com/batcher/batcher/internal/step"
)

// containerCleanupState is a container's position in the cleanup-stage
// teardown sequence (§4.4). Unlike the run-stage states, a container here
// never fails out of the sequence — clean-up is best-effort: a failed stop
// escalates to a forcible removal, and a failed removal is recorded for the
// manual clean-up instructions rather than retried.
type containerCleanupState int

const (
	untouched containerCleanupState = iota // never created, nothing to tear down
	needsStop
	needsRemove
	needsForceRemove // a plain stop failed; escalate
	cleaned
)

// Cleanup derives the cleanup-stage steps ready to dispatch (§4.4). It
// tears containers down in reverse dependency order — a container is only
// stopped once every container that depends on it has already been
// removed — then deletes the task network, then, if anything failed along
// the way, surfaces manual clean-up instructions before finishing.
//
// runSucceeded is the run stage's terminal success signal (plan.Signal.Success
// from Plan). On a failed run every container is forcibly removed (`rm -f`)
// instead of gracefully removed; a container that is still running is
// stopped first either way.
func Cleanup(g *graph.Graph, log []events.Event, runSucceeded bool) Result {
	networkCreated, networkID, _ := networkCreationState(log)

	var ready []step.Step
	var failures []string
	allCleaned := true

	for _, node := range g.Nodes() {
		cs, handle := cleanupState(log, node.Name)
		switch cs {
		case untouched, cleaned:
			if cs != cleaned {
				continue
			}
		case needsStop:
			if dependentsCleaned(g, log, node.Name) {
				ready = append(ready, step.Step{Kind: step.StopContainer, Container: node.Name, Handle: handle})
			}
			allCleaned = false
			continue
		case needsRemove:
			kind := step.RemoveContainer
			if !runSucceeded {
				kind = step.CleanUpContainer
			}
			ready = append(ready, step.Step{Kind: kind, Container: node.Name, Handle: handle})
			allCleaned = false
			continue
		case needsForceRemove:
			ready = append(ready, step.Step{Kind: step.CleanUpContainer, Container: node.Name, Handle: handle})
			allCleaned = false
			continue
		}

		if removalFailed(log, node.Name) {
			failures = append(failures, node.Name)
		}
	}

	if !allCleaned {
		return Result{ReadySteps: ready}
	}

	networkDeleted, networkDeleteFailed := networkDeletionState(log)
	if networkCreated && !networkDeleted {
		if networkDeleteFailed {
			failures = append(failures, "task network")
		} else {
			return Result{ReadySteps: append(ready, step.Step{Kind: step.DeleteTaskNetwork, NetworkID: networkID})}
		}
	}

	success := len(failures) == 0
	if !success {
		ready = append(ready, step.Step{
			Kind:         step.DisplayTaskFailure,
			Instructions: manualCleanupInstructions(failures),
		})
	}
	ready = append(ready, step.Step{Kind: step.FinishTask})

	return Result{ReadySteps: ready, Terminal: Signal{Done: true, Success: success}}
}

func cleanupState(log []events.Event, name string) (containerCleanupState, string) {
	handle, hasHandle := handleFor(log, name)
	if !hasHandle {
		if !created(eventsFor(log, name)) {
			return untouched, ""
		}
	}

	es := eventsFor(log, name)

	if hasKindFor(es, events.ContainerRemoved) || hasKindFor(es, events.ContainerRemovalFailed) {
		return cleaned, handle
	}
	if hasKindFor(es, events.ContainerStopFailed) {
		return needsForceRemove, handle
	}
	if hasKindFor(es, events.ContainerStopped) || exited(es) || onlyCreated(es) {
		return needsRemove, handle
	}
	if started(es) || healthyOrWaiting(es) {
		return needsStop, handle
	}
	// Created but creation itself may have been the last event; anything
	// that reached Created without starting can be removed directly.
	if created(es) {
		return needsRemove, handle
	}
	return untouched, ""
}

func onlyCreated(es []events.Event) bool {
	return created(es) && !started(es) && !exited(es)
}

func healthyOrWaiting(es []events.Event) bool {
	for _, e := range es {
		if e.Kind == events.ContainerBecameHealthy || e.Kind == events.ContainerNotHealthy {
			return true
		}
	}
	return false
}

func hasKindFor(es []events.Event, kind events.Kind) bool {
	for _, e := range es {
		if e.Kind == kind {
			return true
		}
	}
	return false
}

func removalFailed(log []events.Event, name string) bool {
	return hasKindFor(eventsFor(log, name), events.ContainerRemovalFailed)
}

// dependentsCleaned reports whether every container that depends on name
// has already been fully removed, so name is safe to stop.
func dependentsCleaned(g *graph.Graph, log []events.Event, name string) bool {
	for _, dep := range g.Successors(name) {
		cs, _ := cleanupState(log, dep)
		if cs != untouched && cs != cleaned {
			return false
		}
	}
	return true
}

func networkCreationState(log []events.Event) (created bool, id string, failed bool) {
	return networkState(log)
}

func networkDeletionState(log []events.Event) (deleted, failed bool) {
	for _, e := range log {
		switch e.Kind {
		case events.TaskNetworkDeleted:
			deleted = true
		case events.TaskNetworkDeletionFailed:
			failed = true
		}
	}
	return
}

// manualCleanupInstructions renders the operator-facing remediation text
// for resources clean-up could not remove itself (§4.4).
func manualCleanupInstructions(failed []string) string {
	var b strings.Builder
	b.WriteString("batcher could not automatically clean up the following resources; remove them manually:\n")
	for _, name := range failed {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	return b.String()
}
