// Package engine implements the Parallel Execution Manager (§4.6): the
// dispatch loop that drives a Stage Planner, fans ready steps out to a
// bounded worker pool, and feeds posted events back to the UI sink and
// the next planning pass.
package engine

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/batcher/batcher/internal/events"
	"github.com/batcher/batcher/internal/graph"
	"github.com/batcher/batcher/internal/plan"
	"github.com/batcher/batcher/internal/step"
)

// DefaultConcurrency bounds how many steps the manager runs at once when
// the caller does not specify one.
const DefaultConcurrency = 8

// Outcome is the final result of a task run: cleanup has finished
// regardless of whether the task container itself succeeded.
type Outcome struct {
	ExitCode         int
	TaskSucceeded    bool
	CleanupSucceeded bool
}

// Manager drives one task's run stage through to completion and then its
// cleanup stage, dispatching steps onto a bounded pool of goroutines.
type Manager struct {
	Graph       *graph.Graph
	Log         *events.Log
	Runner      *step.Runner
	Sink        events.Sink
	Concurrency int
}

// Run executes the run stage followed by the cleanup stage, returning
// once both have reached a terminal state (§5: "cleanup happens
// unconditionally"). A cancelled ctx stops dispatching new steps but lets
// already-running ones and the cleanup stage still execute, matching the
// SIGINT behaviour described in §5.
func (m *Manager) Run(ctx context.Context) (Outcome, error) {
	concurrency := m.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	sem := semaphore.NewWeighted(int64(concurrency))

	var wg sync.WaitGroup
	dispatched := make(map[string]bool)

	// Steps run on a context that ctx's cancellation does not reach, so an
	// interrupt stops new dispatches without killing in-flight steps or the
	// cleanup stage.
	stepCtx := context.WithoutCancel(ctx)

	dispatch := func(s step.Step) {
		id := s.Identity()
		if dispatched[id] {
			return
		}
		dispatched[id] = true

		if s.Kind == step.DisplayTaskFailure || s.Kind == step.FinishTask {
			m.Sink.OnStepStarting(describe(s))
			m.Runner.Run(stepCtx, s)
			return
		}

		m.Sink.OnStepStarting(describe(s))
		wg.Add(1)
		if err := sem.Acquire(context.Background(), 1); err != nil {
			wg.Done()
			return
		}
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			m.Runner.Run(stepCtx, s)
		}()
	}

	// A single goroutine forwards every posted event to the UI sink and
	// wakes the planning loop (via tick), for the lifetime of the whole
	// task run. It must never stop draining m.Log.Feed() while workers
	// might still post to it — otherwise a worker finishing mid-wg.Wait()
	// would block forever trying to post into a full channel.
	tick := make(chan struct{}, 1)
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		for e := range m.Log.Feed() {
			m.Sink.OnEventPosted(e)
			select {
			case tick <- struct{}{}:
			default:
			}
		}
	}()

	runResult, runErr := m.drive(ctx, dispatch, &wg, tick, func(log []events.Event) plan.Result {
		return plan.Plan(m.Graph, log)
	})

	runSucceeded := runErr == nil && runResult.Terminal.Success
	cleanupResult, err := m.drive(stepCtx, dispatch, &wg, tick, func(log []events.Event) plan.Result {
		return plan.Cleanup(m.Graph, log, runSucceeded)
	})

	m.Log.Close()
	<-feedDone
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		ExitCode:         runResult.Terminal.ExitCode,
		TaskSucceeded:    runSucceeded,
		CleanupSucceeded: cleanupResult.Terminal.Success,
	}, runErr
}

// drive runs one stage's plan/dispatch/await loop to a terminal signal.
// tick is signalled by the event-forwarding goroutine whenever the log
// grows, so the loop only replans when there is something new to see.
func (m *Manager) drive(ctx context.Context, dispatch func(step.Step), wg *sync.WaitGroup, tick <-chan struct{}, planStage func([]events.Event) plan.Result) (plan.Result, error) {
	for {
		result := planStage(m.Log.Snapshot())
		for _, s := range result.ReadySteps {
			dispatch(s)
		}

		if result.Terminal.Done {
			wg.Wait()
			return result, nil
		}

		select {
		case <-tick:
		case <-ctx.Done():
			wg.Wait()
			return result, ctx.Err()
		}
	}
}

// describe renders a one-line human description of a step for the UI
// sink's "starting" notification.
func describe(s step.Step) string {
	switch s.Kind {
	case step.BeginTask:
		return "starting task"
	case step.CreateTaskNetwork:
		return "creating task network"
	case step.BuildImage:
		return fmt.Sprintf("building %s", s.Container)
	case step.PullImage:
		return fmt.Sprintf("pulling %s", s.ImageRef)
	case step.CreateContainer:
		return fmt.Sprintf("creating %s", s.Container)
	case step.StartContainer:
		return fmt.Sprintf("starting %s", s.Container)
	case step.RunContainer:
		return fmt.Sprintf("running %s", s.Container)
	case step.WaitForHealthy:
		return fmt.Sprintf("waiting for %s to become healthy", s.Container)
	case step.StopContainer:
		return fmt.Sprintf("stopping %s", s.Container)
	case step.RemoveContainer, step.CleanUpContainer:
		return fmt.Sprintf("removing %s", s.Container)
	case step.DeleteTaskNetwork:
		return "deleting task network"
	case step.DisplayTaskFailure:
		return "displaying clean-up failure"
	case step.FinishTask:
		return "finishing task"
	default:
		return string(s.Kind)
	}
}
