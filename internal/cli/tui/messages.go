// Package tui is the interactive, full-screen progress display (§6): a
// bubbletea program driven by a Bridge that translates engine
// notifications into tea.Msg values.
package tui

import "github.com/batcher/batcher/internal/events"

// TaskStartingMsg announces the task name once the run begins.
type TaskStartingMsg struct{ Name string }

// StepStartingMsg announces a step description as it is dispatched.
type StepStartingMsg struct{ Description string }

// EventPostedMsg carries a raw engine event through to the model so it
// can update per-container status lines.
type EventPostedMsg struct{ Event events.Event }

// TaskFailedMsg carries the manual clean-up instructions, if any, shown
// once the cleanup stage finishes after a failure.
type TaskFailedMsg struct {
	Name         string
	Instructions string
}

// DoneMsg tells the program to quit.
type DoneMsg struct{}
