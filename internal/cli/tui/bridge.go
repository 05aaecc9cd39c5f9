package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/batcher/batcher/internal/events"
)

// Bridge adapts the events.Sink interface onto a running bubbletea
// program by translating each notification into a tea.Msg and sending it
// through the program's message loop.
type Bridge struct {
	program *tea.Program
}

// NewBridge wraps program.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

func (b *Bridge) OnTaskStarting(name string) {
	b.program.Send(TaskStartingMsg{Name: name})
}

func (b *Bridge) OnStepStarting(description string) {
	b.program.Send(StepStartingMsg{Description: description})
}

func (b *Bridge) OnEventPosted(e events.Event) {
	b.program.Send(EventPostedMsg{Event: e})
}

func (b *Bridge) OnTaskFailed(name, manualCleanupInstructions string) {
	b.program.Send(TaskFailedMsg{Name: name, Instructions: manualCleanupInstructions})
}

// SendDone tells the program to quit once the run has fully finished.
func (b *Bridge) SendDone() {
	b.program.Send(DoneMsg{})
}

var _ events.Sink = (*Bridge)(nil)
