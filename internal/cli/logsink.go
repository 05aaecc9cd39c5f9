package cli

import (
	"fmt"
	"io"

	"github.com/batcher/batcher/internal/events"
)

// LineSink is the simple, non-interactive UI sink: one line per
// notification, in the teacher's plain-logger style. Used when
// --simple-output is passed, --no-color or --quiet is set, or stdout is not
// a TTY.
type LineSink struct {
	Out   io.Writer
	Quiet bool
}

func (s *LineSink) OnTaskStarting(name string) {
	if s.Quiet {
		return
	}
	fmt.Fprintf(s.Out, "Running task %s...\n", name)
}

func (s *LineSink) OnStepStarting(description string) {
	if s.Quiet {
		return
	}
	fmt.Fprintf(s.Out, "  -> %s\n", description)
}

func (s *LineSink) OnEventPosted(e events.Event) {
	if s.Quiet && !e.IsFailure() {
		return
	}
	fmt.Fprintln(s.Out, e.String())
}

func (s *LineSink) OnTaskFailed(name, manualCleanupInstructions string) {
	fmt.Fprintf(s.Out, "Task %s failed.\n", name)
	if manualCleanupInstructions != "" {
		fmt.Fprint(s.Out, manualCleanupInstructions)
	}
}

var _ events.Sink = (*LineSink)(nil)
