package events

// Sink is the UI event sink interface consumers implement (§6). Two
// variants are expected in this repo: a fancy bubbletea renderer
// (internal/cli/tui) and a simple line-at-a-time logger (internal/cli's
// LineSink).
type Sink interface {
	OnTaskStarting(name string)
	OnEventPosted(e Event)
	OnStepStarting(description string)
	OnTaskFailed(name string, manualCleanupInstructions string)
}

// NopSink discards everything. Useful as a default when no UI is wired
// (e.g. unit tests driving the engine directly).
type NopSink struct{}

func (NopSink) OnTaskStarting(string)          {}
func (NopSink) OnEventPosted(Event)            {}
func (NopSink) OnStepStarting(string)          {}
func (NopSink) OnTaskFailed(string, string)    {}

var _ Sink = NopSink{}
