package events

import (
	"sync"
	"time"
)

// Log is the append-only, totally-ordered event log for one task run
// (§4.2). It is thread-safe for concurrent Post calls from worker
// goroutines; Snapshot and Filter give the planner a consistent,
// point-in-time ordered view. No eviction, no replay semantics.
type Log struct {
	mu     sync.Mutex
	events []Event

	// feed delivers every posted event, in posting order, to the
	// execution manager's single reader goroutine (§4.6 step 3: "Block on
	// the next posted event"). §9 notes a channel-of-events design is an
	// acceptable alternative to a bare mutex-guarded slice; this log uses
	// both, since the manager needs to block-and-wait while the planner
	// needs a stable point-in-time slice.
	feed chan Event
}

// NewLog creates an empty log. capacity bounds the internal feed channel;
// workers block posting once it is full, which is the intended
// backpressure point if the manager falls behind.
func NewLog(capacity int) *Log {
	return &Log{feed: make(chan Event, capacity)}
}

// Post appends event to the log (stamping its Time) and delivers it on the
// feed channel. Safe for concurrent use by multiple step runners.
func (l *Log) Post(e Event) Event {
	e.Time = time.Now()

	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()

	l.feed <- e
	return e
}

// Feed returns the channel the execution manager reads posted events from.
func (l *Log) Feed() <-chan Event { return l.feed }

// Close shuts down the feed channel. Callers must stop posting before
// calling Close.
func (l *Log) Close() { close(l.feed) }

// Snapshot returns an ordered copy of every event posted so far.
func (l *Log) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Filter returns, in posting order, every event whose Kind is in kinds.
func (l *Log) Filter(kinds ...Kind) []Event {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []Event
	for _, e := range l.Snapshot() {
		if want[e.Kind] {
			out = append(out, e)
		}
	}
	return out
}

// ForContainer returns, in posting order, every event concerning container.
func (l *Log) ForContainer(container string) []Event {
	var out []Event
	for _, e := range l.Snapshot() {
		if e.Container == container {
			out = append(out, e)
		}
	}
	return out
}
