package cli

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// SignalHandler cancels a context on SIGINT/SIGTERM so the engine can stop
// dispatching new run-stage steps and move straight to cleanup (§5).
type SignalHandler struct {
	signals  chan os.Signal
	shutdown chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	cancel   context.CancelFunc
}

// NewSignalHandler creates a handler that calls cancel on the first
// SIGINT or SIGTERM it receives.
func NewSignalHandler(cancel context.CancelFunc) *SignalHandler {
	return &SignalHandler{
		signals:  make(chan os.Signal, 1),
		shutdown: make(chan struct{}),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		cancel:   cancel,
	}
}

// Start begins listening for signals.
func (h *SignalHandler) Start() {
	signal.Notify(h.signals, syscall.SIGINT, syscall.SIGTERM)

	started := make(chan struct{})
	go func() {
		defer close(h.done)
		close(started)

		select {
		case <-h.signals:
			if h.cancel != nil {
				h.cancel()
			}
			close(h.shutdown)
		case <-h.stopCh:
			return
		}
	}()
	<-started
}

// Wait blocks until a signal has triggered shutdown.
func (h *SignalHandler) Wait() { <-h.shutdown }

// Stop stops listening for signals and releases the handler's goroutine.
func (h *SignalHandler) Stop() {
	signal.Stop(h.signals)
	h.stopOnce.Do(func() { close(h.stopCh) })
	select {
	case <-h.done:
	case <-time.After(100 * time.Millisecond):
	}
}
