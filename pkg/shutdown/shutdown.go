// Package shutdown provides signal handling and ordered teardown. Owners
// register closers in acquisition order; teardown runs them in reverse,
// so consumers detach before the resources they consume close.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"confmatch/pkg/logger"
)

// Stack runs registered closers last-in first-out.
type Stack struct {
	mu      sync.Mutex
	closers []func()
	done    bool
}

func NewStack() *Stack { return &Stack{} }

// Defer registers a teardown step.
func (s *Stack) Defer(name string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, func() {
		logger.Debug("teardown_step", "name", name)
		fn()
	})
}

// Close runs all registered steps in reverse order, once.
func (s *Stack) Close() {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	closers := s.closers
	s.mu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	logger.Info("teardown_complete", "steps", len(closers))
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigc:
			logger.Info("signal_received", "signal", s.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigc)
	}()
	return ctx, cancel
}
