package task

import (
	"context"
	"sync"
)

// RunEvent represents different stages of one engine run
type RunEvent string

const (
	// RunEventStart indicates a run has started
	RunEventStart RunEvent = "start"

	// RunEventNativeAttempt indicates a native tool-calling attempt has started
	RunEventNativeAttempt RunEvent = "native_attempt"

	// RunEventPlanAttempt indicates a planned-execution attempt has started
	RunEventPlanAttempt RunEvent = "plan_attempt"

	// RunEventFallback indicates a strategy failed and the next one is tried
	RunEventFallback RunEvent = "fallback"

	// RunEventSuccess indicates the run produced an answer
	RunEventSuccess RunEvent = "success"

	// RunEventFailure indicates every strategy was exhausted
	RunEventFailure RunEvent = "failure"
)

// RunListener defines the interface for run event listeners
type RunListener interface {
	// OnRunEvent is called when a run event occurs
	OnRunEvent(ctx context.Context, event RunEvent, runID string, detail string, err error)
}

// RunListenerFunc is a function adapter for RunListener
type RunListenerFunc func(ctx context.Context, event RunEvent, runID string, detail string, err error)

// OnRunEvent implements the RunListener interface
func (f RunListenerFunc) OnRunEvent(ctx context.Context, event RunEvent, runID string, detail string, err error) {
	f(ctx, event, runID, detail, err)
}

// listenerSet fans events out to registered listeners. Listeners run in
// their own goroutines; a panicking listener never takes down the run.
type listenerSet struct {
	mu        sync.RWMutex
	listeners []RunListener
}

func (ls *listenerSet) add(l RunListener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.listeners = append(ls.listeners, l)
}

func (ls *listenerSet) notify(ctx context.Context, event RunEvent, runID, detail string, err error) {
	ls.mu.RLock()
	listeners := make([]RunListener, len(ls.listeners))
	copy(listeners, ls.listeners)
	ls.mu.RUnlock()

	var wg sync.WaitGroup
	for _, listener := range listeners {
		wg.Add(1)
		go func(l RunListener) {
			defer wg.Done()
			defer func() {
				_ = recover()
			}()
			l.OnRunEvent(ctx, event, runID, detail, err)
		}(listener)
	}
	wg.Wait()
}
