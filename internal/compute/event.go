package compute

import (
	"context"
	"sync"
)

// Event is the completion handle of one submitted operation. It can be
// waited on, or passed as a dependency to later submissions.
type Event struct {
	done chan struct{}

	mu    sync.Mutex
	err   error
	fired bool
	then  []func(error)
}

// NewEvent returns a pending event. The submitter completes it exactly once.
func NewEvent() *Event {
	return &Event{done: make(chan struct{})}
}

// Completed returns an event that has already signalled success.
func Completed() *Event {
	e := NewEvent()
	e.Complete(nil)
	return e
}

// Complete signals the event and runs registered continuations on the
// calling goroutine. Calls after the first are ignored.
func (e *Event) Complete(err error) {
	e.mu.Lock()
	if e.fired {
		e.mu.Unlock()
		return
	}
	e.fired = true
	e.err = err
	then := e.then
	e.then = nil
	close(e.done)
	e.mu.Unlock()

	for _, fn := range then {
		fn(err)
	}
}

// Done is closed once the event has signalled.
func (e *Event) Done() <-chan struct{} {
	return e.done
}

// Err returns the completion error. It is nil while the event is pending.
func (e *Event) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Wait blocks until the event signals or ctx is done.
func (e *Event) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return e.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Then registers fn to run once the event signals. If it already has, fn
// runs immediately on the calling goroutine.
func (e *Event) Then(fn func(error)) {
	e.mu.Lock()
	if !e.fired {
		e.then = append(e.then, fn)
		e.mu.Unlock()
		return
	}
	err := e.err
	e.mu.Unlock()
	fn(err)
}

// WaitAll waits for every non-nil event and returns the first error seen.
func WaitAll(ctx context.Context, events ...*Event) error {
	var first error
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if err := ev.Wait(ctx); err != nil && first == nil {
			first = err
			if ctx.Err() != nil {
				return first
			}
		}
	}
	return first
}

// Join returns an event that signals after all of events have signalled.
// The first dependency error is propagated.
func Join(events ...*Event) *Event {
	pending := make([]*Event, 0, len(events))
	for _, ev := range events {
		if ev != nil {
			pending = append(pending, ev)
		}
	}
	switch len(pending) {
	case 0:
		return Completed()
	case 1:
		return pending[0]
	}

	joined := NewEvent()
	var (
		mu    sync.Mutex
		left  = len(pending)
		first error
	)
	for _, ev := range pending {
		ev.Then(func(err error) {
			mu.Lock()
			if err != nil && first == nil {
				first = err
			}
			left--
			last := left == 0
			result := first
			mu.Unlock()
			if last {
				joined.Complete(result)
			}
		})
	}
	return joined
}
