package compute

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompletedEventIsDone(t *testing.T) {
	t.Parallel()
	ev := Completed()
	select {
	case <-ev.Done():
	default:
		t.Fatal("completed event not done")
	}
	if err := ev.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestEventCompleteOnce(t *testing.T) {
	t.Parallel()
	ev := NewEvent()
	boom := errors.New("boom")
	ev.Complete(boom)
	ev.Complete(nil)
	if !errors.Is(ev.Err(), boom) {
		t.Fatalf("Err: got %v want %v", ev.Err(), boom)
	}
}

func TestEventThenRunsAfterCompletion(t *testing.T) {
	t.Parallel()
	ev := NewEvent()
	var calls atomic.Int32
	ev.Then(func(err error) {
		if err != nil {
			t.Errorf("unexpected err: %v", err)
		}
		calls.Add(1)
	})
	if calls.Load() != 0 {
		t.Fatal("continuation ran before completion")
	}
	ev.Complete(nil)
	if calls.Load() != 1 {
		t.Fatalf("continuation calls: got %d want 1", calls.Load())
	}

	// registered after completion: runs immediately
	ev.Then(func(error) { calls.Add(1) })
	if calls.Load() != 2 {
		t.Fatalf("late continuation calls: got %d want 2", calls.Load())
	}
}

func TestEventWaitHonorsContext(t *testing.T) {
	t.Parallel()
	ev := NewEvent()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := ev.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait: got %v want deadline exceeded", err)
	}
}

func TestJoinPropagatesFirstError(t *testing.T) {
	t.Parallel()
	a, b := NewEvent(), NewEvent()
	joined := Join(a, nil, b)
	boom := errors.New("boom")
	a.Complete(boom)
	select {
	case <-joined.Done():
		t.Fatal("joined event signalled before all dependencies")
	default:
	}
	b.Complete(nil)
	if err := joined.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("joined err: got %v want %v", err, boom)
	}
}

func TestJoinEmptyIsCompleted(t *testing.T) {
	t.Parallel()
	if err := Join().Wait(context.Background()); err != nil {
		t.Fatalf("Join(): %v", err)
	}
}

func TestWaitAll(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	ok, bad := Completed(), NewEvent()
	bad.Complete(boom)
	if err := WaitAll(context.Background(), ok, nil, bad); !errors.Is(err, boom) {
		t.Fatalf("WaitAll: got %v", err)
	}
}
