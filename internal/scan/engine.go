// Package scan implements device-wide prefix sums on top of a
// compute.Queue: a multi-level strategy built from block scans and offset
// propagation, and a single-launch decoupled look-back strategy.
package scan

import (
	"fmt"
	"sync"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
)

// Engine submits scans to one queue. Scratch memory it allocates is owned
// by a single call and released after that call's completion event.
// Methods are safe for concurrent use.
type Engine struct {
	q   compute.Queue
	cfg Config
	log logger.Logger

	releases sync.WaitGroup
}

func New(q compute.Queue, cfg Config, log logger.Logger) (*Engine, error) {
	if q == nil {
		return nil, fmt.Errorf("scan engine requires a queue")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{
		q:   q,
		cfg: cfg,
		log: log.With("queue", q.Name(), "launch", cfg.Launch.String()),
	}, nil
}

func (e *Engine) Queue() compute.Queue {
	return e.q
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Close waits until every deferred scratch release has run. It does not
// close the queue.
func (e *Engine) Close() error {
	e.releases.Wait()
	return nil
}

// ExclusiveScan writes out[i] = in[0] + ... + in[i-1] (out[0] = 0) using
// the configured strategy.
func (e *Engine) ExclusiveScan(n int, in, out compute.Buffer, deps ...*compute.Event) (*compute.Event, error) {
	return e.Scan(e.cfg.Strategy, compute.Exclusive, n, compute.Whole(in), compute.Whole(out), deps...)
}

// InclusiveScan writes out[i] = in[0] + ... + in[i] using the configured
// strategy.
func (e *Engine) InclusiveScan(n int, in, out compute.Buffer, deps ...*compute.Event) (*compute.Event, error) {
	return e.Scan(e.cfg.Strategy, compute.Inclusive, n, compute.Whole(in), compute.Whole(out), deps...)
}

func (e *Engine) ExclusiveRecursiveScan(n int, in, out compute.Buffer, deps ...*compute.Event) (*compute.Event, error) {
	return e.Scan(Recursive, compute.Exclusive, n, compute.Whole(in), compute.Whole(out), deps...)
}

func (e *Engine) InclusiveRecursiveScan(n int, in, out compute.Buffer, deps ...*compute.Event) (*compute.Event, error) {
	return e.Scan(Recursive, compute.Inclusive, n, compute.Whole(in), compute.Whole(out), deps...)
}

func (e *Engine) ExclusiveStreamScan(n int, in, out compute.Buffer, deps ...*compute.Event) (*compute.Event, error) {
	return e.Scan(Stream, compute.Exclusive, n, compute.Whole(in), compute.Whole(out), deps...)
}

func (e *Engine) InclusiveStreamScan(n int, in, out compute.Buffer, deps ...*compute.Event) (*compute.Event, error) {
	return e.Scan(Stream, compute.Inclusive, n, compute.Whole(in), compute.Whole(out), deps...)
}

// Scan scans n elements of in into out. Both views must hold exactly n
// int32 elements and must not overlap. The returned event signals when out
// is complete; for n == 0 it has already signalled.
func (e *Engine) Scan(strategy Strategy, mode compute.Mode, n int, in, out compute.View, deps ...*compute.Event) (*compute.Event, error) {
	if err := checkScanArgs(n, in, out); err != nil {
		return nil, err
	}
	if n == 0 {
		return compute.Completed(), nil
	}
	switch strategy {
	case Recursive:
		return e.recursive(mode, n, in, out, deps)
	case Stream:
		return e.stream(mode, n, in, out, deps)
	default:
		return nil, fmt.Errorf("unknown scan strategy %d", int(strategy))
	}
}

// ScaleAccumulate computes y = alpha*x + y over n float32 elements.
func (e *Engine) ScaleAccumulate(n int, alpha float32, x, y compute.Buffer, deps ...*compute.Event) (*compute.Event, error) {
	xv, yv := compute.Whole(x), compute.Whole(y)
	if n < 0 {
		return nil, fmt.Errorf("%w: negative element count %d", compute.ErrSizeMismatch, n)
	}
	if n == 0 && viewLen(xv) == 0 && viewLen(yv) == 0 {
		return compute.Completed(), nil
	}
	if err := compute.CheckView("x", xv, compute.Float32, n); err != nil {
		return nil, err
	}
	if err := compute.CheckView("y", yv, compute.Float32, n); err != nil {
		return nil, err
	}
	if n == 0 {
		return compute.Completed(), nil
	}
	return e.q.ScaleAccumulate(compute.ScaleAccumulateArgs{N: n, Alpha: alpha, X: xv, Y: yv}, localDeps(deps))
}

func checkScanArgs(n int, in, out compute.View) error {
	if n < 0 {
		return fmt.Errorf("%w: negative element count %d", compute.ErrSizeMismatch, n)
	}
	if n == 0 && viewLen(in) == 0 && viewLen(out) == 0 {
		return nil
	}
	if err := compute.CheckView("input", in, compute.Int32, n); err != nil {
		return err
	}
	if err := compute.CheckView("output", out, compute.Int32, n); err != nil {
		return err
	}
	if in.Overlaps(out) {
		return fmt.Errorf("%w: %s and %s", compute.ErrAliasing, in, out)
	}
	return nil
}

func viewLen(v compute.View) int {
	if v.Buffer == nil {
		return 0
	}
	return v.Length
}

// localDeps copies the caller's dependency list so that nothing retains
// the caller's slice.
func localDeps(deps []*compute.Event) []*compute.Event {
	if len(deps) == 0 {
		return nil
	}
	out := make([]*compute.Event, 0, len(deps))
	for _, d := range deps {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
