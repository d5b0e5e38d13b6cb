package scan

import (
	"context"
	"fmt"

	"github.com/samcharles93/prefixscan/internal/compute"
)

// SubmitSlices uploads values, scans them and downloads the result without
// blocking. The returned slice holds the result once the event has
// signalled successfully. Device buffers are released after the event.
func (e *Engine) SubmitSlices(strategy Strategy, mode compute.Mode, values []int32) ([]int32, *compute.Event, error) {
	n := len(values)
	result := make([]int32, n)
	if n == 0 {
		return result, compute.Completed(), nil
	}
	in, err := e.q.AllocInt32(n)
	if err != nil {
		return nil, nil, fmt.Errorf("input buffer: %w", err)
	}
	out, err := e.q.AllocInt32(n)
	if err != nil {
		e.free(err, in)
		return nil, nil, fmt.Errorf("output buffer: %w", err)
	}

	var submitted []*compute.Event
	fail := func(err error) ([]int32, *compute.Event, error) {
		e.releaseAfter(compute.Join(submitted...), in, out)
		return nil, nil, err
	}

	wrote, err := e.q.WriteInt32(compute.Whole(in), values, nil)
	if err != nil {
		return fail(fmt.Errorf("upload: %w", err))
	}
	submitted = append(submitted, wrote)
	scanned, err := e.Scan(strategy, mode, n, compute.Whole(in), compute.Whole(out), wrote)
	if err != nil {
		return fail(err)
	}
	submitted = append(submitted, scanned)
	read, err := e.q.ReadInt32(result, compute.Whole(out), []*compute.Event{scanned})
	if err != nil {
		return fail(fmt.Errorf("download: %w", err))
	}
	e.releaseAfter(read, in, out)
	return result, read, nil
}

// Slices is the blocking form of SubmitSlices.
func (e *Engine) Slices(ctx context.Context, strategy Strategy, mode compute.Mode, values []int32) ([]int32, error) {
	result, ev, err := e.SubmitSlices(strategy, mode, values)
	if err != nil {
		return nil, err
	}
	if err := ev.Wait(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitScaleAccumulate computes alpha*x + y on the device without
// blocking. The returned slice holds the result once the event has
// signalled successfully.
func (e *Engine) SubmitScaleAccumulate(alpha float32, x, y []float32) ([]float32, *compute.Event, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("%w: x has %d elements, y has %d", compute.ErrSizeMismatch, len(x), len(y))
	}
	n := len(x)
	result := make([]float32, n)
	if n == 0 {
		return result, compute.Completed(), nil
	}
	xb, err := e.q.AllocFloat32(n)
	if err != nil {
		return nil, nil, fmt.Errorf("x buffer: %w", err)
	}
	yb, err := e.q.AllocFloat32(n)
	if err != nil {
		e.free(err, xb)
		return nil, nil, fmt.Errorf("y buffer: %w", err)
	}

	var submitted []*compute.Event
	fail := func(err error) ([]float32, *compute.Event, error) {
		e.releaseAfter(compute.Join(submitted...), xb, yb)
		return nil, nil, err
	}

	wx, err := e.q.WriteFloat32(compute.Whole(xb), x, nil)
	if err != nil {
		return fail(fmt.Errorf("upload x: %w", err))
	}
	submitted = append(submitted, wx)
	wy, err := e.q.WriteFloat32(compute.Whole(yb), y, nil)
	if err != nil {
		return fail(fmt.Errorf("upload y: %w", err))
	}
	submitted = append(submitted, wy)
	ev, err := e.ScaleAccumulate(n, alpha, xb, yb, wx, wy)
	if err != nil {
		return fail(err)
	}
	submitted = append(submitted, ev)
	read, err := e.q.ReadFloat32(result, compute.Whole(yb), []*compute.Event{ev})
	if err != nil {
		return fail(fmt.Errorf("download: %w", err))
	}
	e.releaseAfter(read, xb, yb)
	return result, read, nil
}

// ScaleAccumulateSlices is the blocking form of SubmitScaleAccumulate.
func (e *Engine) ScaleAccumulateSlices(ctx context.Context, alpha float32, x, y []float32) ([]float32, error) {
	result, ev, err := e.SubmitScaleAccumulate(alpha, x, y)
	if err != nil {
		return nil, err
	}
	if err := ev.Wait(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
