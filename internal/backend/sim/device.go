// Package sim is a software SIMT device: workgroups of goroutines that
// share local memory and synchronize on a group barrier, device memory
// with allocation accounting, and an asynchronous queue whose launches
// are ordered only by their dependency events.
package sim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
)

// Options configures a simulated device.
type Options struct {
	// ResidentGroups caps how many groups of one launch run concurrently.
	// Zero means GOMAXPROCS.
	ResidentGroups int
	// ShuffleDispatch launches groups in a pseudo-random order derived from
	// Seed instead of ascending group id.
	ShuffleDispatch bool
	Seed            uint64
	// MemoryLimit caps live device memory in bytes. Zero means unlimited.
	MemoryLimit int64
	// Trace, when set, receives stream scan group state transitions.
	Trace  func(TraceEvent)
	Logger logger.Logger
}

// Stats is a snapshot of device counters.
type Stats struct {
	Allocations    int64
	LiveBytes      int64
	Submissions    int64
	KernelLaunches int64
}

// Device is a simulated device and its (out-of-order) command queue.
type Device struct {
	resident    int
	shuffle     bool
	memoryLimit int64
	trace       func(TraceEvent)
	log         logger.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	allocs      atomic.Int64
	live        atomic.Int64
	submissions atomic.Int64
	kernels     atomic.Int64

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

var _ compute.Queue = (*Device)(nil)

func New(opts Options) *Device {
	resident := opts.ResidentGroups
	if resident < 1 {
		resident = max(runtime.GOMAXPROCS(0), 1)
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Device{
		resident:    resident,
		shuffle:     opts.ShuffleDispatch,
		memoryLimit: opts.MemoryLimit,
		trace:       opts.Trace,
		log:         log.With("device", "sim"),
		rng:         rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
}

func (d *Device) Name() string {
	return "sim"
}

// ResidentGroups reports the concurrency cap applied to every launch.
func (d *Device) ResidentGroups() int {
	return d.resident
}

func (d *Device) Stats() Stats {
	return Stats{
		Allocations:    d.allocs.Load(),
		LiveBytes:      d.live.Load(),
		Submissions:    d.submissions.Load(),
		KernelLaunches: d.kernels.Load(),
	}
}

func (d *Device) AllocInt32(n int) (compute.Buffer, error) {
	if err := d.reserve(n); err != nil {
		return nil, err
	}
	return &buffer[int32]{dev: d, data: make([]int32, n), kind: compute.Int32}, nil
}

func (d *Device) AllocFloat32(n int) (compute.Buffer, error) {
	if err := d.reserve(n); err != nil {
		return nil, err
	}
	return &buffer[float32]{dev: d, data: make([]float32, n), kind: compute.Float32}, nil
}

func (d *Device) reserve(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: device alloc size must be > 0", compute.ErrAllocation)
	}
	bytes := int64(n) * 4
	for {
		live := d.live.Load()
		if d.memoryLimit > 0 && live+bytes > d.memoryLimit {
			return fmt.Errorf("%w: %d bytes requested, %d of %d in use", compute.ErrAllocation, bytes, live, d.memoryLimit)
		}
		if d.live.CompareAndSwap(live, live+bytes) {
			break
		}
	}
	d.allocs.Add(1)
	return nil
}

func (d *Device) release(bytes int64) {
	d.live.Add(-bytes)
}

func (d *Device) dispatchOrder(groups int) []int {
	if !d.shuffle {
		order := make([]int, groups)
		for i := range order {
			order[i] = i
		}
		return order
	}
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	return d.rng.Perm(groups)
}

// submit schedules run after deps. The returned event carries run's error,
// or the first dependency error.
func (d *Device) submit(name string, deps []*compute.Event, run func() error) (*compute.Event, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, compute.SubmissionError(name, "queue closed")
	}
	d.inflight.Add(1)
	d.mu.Unlock()

	pending := make([]*compute.Event, 0, len(deps))
	for _, dep := range deps {
		if dep != nil {
			pending = append(pending, dep)
		}
	}

	ev := compute.NewEvent()
	d.submissions.Add(1)
	go func() {
		defer d.inflight.Done()
		if err := compute.WaitAll(context.Background(), pending...); err != nil {
			ev.Complete(fmt.Errorf("%s: dependency failed: %w", name, err))
			return
		}
		ev.Complete(run())
	}()
	return ev, nil
}

// Close waits for submitted work and rejects further submissions.
func (d *Device) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.inflight.Wait()
	return nil
}

func (d *Device) WriteInt32(dst compute.View, src []int32, deps []*compute.Event) (*compute.Event, error) {
	return hostWrite(d, "write_int32", dst, src, deps)
}

func (d *Device) ReadInt32(dst []int32, src compute.View, deps []*compute.Event) (*compute.Event, error) {
	return hostRead(d, "read_int32", dst, src, deps)
}

func (d *Device) WriteFloat32(dst compute.View, src []float32, deps []*compute.Event) (*compute.Event, error) {
	return hostWrite(d, "write_float32", dst, src, deps)
}

func (d *Device) ReadFloat32(dst []float32, src compute.View, deps []*compute.Event) (*compute.Event, error) {
	return hostRead(d, "read_float32", dst, src, deps)
}

func hostWrite[T element](d *Device, name string, dst compute.View, src []T, deps []*compute.Event) (*compute.Event, error) {
	mem, err := resolve[T](d, dst)
	if err != nil {
		return nil, compute.SubmissionError(name, "%v", err)
	}
	if len(src) != len(mem) {
		return nil, fmt.Errorf("%w: %s: host has %d elements, device view %d", compute.ErrSizeMismatch, name, len(src), len(mem))
	}
	return d.submit(name, deps, func() error {
		copy(mem, src)
		return nil
	})
}

func hostRead[T element](d *Device, name string, dst []T, src compute.View, deps []*compute.Event) (*compute.Event, error) {
	mem, err := resolve[T](d, src)
	if err != nil {
		return nil, compute.SubmissionError(name, "%v", err)
	}
	if len(dst) != len(mem) {
		return nil, fmt.Errorf("%w: %s: host has %d elements, device view %d", compute.ErrSizeMismatch, name, len(dst), len(mem))
	}
	return d.submit(name, deps, func() error {
		copy(dst, mem)
		return nil
	})
}
