//go:build webgpu

// Package webgpu runs the prefix scan kernels on a GPU through WebGPU. Each
// kernel is generated as WGSL for the requested launch shape and cached as a
// compute pipeline.
package webgpu

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/samcharles93/prefixscan/internal/compute"
	"github.com/samcharles93/prefixscan/internal/logger"
)

// Device owns one WebGPU adapter, device and queue. Launches wait for their
// dependencies on their own goroutine and then run on the GPU one at a time.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	log      logger.Logger

	// gpu serializes encoding, submission and polling.
	gpu       sync.Mutex
	pipelines map[string]*wgpu.ComputePipeline

	allocs  atomic.Int64
	kernels atomic.Int64

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

var _ compute.Queue = (*Device)(nil)

// New opens the first high-performance adapter, falling back to the
// default one.
func New(log logger.Logger) (*Device, error) {
	if log == nil {
		log = logger.Discard()
	}
	instance := wgpu.CreateInstance(nil)
	if instance == nil {
		return nil, fmt.Errorf("%w: failed to create WebGPU instance", compute.ErrAllocation)
	}
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil || adapter == nil {
		log.Debug("high performance adapter unavailable", "error", err)
		adapter, err = instance.RequestAdapter(nil)
	}
	if err != nil || adapter == nil {
		instance.Release()
		return nil, fmt.Errorf("%w: no WebGPU adapter: %v", compute.ErrAllocation, err)
	}
	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %v", compute.ErrAllocation, err)
	}
	info := adapter.GetInfo()
	log = log.With("device", "webgpu", "adapter", info.Name)
	log.Info("webgpu device ready", "vendor", info.VendorName)

	return &Device{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     device.GetQueue(),
		log:       log,
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

func (d *Device) Name() string {
	return "webgpu"
}

func (d *Device) AllocInt32(n int) (compute.Buffer, error) {
	return d.alloc(n, compute.Int32)
}

func (d *Device) AllocFloat32(n int) (compute.Buffer, error) {
	return d.alloc(n, compute.Float32)
}

// alloc creates a storage buffer. WebGPU zero-initializes new buffers.
func (d *Device) alloc(n int, kind compute.Kind) (compute.Buffer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: invalid element count %d", compute.ErrAllocation, n)
	}
	raw, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("%s[%d]", kind, n),
		Size:  uint64(n) * 4,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create buffer of %d elements: %v", compute.ErrAllocation, n, err)
	}
	d.allocs.Add(1)
	return &buffer{dev: d, raw: raw, n: n, kind: kind}, nil
}

func (d *Device) submit(name string, deps []*compute.Event, run func() error) (*compute.Event, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, compute.SubmissionError(name, "queue is closed")
	}
	d.inflight.Add(1)
	d.mu.Unlock()

	ev := compute.NewEvent()
	go func() {
		defer d.inflight.Done()
		if err := compute.WaitAll(context.Background(), deps...); err != nil {
			ev.Complete(fmt.Errorf("%s: dependency failed: %w", name, err))
			return
		}
		ev.Complete(d.onGPU(name, run))
	}()
	return ev, nil
}

func (d *Device) onGPU(name string, run func() error) (err error) {
	d.gpu.Lock()
	defer d.gpu.Unlock()
	defer func() {
		if rec := recover(); rec != nil {
			err = compute.ExecutionError(name, rec)
		}
	}()
	return run()
}

// Close waits for submitted work and releases the device.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()
	d.inflight.Wait()

	d.gpu.Lock()
	defer d.gpu.Unlock()
	for key, p := range d.pipelines {
		p.Release()
		delete(d.pipelines, key)
	}
	d.queue.Release()
	d.device.Release()
	d.adapter.Release()
	d.instance.Release()
	return nil
}
