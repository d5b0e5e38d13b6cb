//go:build webgpu

package webgpu

import (
	"fmt"
	"sync/atomic"

	"github.com/openfluke/webgpu/wgpu"

	"github.com/samcharles93/prefixscan/internal/compute"
)

type buffer struct {
	dev   *Device
	raw   *wgpu.Buffer
	n     int
	kind  compute.Kind
	freed atomic.Bool
}

func (b *buffer) Len() int           { return b.n }
func (b *buffer) Kind() compute.Kind { return b.kind }

func (b *buffer) Free() error {
	if b.freed.Swap(true) {
		return nil
	}
	b.dev.gpu.Lock()
	defer b.dev.gpu.Unlock()
	b.raw.Destroy()
	b.raw.Release()
	return nil
}

// resolve checks that v addresses a live buffer of this device holding
// elements of kind k.
func (d *Device) resolve(v compute.View, k compute.Kind) (*buffer, error) {
	if v.Buffer == nil {
		return nil, fmt.Errorf("missing buffer")
	}
	b, ok := v.Buffer.(*buffer)
	if !ok || b.dev != d {
		return nil, fmt.Errorf("buffer belongs to another device")
	}
	if b.freed.Load() {
		return nil, fmt.Errorf("buffer already freed")
	}
	if b.kind != k {
		return nil, fmt.Errorf("element kind %s, want %s", b.kind, k)
	}
	if !v.Valid() {
		return nil, fmt.Errorf("%s out of range for buffer of %d", v, b.n)
	}
	return b, nil
}

func (d *Device) WriteInt32(dst compute.View, src []int32, deps []*compute.Event) (*compute.Event, error) {
	return hostWrite(d, "write_int32", dst, compute.Int32, src, deps)
}

func (d *Device) ReadInt32(dst []int32, src compute.View, deps []*compute.Event) (*compute.Event, error) {
	return hostRead(d, "read_int32", dst, src, compute.Int32, deps)
}

func (d *Device) WriteFloat32(dst compute.View, src []float32, deps []*compute.Event) (*compute.Event, error) {
	return hostWrite(d, "write_float32", dst, compute.Float32, src, deps)
}

func (d *Device) ReadFloat32(dst []float32, src compute.View, deps []*compute.Event) (*compute.Event, error) {
	return hostRead(d, "read_float32", dst, src, compute.Float32, deps)
}

func hostWrite[T int32 | float32](d *Device, name string, dst compute.View, k compute.Kind, src []T, deps []*compute.Event) (*compute.Event, error) {
	b, err := d.resolve(dst, k)
	if err != nil {
		return nil, compute.SubmissionError(name, "%v", err)
	}
	if len(src) != dst.Length {
		return nil, fmt.Errorf("%w: %s: host has %d elements, device view %d", compute.ErrSizeMismatch, name, len(src), dst.Length)
	}
	return d.submit(name, deps, func() error {
		if len(src) == 0 {
			return nil
		}
		d.queue.WriteBuffer(b.raw, uint64(dst.Offset)*4, wgpu.ToBytes(src))
		return nil
	})
}

func hostRead[T int32 | float32](d *Device, name string, dst []T, src compute.View, k compute.Kind, deps []*compute.Event) (*compute.Event, error) {
	b, err := d.resolve(src, k)
	if err != nil {
		return nil, compute.SubmissionError(name, "%v", err)
	}
	if len(dst) != src.Length {
		return nil, fmt.Errorf("%w: %s: host has %d elements, device view %d", compute.ErrSizeMismatch, name, len(dst), src.Length)
	}
	return d.submit(name, deps, func() error {
		if len(dst) == 0 {
			return nil
		}
		size := uint64(len(dst)) * 4
		staging, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "read_staging",
			Size:  size,
			Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%w: staging buffer: %v", compute.ErrAllocation, err)
		}
		defer staging.Release()
		defer staging.Destroy()

		enc, err := d.device.CreateCommandEncoder(nil)
		if err != nil {
			return compute.ExecutionError(name, err)
		}
		enc.CopyBufferToBuffer(b.raw, uint64(src.Offset)*4, staging, 0, size)
		cmd, err := enc.Finish(nil)
		if err != nil {
			return compute.ExecutionError(name, err)
		}
		d.queue.Submit(cmd)

		var mapErr error
		mapped := false
		err = staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
			if status != wgpu.BufferMapAsyncStatusSuccess {
				mapErr = fmt.Errorf("map failed: %v", status)
			}
			mapped = true
		})
		if err != nil {
			return compute.ExecutionError(name, err)
		}
		for !mapped {
			d.device.Poll(true, nil)
		}
		if mapErr != nil {
			return compute.ExecutionError(name, mapErr)
		}
		copy(dst, wgpu.FromBytes[T](staging.GetMappedRange(0, uint(size))))
		staging.Unmap()
		return nil
	})
}
