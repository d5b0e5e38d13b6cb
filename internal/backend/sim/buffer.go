package sim

import (
	"fmt"
	"sync/atomic"

	"github.com/samcharles93/prefixscan/internal/compute"
)

type element interface {
	int32 | float32
}

// buffer is device memory of the simulated device. Kernels address it
// directly; host transfers go through the queue.
type buffer[T element] struct {
	dev   *Device
	data  []T
	kind  compute.Kind
	freed atomic.Bool
}

func (b *buffer[T]) Len() int {
	return len(b.data)
}

func (b *buffer[T]) Kind() compute.Kind {
	return b.kind
}

func (b *buffer[T]) Free() error {
	if b == nil || !b.freed.CompareAndSwap(false, true) {
		return nil
	}
	b.dev.release(int64(len(b.data)) * 4)
	return nil
}

func (b *buffer[T]) String() string {
	return fmt.Sprintf("sim.%s[%d]", b.kind, len(b.data))
}

// resolve returns the elements addressed by v. It fails when v does not
// belong to d, holds the wrong element type, or was freed.
func resolve[T element](d *Device, v compute.View) ([]T, error) {
	if v.Buffer == nil {
		return nil, fmt.Errorf("missing buffer")
	}
	b, ok := v.Buffer.(*buffer[T])
	if !ok {
		return nil, fmt.Errorf("buffer %v does not belong to a sim device or has the wrong element type", v.Buffer)
	}
	if b.dev != d {
		return nil, fmt.Errorf("buffer %v belongs to another device", b)
	}
	if b.freed.Load() {
		return nil, fmt.Errorf("buffer %v used after free", b)
	}
	if !v.Valid() {
		return nil, fmt.Errorf("%v out of range for %v", v, b)
	}
	return b.data[v.Offset : v.Offset+v.Length : v.Offset+v.Length], nil
}
