package sim

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func runLaunch(t *testing.T, d *Device, l *launch) {
	t.Helper()
	ev, err := d.kernel(l, nil)
	if err != nil {
		t.Fatalf("submit %s: %v", l.name, err)
	}
	if err := ev.Wait(context.Background()); err != nil {
		t.Fatalf("%s: %v", l.name, err)
	}
}

func TestBarrierIsReusable(t *testing.T) {
	t.Parallel()
	d := New(Options{})
	const (
		groups = 3
		size   = 8
		rounds = 50
	)
	results := make([]int32, groups*size)
	runLaunch(t, d, &launch{
		name:        "rotate",
		groups:      groups,
		groupSize:   size,
		localSize:   size,
		cooperative: true,
		kernel: func(it *Item) {
			shm := it.Shared()
			v := int32(it.LocalID())
			for range rounds {
				shm[it.LocalID()] = v
				it.Barrier()
				v = shm[(it.LocalID()+1)%size]
				it.Barrier()
			}
			results[it.GroupID()*size+it.LocalID()] = v
		},
	})
	for g := range groups {
		for lid := range size {
			if want := int32((lid + rounds) % size); results[g*size+lid] != want {
				t.Fatalf("group %d worker %d: got %d want %d", g, lid, results[g*size+lid], want)
			}
		}
	}
}

func TestResidentGroupsCapsConcurrency(t *testing.T) {
	t.Parallel()
	d := New(Options{ResidentGroups: 2})
	var active, peak atomic.Int32
	runLaunch(t, d, &launch{
		name:      "occupancy",
		groups:    16,
		groupSize: 1,
		kernel: func(it *Item) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			active.Add(-1)
		},
	})
	if got := peak.Load(); got > 2 {
		t.Fatalf("peak resident groups: got %d want <= 2", got)
	}
}

func TestShuffledDispatchIsSeeded(t *testing.T) {
	t.Parallel()
	const groups = 32
	want := New(Options{ShuffleDispatch: true, Seed: 9}).dispatchOrder(groups)

	d := New(Options{ShuffleDispatch: true, Seed: 9, ResidentGroups: 1})
	var (
		mu    sync.Mutex
		order []int
	)
	runLaunch(t, d, &launch{
		name:      "order",
		groups:    groups,
		groupSize: 1,
		kernel: func(it *Item) {
			mu.Lock()
			order = append(order, it.GroupID())
			mu.Unlock()
		},
	})
	if !slices.Equal(order, want) {
		t.Fatalf("dispatch order: got %v want %v", order, want)
	}
	sorted := slices.Sorted(slices.Values(order))
	for i, g := range sorted {
		if g != i {
			t.Fatalf("dispatch order is not a permutation: %v", order)
		}
	}
	if ascending := New(Options{}).dispatchOrder(4); !slices.Equal(ascending, []int{0, 1, 2, 3}) {
		t.Fatalf("default dispatch order: got %v", ascending)
	}
}

func TestBarrierInNonCooperativeLaunchFails(t *testing.T) {
	t.Parallel()
	d := New(Options{})
	ev, err := d.kernel(&launch{
		name:      "no_barrier",
		groups:    1,
		groupSize: 2,
		kernel:    func(it *Item) { it.Barrier() },
	}, nil)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := ev.Wait(context.Background()); err == nil {
		t.Fatal("expected execution error for a barrier outside a cooperative launch")
	}
}
