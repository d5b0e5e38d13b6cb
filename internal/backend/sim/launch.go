package sim

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/prefixscan/internal/compute"
)

// errLaunchAborted unwinds a worker spinning on another group after the
// launch faulted.
var errLaunchAborted = errors.New("launch aborted")

// launch is one kernel dispatch: groups x groupSize workers.
type launch struct {
	name      string
	groups    int
	groupSize int
	// localSize is the number of int32 words of workgroup memory.
	localSize int
	// cooperative launches run every worker on its own goroutine so that
	// Barrier and Spin work. Other launches run a group's workers in order.
	cooperative bool
	kernel      func(it *Item)
}

// Item is the view one worker has of a running launch.
type Item struct {
	group  int
	local  int
	l      *launch
	shared []int32
	bar    *barrier
	run    *launchState
}

func (it *Item) GroupID() int    { return it.group }
func (it *Item) LocalID() int    { return it.local }
func (it *Item) GroupSize() int  { return it.l.groupSize }
func (it *Item) NumGroups() int  { return it.l.groups }
func (it *Item) Shared() []int32 { return it.shared }

// Barrier blocks until every worker of the group has reached it.
func (it *Item) Barrier() {
	if it.bar == nil {
		panic("barrier in non-cooperative launch " + it.l.name)
	}
	it.bar.wait()
}

// Spin busy-waits until cond holds, yielding the processor between polls.
func (it *Item) Spin(cond func() bool) {
	for !cond() {
		if it.run.aborted.Load() {
			panic(errLaunchAborted)
		}
		runtime.Gosched()
	}
}

type launchState struct {
	aborted atomic.Bool
	once    sync.Once
	cause   error
}

func (s *launchState) fail(err error) {
	s.once.Do(func() { s.cause = err })
	s.aborted.Store(true)
}

// execute runs l to completion. At most d.resident groups are in flight at
// once, dispatched in d's dispatch order.
func (d *Device) execute(l *launch) error {
	if l.groups == 0 {
		return nil
	}
	st := &launchState{}
	g := new(errgroup.Group)
	g.SetLimit(d.resident)
	for _, gid := range d.dispatchOrder(l.groups) {
		g.Go(func() error {
			if st.aborted.Load() {
				return nil
			}
			d.runGroup(l, gid, st)
			return nil
		})
	}
	_ = g.Wait()
	return st.cause
}

func (d *Device) runGroup(l *launch, gid int, st *launchState) {
	var shared []int32
	if l.localSize > 0 {
		shared = make([]int32, l.localSize)
	}

	if !l.cooperative {
		defer func() {
			if rec := recover(); rec != nil {
				st.fail(compute.ExecutionError(l.name, rec))
			}
		}()
		for lid := range l.groupSize {
			l.kernel(&Item{group: gid, local: lid, l: l, shared: shared, run: st})
		}
		return
	}

	bar := newBarrier(l.groupSize)
	var wg sync.WaitGroup
	wg.Add(l.groupSize)
	for lid := range l.groupSize {
		it := &Item{group: gid, local: lid, l: l, shared: shared, bar: bar, run: st}
		go func() {
			defer wg.Done()
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				bar.abort()
				if rec == errGroupAborted || rec == errLaunchAborted {
					return
				}
				st.fail(compute.ExecutionError(l.name, rec))
			}()
			l.kernel(it)
		}()
	}
	wg.Wait()
}
