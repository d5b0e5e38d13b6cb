package sim

import (
	"fmt"
	"sync/atomic"

	"github.com/samcharles93/prefixscan/internal/compute"
)

// GroupState is a stream scan group's position in the hand-off protocol.
type GroupState int

const (
	StateStarted GroupState = iota
	StateLocalScanComputed
	StateWaitingForPredecessor
	StatePublished
	StateDone
)

func (s GroupState) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateLocalScanComputed:
		return "local_scan_computed"
	case StateWaitingForPredecessor:
		return "waiting_for_predecessor"
	case StatePublished:
		return "published"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// TraceEvent records one state transition of a stream scan group. Group is
// the launch index the device assigned, Block the sequential id the group
// claimed.
type TraceEvent struct {
	Group int
	Block int
	State GroupState
}

func (d *Device) kernel(l *launch, deps []*compute.Event) (*compute.Event, error) {
	d.kernels.Add(1)
	d.log.Debug("launch", "kernel", l.name, "groups", l.groups, "group_size", l.groupSize)
	return d.submit(l.name, deps, func() error { return d.execute(l) })
}

func checkLaunch(name string, cfg compute.LaunchConfig) error {
	if err := cfg.Validate(); err != nil {
		return compute.SubmissionError(name, "%v", err)
	}
	return nil
}

// loadChunk stages a worker's elements of chunk base into src. Exclusive
// mode reads one element to the left; out-of-range reads are zero.
func loadChunk(it *Item, cfg compute.LaunchConfig, mode compute.Mode, n, base int, in, src []int32) {
	bt := cfg.GroupSize
	shift := mode.Shift()
	for i := range cfg.ElementsPerWorker {
		lidx := i*bt + it.LocalID()
		gidx := base + lidx - shift
		var v int32
		if gidx >= 0 && gidx < n {
			v = in[gidx]
		}
		src[lidx] = v
	}
}

// scanLocal runs the reversed-addressing ping-pong passes over the staged
// chunk and returns the half that holds the inclusive scan.
func scanLocal(it *Item, cfg compute.LaunchConfig, src, dst []int32) []int32 {
	be := cfg.BlockCapacity()
	bt := cfg.GroupSize
	for stride := 1; stride < be; stride *= 2 {
		for i := range cfg.ElementsPerWorker {
			d := be - (i*bt + it.LocalID()) - 1
			v := src[d]
			if s := d - stride; s >= 0 {
				v += src[s]
			}
			dst[d] = v
		}
		it.Barrier()
		src, dst = dst, src
	}
	return src
}

func (d *Device) BlockScan(cfg compute.LaunchConfig, a compute.BlockScanArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "block_scan"
	if err := checkLaunch(name, cfg); err != nil {
		return nil, err
	}
	in, err := resolve[int32](d, a.In)
	if err != nil {
		return nil, compute.SubmissionError(name, "input: %v", err)
	}
	out, err := resolve[int32](d, a.Out)
	if err != nil {
		return nil, compute.SubmissionError(name, "output: %v", err)
	}
	groups := cfg.Groups(a.N)
	var sums []int32
	if !a.Sums.Empty() {
		if sums, err = resolve[int32](d, a.Sums); err != nil {
			return nil, compute.SubmissionError(name, "sums: %v", err)
		}
		if len(sums) < groups {
			return nil, compute.SubmissionError(name, "sums holds %d slots, launch has %d groups", len(sums), groups)
		}
	}
	if a.N > len(in) || a.N > len(out) {
		return nil, compute.SubmissionError(name, "n=%d exceeds views (%d in, %d out)", a.N, len(in), len(out))
	}
	inPlace := a.In.Same(a.Out)
	if !inPlace && a.In.Overlaps(a.Out) {
		return nil, compute.SubmissionError(name, "partially overlapping input and output")
	}

	be := cfg.BlockCapacity()
	n := a.N
	mode := a.Mode
	return d.kernel(&launch{
		name:        name,
		groups:      groups,
		groupSize:   cfg.GroupSize,
		localSize:   cfg.LocalSize(),
		cooperative: true,
		kernel: func(it *Item) {
			shm := it.Shared()
			src, dst := shm[:be], shm[be:2*be]
			base := it.GroupID() * be

			// In place, every group may only read its own chunk, so the
			// exclusive result is the inclusive scan minus the element itself.
			var own []int32
			if inPlace {
				loadChunk(it, cfg, compute.Inclusive, n, base, in, src)
				if mode == compute.Exclusive {
					own = make([]int32, cfg.ElementsPerWorker)
					for i := range own {
						own[i] = src[i*cfg.GroupSize+it.LocalID()]
					}
				}
			} else {
				loadChunk(it, cfg, mode, n, base, in, src)
			}
			it.Barrier()

			src = scanLocal(it, cfg, src, dst)

			for i := range cfg.ElementsPerWorker {
				lidx := i*cfg.GroupSize + it.LocalID()
				gidx := base + lidx
				if gidx < n {
					v := src[lidx]
					if own != nil {
						v -= own[i]
					}
					out[gidx] = v
				}
			}
			if sums != nil && it.LocalID() == 0 {
				sums[it.GroupID()] = src[be-1]
			}
		},
	}, deps)
}

func (d *Device) AddOffsets(cfg compute.LaunchConfig, a compute.AddOffsetsArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "add_block_offsets"
	if err := checkLaunch(name, cfg); err != nil {
		return nil, err
	}
	data, err := resolve[int32](d, a.Data)
	if err != nil {
		return nil, compute.SubmissionError(name, "data: %v", err)
	}
	offsets, err := resolve[int32](d, a.Offsets)
	if err != nil {
		return nil, compute.SubmissionError(name, "offsets: %v", err)
	}
	groups := cfg.Groups(a.N)
	if len(offsets) < groups || a.N > len(data) {
		return nil, compute.SubmissionError(name, "%d offsets and %d elements for %d groups over n=%d", len(offsets), len(data), groups, a.N)
	}

	be := cfg.BlockCapacity()
	n := a.N
	return d.kernel(&launch{
		name:      name,
		groups:    groups,
		groupSize: cfg.GroupSize,
		kernel: func(it *Item) {
			offset := offsets[it.GroupID()]
			for i := range cfg.ElementsPerWorker {
				gidx := be*it.GroupID() + i*cfg.GroupSize + it.LocalID()
				if gidx < n {
					data[gidx] += offset
				}
			}
		},
	}, deps)
}

func (d *Device) StreamScan(cfg compute.LaunchConfig, a compute.StreamScanArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "stream_scan"
	if err := checkLaunch(name, cfg); err != nil {
		return nil, err
	}
	in, err := resolve[int32](d, a.In)
	if err != nil {
		return nil, compute.SubmissionError(name, "input: %v", err)
	}
	out, err := resolve[int32](d, a.Out)
	if err != nil {
		return nil, compute.SubmissionError(name, "output: %v", err)
	}
	status, err := resolve[int32](d, a.Status)
	if err != nil {
		return nil, compute.SubmissionError(name, "status: %v", err)
	}
	groups := cfg.Groups(a.N)
	if len(status) < compute.StreamStatusLen(groups) {
		return nil, compute.SubmissionError(name, "status holds %d words, need %d", len(status), compute.StreamStatusLen(groups))
	}
	if a.N > len(in) || a.N > len(out) {
		return nil, compute.SubmissionError(name, "n=%d exceeds views (%d in, %d out)", a.N, len(in), len(out))
	}
	if a.In.Overlaps(a.Out) {
		return nil, compute.SubmissionError(name, "overlapping input and output")
	}

	be := cfg.BlockCapacity()
	n := a.N
	mode := a.Mode
	trace := d.trace
	started := &status[compute.StatusStarted]
	finished := &status[compute.StatusFinished]
	partials := status[compute.StatusPartials:]
	bidSlot, prefixSlot := 2*be, 2*be+1

	return d.kernel(&launch{
		name:        name,
		groups:      groups,
		groupSize:   cfg.GroupSize,
		localSize:   cfg.LocalSize() + 2,
		cooperative: true,
		kernel: func(it *Item) {
			shm := it.Shared()
			leader := it.LocalID() == 0
			emit := func(bid int, s GroupState) {
				if trace != nil && leader {
					trace(TraceEvent{Group: it.GroupID(), Block: bid, State: s})
				}
			}

			if leader {
				shm[bidSlot] = atomic.AddInt32(started, 1) - 1
			}
			it.Barrier()
			bid := int(shm[bidSlot])
			emit(bid, StateStarted)

			src, dst := shm[:be], shm[be:2*be]
			base := bid * be
			loadChunk(it, cfg, mode, n, base, in, src)
			it.Barrier()
			src = scanLocal(it, cfg, src, dst)
			emit(bid, StateLocalScanComputed)

			if leader {
				blockSum := src[be-1]
				emit(bid, StateWaitingForPredecessor)
				it.Spin(func() bool { return atomic.LoadInt32(finished) == int32(bid) })
				prefix := atomic.LoadInt32(&partials[bid])
				atomic.StoreInt32(&partials[bid+1], prefix+blockSum)
				emit(bid, StatePublished)
				// release: the successor reads partials[bid+1] only after
				// observing this store
				atomic.StoreInt32(finished, int32(bid+1))
				shm[prefixSlot] = prefix
			}
			it.Barrier()
			prefix := shm[prefixSlot]

			for i := range cfg.ElementsPerWorker {
				lidx := i*cfg.GroupSize + it.LocalID()
				if gidx := base + lidx; gidx < n {
					out[gidx] = src[lidx] + prefix
				}
			}
			emit(bid, StateDone)
		},
	}, deps)
}

func (d *Device) ScaleAccumulate(a compute.ScaleAccumulateArgs, deps []*compute.Event) (*compute.Event, error) {
	const name = "scale_accumulate"
	x, err := resolve[float32](d, a.X)
	if err != nil {
		return nil, compute.SubmissionError(name, "x: %v", err)
	}
	y, err := resolve[float32](d, a.Y)
	if err != nil {
		return nil, compute.SubmissionError(name, "y: %v", err)
	}
	if a.N > len(x) || a.N > len(y) {
		return nil, compute.SubmissionError(name, "n=%d exceeds views (%d x, %d y)", a.N, len(x), len(y))
	}

	const bt = compute.ScaleAccumulateGroupSize
	n := a.N
	alpha := a.Alpha
	return d.kernel(&launch{
		name:      name,
		groups:    compute.CeilDiv(n, bt),
		groupSize: bt,
		kernel: func(it *Item) {
			if idx := it.GroupID()*bt + it.LocalID(); idx < n {
				y[idx] = alpha*x[idx] + y[idx]
			}
		},
	}, deps)
}
