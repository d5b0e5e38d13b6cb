package scan

import (
	"fmt"

	"github.com/samcharles93/prefixscan/internal/compute"
)

// recursive runs the multi-level scan as a loop over planned levels: block
// scans walk up the levels (every level above the first is an exclusive
// scan of the sums below it), then offset propagation walks back down.
func (e *Engine) recursive(mode compute.Mode, n int, in, out compute.View, deps []*compute.Event) (*compute.Event, error) {
	cfg := e.cfg.Launch
	plan := NewPlan(n, cfg)
	e.log.Debug("recursive scan", "n", n, "mode", mode, "levels", plan.Depth(), "scratch", plan.ScratchLen)

	var scratch compute.Buffer
	if plan.ScratchLen > 0 {
		buf, err := e.q.AllocInt32(plan.ScratchLen)
		if err != nil {
			return nil, fmt.Errorf("scan scratch (%d slots): %w", plan.ScratchLen, err)
		}
		scratch = buf
	}

	var submitted []*compute.Event
	fail := func(err error) (*compute.Event, error) {
		// launches already in flight may still touch scratch
		if scratch != nil {
			e.releaseAfter(compute.Join(submitted...), scratch)
		}
		return nil, err
	}

	last := localDeps(deps)
	for l := range plan.Levels {
		args := compute.BlockScanArgs{
			Mode: compute.Exclusive,
			N:    plan.Levels[l].Size,
			In:   plan.data(l, out, scratch),
			Out:  plan.data(l, out, scratch),
			Sums: plan.sums(l, scratch),
		}
		if l == 0 {
			args.Mode = mode
			args.In = in
		}
		ev, err := e.q.BlockScan(cfg, args, last)
		if err != nil {
			return fail(fmt.Errorf("level %d block scan: %w", l, err))
		}
		submitted = append(submitted, ev)
		last = []*compute.Event{ev}
	}

	for l := len(plan.Levels) - 2; l >= 0; l-- {
		ev, err := e.q.AddOffsets(cfg, compute.AddOffsetsArgs{
			N:       plan.Levels[l].Size,
			Data:    plan.data(l, out, scratch),
			Offsets: plan.sums(l, scratch),
		}, last)
		if err != nil {
			return fail(fmt.Errorf("level %d propagation: %w", l, err))
		}
		submitted = append(submitted, ev)
		last = []*compute.Event{ev}
	}

	done := last[0]
	if scratch != nil {
		e.releaseAfter(done, scratch)
	}
	return done, nil
}
