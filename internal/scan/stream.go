package scan

import (
	"fmt"

	"github.com/samcharles93/prefixscan/internal/compute"
)

// stream runs the decoupled look-back scan: one launch, with groups handing
// their running total to the next group in the order they claimed ids.
func (e *Engine) stream(mode compute.Mode, n int, in, out compute.View, deps []*compute.Event) (*compute.Event, error) {
	cfg := e.cfg.Launch
	groups := cfg.Groups(n)
	e.log.Debug("stream scan", "n", n, "mode", mode, "groups", groups)

	status, err := e.q.AllocInt32(compute.StreamStatusLen(groups))
	if err != nil {
		return nil, fmt.Errorf("stream scan status (%d groups): %w", groups, err)
	}

	ev, err := e.q.StreamScan(cfg, compute.StreamScanArgs{
		Mode:   mode,
		N:      n,
		In:     in,
		Out:    out,
		Status: compute.Whole(status),
	}, localDeps(deps))
	if err != nil {
		e.free(err, status)
		return nil, fmt.Errorf("stream scan: %w", err)
	}
	e.releaseAfter(ev, status)
	return ev, nil
}
