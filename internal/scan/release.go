package scan

import "github.com/samcharles93/prefixscan/internal/compute"

// releaseAfter frees bufs once ev has signalled, on whichever goroutine
// completes ev. Close waits for every pending release.
func (e *Engine) releaseAfter(ev *compute.Event, bufs ...compute.Buffer) {
	e.releases.Add(1)
	ev.Then(func(opErr error) {
		defer e.releases.Done()
		e.free(opErr, bufs...)
	})
}

// free releases bufs now. opErr is the failure of the operation that owned
// them, if any, and is logged alongside a failed free.
func (e *Engine) free(opErr error, bufs ...compute.Buffer) {
	for _, b := range bufs {
		if b == nil {
			continue
		}
		if err := b.Free(); err != nil {
			e.log.Warn("free failed", "error", err, "op_error", opErr)
		}
	}
}
