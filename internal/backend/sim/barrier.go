package sim

import (
	"errors"
	"sync"
)

// errGroupAborted unwinds workers blocked on a barrier after another worker
// of the same group faulted.
var errGroupAborted = errors.New("workgroup aborted")

// barrier is a reusable full-group barrier.
type barrier struct {
	mu     sync.Mutex
	cond   *sync.Cond
	size   int
	count  int
	gen    uint64
	broken bool
}

func newBarrier(size int) *barrier {
	b := &barrier{size: size}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *barrier) wait() {
	b.mu.Lock()
	if b.broken {
		b.mu.Unlock()
		panic(errGroupAborted)
	}
	gen := b.gen
	b.count++
	if b.count == b.size {
		b.count = 0
		b.gen++
		b.cond.Broadcast()
		b.mu.Unlock()
		return
	}
	for gen == b.gen && !b.broken {
		b.cond.Wait()
	}
	broken := gen == b.gen
	b.mu.Unlock()
	if broken {
		panic(errGroupAborted)
	}
}

// abort releases every waiter with errGroupAborted.
func (b *barrier) abort() {
	b.mu.Lock()
	b.broken = true
	b.cond.Broadcast()
	b.mu.Unlock()
}
