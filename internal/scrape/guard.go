package scrape

import "sync/atomic"

// CycleGuard admits at most one scrape cycle at a time. A cycle that finds
// the guard held reports itself skipped instead of queueing behind the
// running one.
type CycleGuard struct {
	running atomic.Bool
}

func NewCycleGuard() *CycleGuard {
	return &CycleGuard{}
}

// TryAcquire claims the guard and reports whether the caller may run.
func (g *CycleGuard) TryAcquire() bool {
	return g.running.CompareAndSwap(false, true)
}

// Release frees the guard for the next cycle.
func (g *CycleGuard) Release() {
	g.running.Store(false)
}

// Running reports whether a cycle currently holds the guard.
func (g *CycleGuard) Running() bool {
	return g.running.Load()
}
