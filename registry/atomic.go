package registry

import "sync/atomic"

// atomicSnapshot publishes *snapshot values for lock-free reads while the
// worker goroutine is the sole writer.
type atomicSnapshot struct {
	v atomic.Pointer[snapshot]
}

func (a *atomicSnapshot) load() *snapshot   { return a.v.Load() }
func (a *atomicSnapshot) store(s *snapshot) { a.v.Store(s) }
