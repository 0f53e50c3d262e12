package ingest

import "sync/atomic"

// runLock is a non-blocking lock: a second caller is turned away instead of
// queued behind the first.
type runLock struct {
	state atomic.Int32 // 0 = free, 1 = held
}

// TryAcquire takes the lock if it is free
func (l *runLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release frees the lock. Only the holder may call it.
func (l *runLock) Release() {
	l.state.Store(0)
}

// Held reports whether a run is in progress
func (l *runLock) Held() bool {
	return l.state.Load() == 1
}
