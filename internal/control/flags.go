// Package control holds the lock-free signals external triggers use to steer
// the crawler loop.
package control

import (
	"sync"
	"sync/atomic"
)

// Flags is shared by pointer between the loop and whatever sets the flags
// (signal handler, control server).
type Flags struct {
	stop   atomic.Bool
	reload atomic.Bool

	stopOnce sync.Once
	initOnce sync.Once
	stopCh   chan struct{}
}

// RequestStop asks the loop to stop at its next iteration and wakes any
// goroutine waiting on StopNotify.
func (f *Flags) RequestStop() {
	f.stop.Store(true)
	ch := f.stopChan()
	f.stopOnce.Do(func() { close(ch) })
}

// StopNotify returns a channel that is closed once a stop is requested.
func (f *Flags) StopNotify() <-chan struct{} {
	return f.stopChan()
}

func (f *Flags) stopChan() chan struct{} {
	f.initOnce.Do(func() { f.stopCh = make(chan struct{}) })
	return f.stopCh
}

// StopRequested reports whether a stop was requested. The flag is never cleared.
func (f *Flags) StopRequested() bool {
	return f.stop.Load()
}

// RequestReload asks the loop to refresh the watch list at its next iteration.
func (f *Flags) RequestReload() {
	f.reload.Store(true)
}

// TakeReload clears a pending reload request and reports whether there was one.
func (f *Flags) TakeReload() bool {
	return f.reload.CompareAndSwap(true, false)
}

// ReloadPending reports whether a reload is requested but not yet taken.
func (f *Flags) ReloadPending() bool {
	return f.reload.Load()
}
