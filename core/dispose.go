package core

import "sync/atomic"

var lastID atomic.Uint64

// NextID returns a process-unique non-zero resource identity.
func NextID() uint64 {
	return lastID.Add(1)
}

// Disposable is embedded by resources that announce their release.
// The zero value is ready to use.
type Disposable struct {
	disposed  bool
	listeners []func()
}

// OnDispose registers fn to run once when the resource is disposed.
// Registering on an already disposed resource runs fn immediately.
func (d *Disposable) OnDispose(fn func()) {
	if d.disposed {
		fn()
		return
	}
	d.listeners = append(d.listeners, fn)
}

// Disposed reports whether Dispose has been called.
func (d *Disposable) Disposed() bool {
	return d.disposed
}

// Dispose runs the registered listeners in registration order. Subsequent
// calls do nothing.
func (d *Disposable) Dispose() {
	if d.disposed {
		return
	}
	d.disposed = true
	listeners := d.listeners
	d.listeners = nil
	for _, fn := range listeners {
		fn()
	}
}
