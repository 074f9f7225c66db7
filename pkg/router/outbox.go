package router

import (
	"github.com/vango-dev/routestate/pkg/mount"
)

// write is a store write queued while navMu was held.
type write struct {
	path  string
	value any
}

// emit queues a store write. navMu must be held.
func (r *Router) emit(path string, value any) {
	r.outbox = append(r.outbox, write{path: path, value: value})
}

// flush delivers queued writes in order, outside navMu. Subscribers run on
// the delivering goroutine and may call back into the router; when a flush
// is already in progress the caller returns and the writes it queued are
// delivered by that flush.
func (r *Router) flush() {
	r.navMu.Lock()
	if r.flushing {
		r.navMu.Unlock()
		return
	}
	r.flushing = true
	for len(r.outbox) > 0 {
		w := r.outbox[0]
		r.outbox[0] = write{}
		r.outbox = r.outbox[1:]
		r.navMu.Unlock()

		r.deliver(w)

		r.navMu.Lock()
	}
	r.outbox = nil
	r.flushing = false
	r.settledLocked()
	r.navMu.Unlock()
}

func (r *Router) deliver(w write) {
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("store subscriber panicked", "path", w.path, "panic", v)
		}
	}()
	r.store.Set(w.path, w.value)
}

// settledLocked closes the idle channel once nothing is in flight and every
// queued write has been delivered. navMu must be held.
func (r *Router) settledLocked() {
	if r.busy && !r.navigating && !r.flushing && len(r.outbox) == 0 {
		r.busy = false
		close(r.idle)
	}
}

// runCleanup runs a view cleanup detached from the mounter. navMu must not
// be held.
func (r *Router) runCleanup(cleanup mount.Cleanup) {
	if cleanup == nil {
		return
	}
	defer func() {
		if v := recover(); v != nil {
			r.logger.Error("view cleanup panicked", "panic", v)
		}
	}()
	cleanup()
}
