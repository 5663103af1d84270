package session

import (
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Listener receives every committed snapshot.
type Listener func(Snapshot)

// subscription delivers snapshots to one listener in revision order. A
// delivery arriving while the listener is running (from a re-entrant call
// or another goroutine) is queued and run by the goroutine already delivering.
type subscription struct {
	id       uint64
	listener Listener
	removed  atomic.Bool

	lock      sync.Mutex
	busy      bool
	pending   []Snapshot
	delivered bool
	last      uint64
}

// registry is the observer list. Listeners are notified in registration order.
type registry struct {
	mu     sync.RWMutex
	subs   []*subscription
	nextID atomic.Uint64
	logger zerolog.Logger
}

func newRegistry(logger zerolog.Logger) *registry {
	return &registry{logger: logger}
}

func (r *registry) add(l Listener) *subscription {
	sub := &subscription{id: r.nextID.Add(1), listener: l}
	r.mu.Lock()
	r.subs = append(r.subs, sub)
	r.mu.Unlock()
	return sub
}

// remove returns true if the subscription was found and removed.
func (r *registry) remove(sub *subscription) bool {
	sub.removed.Store(true)

	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.id == sub.id {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

func (r *registry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *registry) publish(snap Snapshot) {
	r.mu.RLock()
	subs := make([]*subscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	for _, sub := range subs {
		r.deliver(sub, snap)
	}
}

func (r *registry) deliver(sub *subscription, snap Snapshot) {
	sub.lock.Lock()
	if sub.busy {
		sub.pending = append(sub.pending, snap)
		sub.lock.Unlock()
		return
	}
	sub.busy = true

	for {
		// Never hand a listener a snapshot older than one it already has
		if !sub.removed.Load() && (!sub.delivered || snap.Revision > sub.last) {
			sub.delivered = true
			sub.last = snap.Revision
			sub.lock.Unlock()
			r.safeCall(sub, snap)
			sub.lock.Lock()
		}
		if len(sub.pending) == 0 {
			sub.busy = false
			sub.lock.Unlock()
			return
		}
		snap = sub.pending[0]
		sub.pending = sub.pending[1:]
	}
}

// safeCall recovers listener panics so fan-out continues to the remaining listeners.
func (r *registry) safeCall(sub *subscription, snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Uint64("listener", sub.id).
				Uint64("revision", snap.Revision).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("session listener panicked")
		}
	}()
	sub.listener(snap)
}
