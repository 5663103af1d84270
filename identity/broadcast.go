package identity

import (
	"sync"
	"sync/atomic"
)

// Broadcaster holds the current identity and fans every change out to the
// registered listeners. Changes are numbered when they are set; a listener
// never receives a change older than one it already has, and calls to one
// listener never overlap. A listener that triggers a new change from inside
// its callback gets that change after the callback returns.
type Broadcaster struct {
	lock      sync.Mutex
	current   Identity
	seq       uint64
	nextID    uint64
	listeners []*changeListener
}

type stampedChange struct {
	seq      uint64
	identity Identity
}

type changeListener struct {
	id      uint64
	fn      ChangeFunc
	removed atomic.Bool

	lock    sync.Mutex
	busy    bool
	seen    bool
	last    uint64
	pending []stampedChange
}

// Current returns the identity set by the latest Publish.
func (b *Broadcaster) Current() Identity {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.current
}

// Count returns the number of registered listeners.
func (b *Broadcaster) Count() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.listeners)
}

// Subscribe registers fn. When deliverCurrent is set, fn receives the current
// identity before Subscribe returns unless a newer change reached it first.
func (b *Broadcaster) Subscribe(fn ChangeFunc, deliverCurrent bool) (unsubscribe func()) {
	b.lock.Lock()
	b.nextID++
	l := &changeListener{id: b.nextID, fn: fn}
	b.listeners = append(b.listeners, l)
	initial := stampedChange{seq: b.seq, identity: b.current}
	b.lock.Unlock()

	if deliverCurrent {
		l.deliver(initial)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.removed.Store(true)
			b.lock.Lock()
			defer b.lock.Unlock()
			for i, v := range b.listeners {
				if v.id == l.id {
					b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish sets id as current and delivers it to every listener in registration order.
func (b *Broadcaster) Publish(id Identity) {
	b.lock.Lock()
	b.seq++
	change := stampedChange{seq: b.seq, identity: id}
	b.current = id
	listeners := make([]*changeListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.lock.Unlock()

	for _, l := range listeners {
		l.deliver(change)
	}
}

func (l *changeListener) deliver(change stampedChange) {
	l.lock.Lock()
	if l.busy {
		l.pending = append(l.pending, change)
		l.lock.Unlock()
		return
	}
	l.busy = true

	for {
		if !l.removed.Load() && (!l.seen || change.seq > l.last) {
			l.seen = true
			l.last = change.seq
			l.lock.Unlock()
			l.fn(change.identity)
			l.lock.Lock()
		}
		if len(l.pending) == 0 {
			l.busy = false
			l.lock.Unlock()
			return
		}
		change = l.pending[0]
		l.pending = l.pending[1:]
	}
}
