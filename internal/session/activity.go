package session

import "sync"

// Signal is a user activity event.
type Signal string

const (
	SignalPointerDown Signal = "pointerdown"
	SignalPointerMove Signal = "pointermove"
	SignalKeyDown     Signal = "keydown"
	SignalScroll      Signal = "scroll"
	SignalTouchStart  Signal = "touchstart"
)

// ActivitySignals are the signals that count as user activity.
var ActivitySignals = []Signal{
	SignalPointerDown,
	SignalPointerMove,
	SignalKeyDown,
	SignalScroll,
	SignalTouchStart,
}

// IsActivity reports whether s resets the inactivity timer.
func IsActivity(s Signal) bool {
	for _, known := range ActivitySignals {
		if s == known {
			return true
		}
	}
	return false
}

// ActivityBus fans activity signals out to listeners.
type ActivityBus struct {
	mu   sync.Mutex
	subs map[int]func(Signal)
	next int
}

func NewActivityBus() *ActivityBus {
	return &ActivityBus{subs: make(map[int]func(Signal))}
}

// Subscribe registers fn and returns a function removing it again.
func (b *ActivityBus) Subscribe(fn func(Signal)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers s to every listener. Listeners run outside the bus lock.
func (b *ActivityBus) Publish(s Signal) {
	b.mu.Lock()
	fns := make([]func(Signal), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Listeners returns the number of registered listeners.
func (b *ActivityBus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
