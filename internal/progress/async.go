package progress

import (
	"sync"
	"sync/atomic"
)

const defaultBuffer = 256

// Async forwards events to next from a dedicated goroutine.
type Async struct {
	next    Listener
	ch      chan Event
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsync starts the consumer goroutine. Close must be called to drain it.
func NewAsync(next Listener, buffer int) *Async {
	if next == nil {
		next = Discard
	}
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	a := &Async{
		next: next,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for e := range a.ch {
		a.next.Notify(e)
	}
}

// Notify enqueues e. Line events are dropped when the buffer is full;
// lifecycle events wait for room. Events published after Close are ignored.
func (a *Async) Notify(e Event) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	if e.Kind.Lifecycle() {
		a.ch <- e
		return
	}
	select {
	case a.ch <- e:
	default:
		a.dropped.Add(1)
	}
}

// Close stops accepting events and blocks until queued events are delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.ch)
	}
	a.mu.Unlock()
	<-a.done
}

// Dropped returns the number of line events discarded so far.
func (a *Async) Dropped() int64 { return a.dropped.Load() }
