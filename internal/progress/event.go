package progress

import (
	"sync"
	"time"
)

// Kind classifies events published during a run.
type Kind string

const (
	KindTaskStarted  Kind = "task_started"
	KindLine         Kind = "line"
	KindTaskFinished Kind = "task_finished"
	KindTaskFailed   Kind = "task_failed"
	KindFatal        Kind = "fatal"
	KindRunFinished  Kind = "run_finished"
)

// Lifecycle reports whether events of this kind must always be delivered.
func (k Kind) Lifecycle() bool { return k != KindLine }

// Event is a transient notification; it has no identity beyond its position
// in the stream.
type Event struct {
	Kind      Kind
	Time      time.Time
	RunID     string
	Index     int
	Total     int
	FileIndex int
	FileCount int
	PassIndex int
	PassCount int
	Source    string
	Dest      string
	Line      string
	Elapsed   time.Duration
	ExitCode  int
	// Percent is in [0,100], or -1 when unknown.
	Percent float64
	Err     error
	Hint    string
	// State and Completed are set on run_finished.
	State     string
	Completed []string
}

// Listener receives progress events. Implementations must be safe to call
// from the worker goroutine.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) Notify(e Event) { f(e) }

type discard struct{}

func (discard) Notify(Event) {}

// Discard drops every event.
var Discard Listener = discard{}

type multi []Listener

// Multi fans each event out to every non-nil listener in order.
func Multi(listeners ...Listener) Listener {
	out := make(multi, 0, len(listeners))
	for _, l := range listeners {
		if l != nil {
			out = append(out, l)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	default:
		return out
	}
}

func (m multi) Notify(e Event) {
	for _, l := range m {
		l.Notify(e)
	}
}

// Collector records events in memory.
type Collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *Collector) Notify(e Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// OfKind returns recorded events matching kind.
func (c *Collector) OfKind(kind Kind) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
