package queue

import (
	"time"

	"ffqueue/internal/task"
)

// TaskOutcome records how one descriptor ended.
type TaskOutcome struct {
	Descriptor task.Descriptor
	ExitCode   int
	Err        error
	Elapsed    time.Duration
}

// Summary aggregates a finished (or in-flight) run.
type Summary struct {
	RunID    string
	Name     string
	State    State
	Started  time.Time
	Finished time.Time
	Total    int
	// Launched counts descriptors handed to the runner.
	Launched int
	// Completed lists input files whose every pass exited 0, in queue order.
	Completed []string
	Failed    []TaskOutcome
	Skipped   []task.Descriptor
	// Fatal is the error that stopped the run early, if any.
	Fatal error
}

// Duration returns the wall-clock time of the run.
func (s Summary) Duration() time.Duration {
	if s.Started.IsZero() || s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Banner returns the closing console line for the run's final state.
func (s Summary) Banner() string {
	switch s.State {
	case StateCompleted:
		return "All finished!"
	case StateAborted:
		return "Interrupted Process!"
	case StateFailed:
		return "Sorry, tasks failed!"
	default:
		return ""
	}
}

func (s Summary) clone() Summary {
	out := s
	out.Completed = append([]string(nil), s.Completed...)
	out.Failed = append([]TaskOutcome(nil), s.Failed...)
	out.Skipped = append([]task.Descriptor(nil), s.Skipped...)
	return out
}
