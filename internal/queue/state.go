package queue

import (
	"errors"
	"fmt"
)

// State is the driver lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
	StateFailed    State = "failed"
)

var (
	// ErrAlreadyRunning is returned when starting a second active run.
	ErrAlreadyRunning = errors.New("queue already running")
	// ErrNotRunning is returned when cancel is requested without an active run.
	ErrNotRunning = errors.New("no running queue")
	// ErrInvalidTransition is returned for state changes outside the lifecycle.
	ErrInvalidTransition = errors.New("invalid queue state transition")
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateAborted, StateFailed:
		return true
	default:
		return false
	}
}

// ParseState converts a stored state name.
func ParseState(value string) (State, bool) {
	switch s := State(value); s {
	case StateIdle, StateRunning, StateCompleted, StateAborted, StateFailed:
		return s, true
	default:
		return "", false
	}
}

func isValidTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateRunning
	case StateRunning:
		return to.Terminal()
	case StateCompleted, StateAborted, StateFailed:
		return to == StateIdle
	default:
		return false
	}
}

func transitionError(from, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
