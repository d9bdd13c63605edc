package pollen

import (
	"errors"
	"time"
)

// EventKind classifies a [TaskEvent].
type EventKind int

const (
	// EventSpawned fires when a task is accepted by an executor.
	EventSpawned EventKind = iota
	// EventDone fires when a task resolves with a value.
	EventDone
	// EventErrored fires when a task resolves with an error.
	EventErrored
	// EventPanicked fires when polling a task panics.
	EventPanicked
	// EventStalled fires when a task is failed with [ErrStalled].
	EventStalled
	// EventCancelled fires when a task is failed with [ErrExecutorClosed].
	EventCancelled
)

func (k EventKind) String() string {
	switch k {
	case EventSpawned:
		return "spawned"
	case EventDone:
		return "done"
	case EventErrored:
		return "errored"
	case EventPanicked:
		return "panicked"
	case EventStalled:
		return "stalled"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// TaskEvent describes a task state change.
type TaskEvent struct {
	Kind EventKind
	Task TaskInfo
	Err  error

	// Polls is the number of times the task has been polled so far.
	Polls int

	// Duration is the time since the task was spawned.
	Duration time.Duration
}

func completionKind(err error) EventKind {
	switch {
	case err == nil:
		return EventDone
	case errors.As(err, new(*PanicError)):
		return EventPanicked
	case errors.Is(err, ErrStalled):
		return EventStalled
	case errors.Is(err, ErrExecutorClosed):
		return EventCancelled
	default:
		return EventErrored
	}
}
