package pollen

import (
	"errors"
	"fmt"
)

// TaskInfo identifies a task spawned on an executor. IDs are unique per
// executor and start at 1.
type TaskInfo struct {
	Name string
	ID   uint64
}

func (ti TaskInfo) String() string {
	return fmt.Sprintf("%q (#%d)", ti.Name, ti.ID)
}

// TaskError is how executors report a failed task: the cause plus the
// [TaskInfo] of the task that produced it.
type TaskError struct {
	Task TaskInfo
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %v failed: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

func firstTaskError(err error) *TaskError {
	var te *TaskError
	if err == nil || !errors.As(err, &te) {
		return nil
	}
	return te
}

// IsTaskError reports whether err's chain holds a [*TaskError].
func IsTaskError(err error) bool { return firstTaskError(err) != nil }

// TaskOf returns the task that produced err, if err came from an executor.
func TaskOf(err error) (TaskInfo, bool) {
	if te := firstTaskError(err); te != nil {
		return te.Task, true
	}
	return TaskInfo{}, false
}

// CauseOf strips the executor's attribution from err.
func CauseOf(err error) error {
	if te := firstTaskError(err); te != nil {
		return te.Err
	}
	return err
}

// AllTaskErrors lists every [*TaskError] reachable from err, descending
// into joined errors, in the order they were joined. A TaskError's own
// cause is not searched. Returns nil if there are none.
func AllTaskErrors(err error) []*TaskError {
	var out []*TaskError
	stack := []error{err}
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch e := e.(type) {
		case nil:
		case *TaskError:
			out = append(out, e)
		case interface{ Unwrap() []error }:
			subs := e.Unwrap()
			for i := len(subs) - 1; i >= 0; i-- {
				stack = append(stack, subs[i])
			}
		case interface{ Unwrap() error }:
			stack = append(stack, e.Unwrap())
		}
	}
	return out
}
