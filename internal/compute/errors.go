package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrSizeMismatch reports a buffer whose length or element kind disagrees
	// with the requested element count.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrSubmission reports a launch the queue refused to accept.
	ErrSubmission = errors.New("submission failed")
	// ErrAllocation reports a failed device allocation.
	ErrAllocation = errors.New("allocation failed")
	// ErrDeviceExecution reports a fault raised while a kernel was running.
	// It is only observed by waiting on the completion event.
	ErrDeviceExecution = errors.New("device execution failed")
	// ErrAliasing reports scan input and output views that overlap.
	ErrAliasing = errors.New("input and output overlap")
)

// ExecutionError wraps a recovered kernel panic.
func ExecutionError(kernel string, rec any) error {
	if recErr, ok := rec.(error); ok {
		return fmt.Errorf("%w: %s: %w", ErrDeviceExecution, kernel, recErr)
	}
	return fmt.Errorf("%w: %s: %v", ErrDeviceExecution, kernel, rec)
}

func SubmissionError(kernel string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrSubmission, kernel, fmt.Sprintf(format, args...))
}
