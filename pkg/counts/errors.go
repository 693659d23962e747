package counts

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrOutputCount   = errors.New("wrong number of output chains")
	ErrOrderMismatch = errors.New("chain order mismatch")
)

// PipelineError provides structured error information for pipeline
// stages.
type PipelineError struct {
	Stage string // Stage that failed (e.g., "adjust", "collapse")
	Order int    // Record order involved (0 if not applicable)
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Order != 0 {
		return fmt.Sprintf("%s (order %d): %v", e.Stage, e.Order, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *PipelineError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func stageErr(stage string, order int, cause error) *PipelineError {
	return &PipelineError{Stage: stage, Order: order, Cause: cause}
}
