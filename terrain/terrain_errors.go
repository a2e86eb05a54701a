package terrain

import (
	"errors"
	"fmt"
)

var (
	ErrContourOverflow = errors.New("terrain: contour point buffer overflow")
	ErrNoClosestRegion = errors.New("terrain: no closest region found")
	ErrClipFailed      = errors.New("terrain: polygon clipping failed")
	ErrCacheMismatch   = errors.New("terrain: cache version or size mismatch")
	ErrInvalidInput    = errors.New("terrain: invalid map input")
)

// AnalysisError is the single failure type of a fatal pipeline condition.
// The partial result must be discarded.
type AnalysisError struct {
	Op   string
	Desc string
	Err  error
}

func (e *AnalysisError) Error() string {
	if e.Desc == "" {
		return fmt.Sprintf("terrain %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("terrain %s: %s: %v", e.Op, e.Desc, e.Err)
}

func (e *AnalysisError) Unwrap() error {
	return e.Err
}

func analysisError(op string, err error, format string, args ...any) *AnalysisError {
	return &AnalysisError{Op: op, Desc: fmt.Sprintf(format, args...), Err: err}
}
