package job

import (
	"errors"
	"fmt"
)

var ErrMissingArgument = errors.New("missing required argument")

// SeedError reports a SEED that is not a non-negative whole number fitting a uint.
type SeedError struct {
	Value string
	Err   error
}

func (e *SeedError) Error() string {
	return fmt.Sprintf("invalid SEED %q, did you use a non whole number? %v", e.Value, e.Err)
}

func (e *SeedError) Unwrap() error { return e.Err }

// ReadError reports a SOURCE that could not be read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read source %q: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// TransformError reports a pipeline failure. The Shift engine itself never
// fails; only compression stages can.
type TransformError struct {
	Err error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform: %v", e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// WriteError reports a DESTINATION that could not be written. A partially
// written destination is left in place.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write destination %q: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
