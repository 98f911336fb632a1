package logio

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned when a sink or source is used after Close.
	ErrClosed = errors.New("logio: closed")

	// ErrNotRotatable is returned by Rotate on sinks bound to standard output.
	ErrNotRotatable = errors.New("logio: standard output cannot be rotated")
)

// ConfigurationError reports a missing external binary or an unusable path setting.
type ConfigurationError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("logio: %s %s: configuration error: %v", e.Op, e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ResourceError reports a failed open, rename or process spawn. The instance
// that returned it must be reopened before it is used again.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("logio: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// ProcessExitError reports an external process that exited unsuccessfully.
// It is only observable after the fact, at close or rotate time.
type ProcessExitError struct {
	Name   string
	Err    error
	Stderr string
}

func (e *ProcessExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("logio: process %s failed: %v: %s", e.Name, e.Err, e.Stderr)
	}
	return fmt.Sprintf("logio: process %s failed: %v", e.Name, e.Err)
}

func (e *ProcessExitError) Unwrap() error { return e.Err }
