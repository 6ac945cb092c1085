package harness

import (
	"errors"
	"fmt"
)

// ErrNotRunning is returned by operations that need a started server.
var ErrNotRunning = errors.New("embedded engine is not running")

// ConfigError reports a configuration pass that cannot produce a usable
// engine configuration. It is not retryable.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration %s failed: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ScratchError reports a scratch directory that could not be removed.
type ScratchError struct {
	Path string
	Err  error
}

func (e *ScratchError) Error() string {
	return fmt.Sprintf("cannot reset scratch directory %s: %v", e.Path, e.Err)
}

func (e *ScratchError) Unwrap() error {
	return e.Err
}

// IsConfigError returns true if err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsScratchError returns true if err is or wraps a ScratchError.
func IsScratchError(err error) bool {
	var se *ScratchError
	return errors.As(err, &se)
}
