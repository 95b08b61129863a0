package pipeline

import (
	"errors"
	"fmt"
)

// Error kinds. Every pipeline failure wraps exactly one of them, so callers
// can classify with errors.Is without knowing the concrete cause.
var (
	ErrConfig    = errors.New("configuration error")
	ErrResolve   = errors.New("resolution error")
	ErrTransform = errors.New("transformation error")
)

// Configuration errors, detected before any transformation runs.
var (
	ErrRuleConflict   = fmt.Errorf("%w: conflicting rules", ErrConfig)
	ErrUnknownStage   = fmt.Errorf("%w: unknown stage", ErrConfig)
	ErrInvalidChain   = fmt.Errorf("%w: invalid stage chain", ErrConfig)
	ErrInvalidRule    = fmt.Errorf("%w: invalid rule", ErrConfig)
	ErrInvalidPattern = fmt.Errorf("%w: invalid name pattern", ErrConfig)
	ErrInvalidHash    = fmt.Errorf("%w: invalid hash function", ErrConfig)
)

// Resolution errors.
var (
	ErrUnresolved = fmt.Errorf("%w: module not found", ErrResolve)
)

// Transformation errors.
var (
	ErrNoRule        = fmt.Errorf("%w: no rule matches file", ErrTransform)
	ErrStageFailed   = fmt.Errorf("%w: stage failed", ErrTransform)
	ErrTemplate      = fmt.Errorf("%w: template failed", ErrTransform)
	ErrImportCycle   = fmt.Errorf("%w: import cycle", ErrTransform)
	ErrEmitCollision = fmt.Errorf("%w: two outputs share a filename", ErrTransform)
)

// Error attaches the offending path to a pipeline failure.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// pathErrorf builds an *Error around kind with a formatted detail message.
func pathErrorf(path string, kind error, format string, args ...any) error {
	return &Error{Path: path, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}

// withPath attaches path to err unless it already carries one.
func withPath(path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Path: path, Err: err}
}
