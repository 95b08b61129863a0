package assetpipe

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-assetpipe/internal/pipeline"
)

// Error kinds. Every build failure wraps exactly one of them.
var (
	ErrConfig    = pipeline.ErrConfig
	ErrResolve   = pipeline.ErrResolve
	ErrTransform = pipeline.ErrTransform

	// ErrOutput marks failures to write generated files.
	ErrOutput = errors.New("output error")
)

// Descriptor validation errors.
var (
	ErrNoEntries       = fmt.Errorf("%w: no entries declared", ErrConfig)
	ErrInvalidEntry    = fmt.Errorf("%w: invalid entry", ErrConfig)
	ErrDuplicateEntry  = fmt.Errorf("%w: duplicate entry", ErrConfig)
	ErrInvalidMode     = fmt.Errorf("%w: invalid mode", ErrConfig)
	ErrInvalidOutput   = fmt.Errorf("%w: invalid output", ErrConfig)
	ErrInvalidPage     = fmt.Errorf("%w: invalid page", ErrConfig)
	ErrDuplicatePage   = fmt.Errorf("%w: duplicate page filename", ErrConfig)
	ErrUnknownChunk    = fmt.Errorf("%w: page chunk names no entry", ErrConfig)
	ErrSharedChunk     = fmt.Errorf("%w: entry consumed by more than one page", ErrConfig)
	ErrInvalidResolve  = fmt.Errorf("%w: invalid resolve options", ErrConfig)
	ErrInvalidPort     = fmt.Errorf("%w: invalid dev server port", ErrConfig)
	ErrUnknownEntry    = fmt.Errorf("%w: unknown entry", ErrConfig)
	ErrRuleConflict    = pipeline.ErrRuleConflict
	ErrUnknownStage    = pipeline.ErrUnknownStage
	ErrInvalidPattern  = pipeline.ErrInvalidPattern
	ErrOutputCollision = pipeline.ErrEmitCollision
)

// Module errors raised while building an entry.
var (
	ErrUnresolved = pipeline.ErrUnresolved
	ErrNoRule     = pipeline.ErrNoRule
)

// ErrTemplateNotFound is returned when a page template cannot be loaded.
var ErrTemplateNotFound = fmt.Errorf("%w: page template not found", ErrResolve)

// BuildError is a build failure attached to the file that caused it.
type BuildError struct {
	Kind error  // ErrConfig, ErrResolve, ErrTransform or ErrOutput
	Path string // project-relative path, empty when not file-specific
	Err  error
}

func (e *BuildError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// Is reports whether target is the error's kind.
func (e *BuildError) Is(target error) bool { return target == e.Kind }

// wrapBuildError classifies err into a *BuildError. Cancellation errors
// are returned unchanged.
func wrapBuildError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var be *BuildError
	if errors.As(err, &be) {
		return err
	}

	be = &BuildError{Kind: kindOf(err), Err: err}
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		be.Path = pe.Path
		be.Err = pe.Err
	}
	return be
}

// outputErrorf builds a *BuildError of kind ErrOutput.
func outputErrorf(path string, err error) error {
	return &BuildError{Kind: ErrOutput, Path: path, Err: fmt.Errorf("%w: %v", ErrOutput, err)}
}

func kindOf(err error) error {
	for _, kind := range []error{ErrConfig, ErrResolve, ErrTransform, ErrOutput} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrTransform
}
