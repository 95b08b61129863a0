package main

import (
	"errors"

	assetpipe "github.com/alnah/go-assetpipe"
	"github.com/alnah/go-assetpipe/internal/assets"
	"github.com/alnah/go-assetpipe/internal/config"
	"github.com/alnah/go-assetpipe/internal/hints"
)

// resolveError carries the extensions the resolver tried.
type resolveError struct {
	err        error
	extensions []string
}

func (e *resolveError) Error() string { return e.err.Error() }
func (e *resolveError) Unwrap() error { return e.err }

// withExtensions attaches extensions to unresolved-module errors.
func withExtensions(err error, extensions []string) error {
	if errors.Is(err, assetpipe.ErrUnresolved) {
		return &resolveError{err: err, extensions: extensions}
	}
	return err
}

// errorHint returns the hint appended to err on the terminal, or "".
func errorHint(err error) string {
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		return hints.ForConfigNotFound(config.SearchPaths(config.DefaultName))
	case errors.Is(err, assetpipe.ErrRuleConflict):
		return hints.ForRuleConflict()
	case errors.Is(err, assetpipe.ErrUnknownStage):
		return hints.ForUnknownStage(assetpipe.StageNames())
	case errors.Is(err, assetpipe.ErrUnknownChunk), errors.Is(err, assetpipe.ErrSharedChunk):
		return hints.ForChunks()
	case errors.Is(err, assetpipe.ErrTemplateNotFound):
		return hints.ForTemplateNotFound(assets.BuiltinTemplates())
	case errors.Is(err, assetpipe.ErrUnresolved):
		var re *resolveError
		if errors.As(err, &re) {
			return hints.ForUnresolved(re.extensions)
		}
		return hints.ForUnresolved(nil)
	case errors.Is(err, assetpipe.ErrNoRule):
		return hints.ForNoRule()
	case errors.Is(err, assetpipe.ErrOutput):
		return hints.ForOutputDirectory()
	}
	return ""
}
