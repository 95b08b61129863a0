package main

import (
	"errors"
	"os"

	assetpipe "github.com/alnah/go-assetpipe"
	"github.com/alnah/go-assetpipe/internal/config"
)

// Exit codes for the assetpipe CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Build or validation succeeded
	ExitGeneral   = 1 // General/unexpected error, including interruption
	ExitUsage     = 2 // Invalid flags or configuration
	ExitIO        = 3 // Missing source, unresolved module, unwritable output
	ExitTransform = 4 // A stage rejected a file
)

// ErrUsage is returned for invalid command lines.
var ErrUsage = errors.New("usage error")

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Transformation errors (exit 4)
	if errors.Is(err, assetpipe.ErrTransform) {
		return ExitTransform
	}

	// Resolution and I/O errors (exit 3)
	if errors.Is(err, assetpipe.ErrResolve) ||
		errors.Is(err, assetpipe.ErrOutput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, assetpipe.ErrConfig) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidField) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnsupportedShell) {
		return ExitUsage
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	return ExitGeneral
}
