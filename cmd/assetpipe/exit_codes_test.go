package main

// Notes:
// - exitCodeFor: we test the error kinds of the assetpipe and config
//   packages, plus wrapped errors to verify the errors.Is chain.
// - Exit code constants: we verify Unix conventions (0=success, 1=general,
//   2=usage) and that custom codes stay below 126.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	assetpipe "github.com/alnah/go-assetpipe"
	"github.com/alnah/go-assetpipe/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// Transformation errors (exit 4)
		{"transform", assetpipe.ErrTransform, ExitTransform},
		{"no rule", assetpipe.ErrNoRule, ExitTransform},
		{"output collision", assetpipe.ErrOutputCollision, ExitTransform},
		{"build error", &assetpipe.BuildError{Kind: assetpipe.ErrTransform, Path: "./a.less", Err: errors.New("boom")}, ExitTransform},

		// Resolution and I/O errors (exit 3)
		{"unresolved", assetpipe.ErrUnresolved, ExitIO},
		{"template not found", assetpipe.ErrTemplateNotFound, ExitIO},
		{"output", assetpipe.ErrOutput, ExitIO},
		{"wrapped unresolved", fmt.Errorf("building: %w", assetpipe.ErrUnresolved), ExitIO},
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},

		// Usage/config/validation errors (exit 2)
		{"rule conflict", assetpipe.ErrRuleConflict, ExitUsage},
		{"unknown stage", assetpipe.ErrUnknownStage, ExitUsage},
		{"unknown chunk", assetpipe.ErrUnknownChunk, ExitUsage},
		{"invalid mode", assetpipe.ErrInvalidMode, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"field too long", config.ErrFieldTooLong, ExitUsage},
		{"invalid field", config.ErrInvalidField, ExitUsage},
		{"usage", ErrUsage, ExitUsage},
		{"unsupported shell", ErrUnsupportedShell, ExitUsage},
		{"wrapped config not found", fmt.Errorf("loading config: %w", config.ErrConfigNotFound), ExitUsage},

		// General errors (exit 1)
		{"canceled", context.Canceled, ExitGeneral},
		{"unknown error", errors.New("something"), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Unix conventions
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 || ExitGeneral != 1 || ExitUsage != 2 {
		t.Errorf("conventional codes = %d/%d/%d, want 0/1/2", ExitSuccess, ExitGeneral, ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitTransform} {
		if code <= ExitUsage || code >= 126 {
			t.Errorf("custom exit code %d should be in (2, 126)", code)
		}
	}
}
