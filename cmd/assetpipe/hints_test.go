package main

import (
	"fmt"
	"strings"
	"testing"

	assetpipe "github.com/alnah/go-assetpipe"
	"github.com/alnah/go-assetpipe/internal/config"
)

func TestErrorHint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config not found", fmt.Errorf("loading config: %w", config.ErrConfigNotFound), "use --config"},
		{"rule conflict", assetpipe.ErrRuleConflict, "each extension may appear in one rule"},
		{"unknown stage", assetpipe.ErrUnknownStage, "script"},
		{"unknown chunk", assetpipe.ErrUnknownChunk, "chunks must name declared entries"},
		{"shared chunk", assetpipe.ErrSharedChunk, "chunks must name declared entries"},
		{"template", assetpipe.ErrTemplateNotFound, "built-in templates: blank, default"},
		{"unresolved", withExtensions(assetpipe.ErrUnresolved, []string{".js", ".ts"}), "extensions tried: .js, .ts"},
		{"no rule", assetpipe.ErrNoRule, "module.rules"},
		{"output", assetpipe.ErrOutput, "output.path"},
		{"unrelated", fmt.Errorf("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := errorHint(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("errorHint() = %q, want none", got)
				}
				return
			}
			if !strings.HasPrefix(got, "\n  hint: ") || !strings.Contains(got, tt.want) {
				t.Errorf("errorHint() = %q, want hint containing %q", got, tt.want)
			}
		})
	}
}

func TestWithExtensions_KeepsOtherErrors(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("x: %w", assetpipe.ErrNoRule)
	if withExtensions(err, []string{".js"}) != err {
		t.Error("withExtensions should only wrap unresolved errors")
	}
}
