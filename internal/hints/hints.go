// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"strings"
)

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-assetpipe/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/assetpipe.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-assetpipe") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory errors.
func ForOutputDirectory() string {
	return format("check output.path is writable and does not contain the project directory")
}

// ForRuleConflict returns a hint for two rules claiming one extension.
func ForRuleConflict() string {
	return format("each extension may appear in one rule; merge the rules or remove it from one test list")
}

// ForUnknownStage returns hints listing the available loaders.
func ForUnknownStage(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available loaders: " + strings.Join(available, ", "))
}

// ForUnresolved returns hints for modules that could not be found.
func ForUnresolved(extensions []string) string {
	hints := []string{"check the import path is relative (./) or installed under node_modules"}
	if len(extensions) > 0 {
		hints = append(hints, "extensions tried: "+strings.Join(extensions, ", "))
	}
	return formatHints(hints)
}

// ForNoRule returns a hint for a file no rule handles.
func ForNoRule() string {
	return format("add a module.rules entry whose test lists the file extension")
}

// ForTemplateNotFound returns hints for page templates that cannot be loaded.
func ForTemplateNotFound(builtins []string) string {
	hint := "template paths are relative to the context directory"
	if len(builtins) > 0 {
		hint += "; built-in templates: " + strings.Join(builtins, ", ")
	}
	return format(hint)
}

// ForChunks returns a hint for page chunk errors.
func ForChunks() string {
	return format("chunks must name declared entries, and each entry may be loaded by one page")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
