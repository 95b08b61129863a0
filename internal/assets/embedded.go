package assets

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed templates/*
var templates embed.FS

// DefaultTemplateName is the built-in template used by pages that name none.
const DefaultTemplateName = "default"

// EmbeddedLoader loads the built-in templates.
// Implements TemplateLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadTemplate loads a built-in template by name, without the .html extension.
// An empty name selects DefaultTemplateName.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	if name == "" {
		name = DefaultTemplateName
	}
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}

	content, err := templates.ReadFile("templates/" + name + ".html")
	if err != nil {
		return "", fmt.Errorf("%w: built-in %q", ErrTemplateNotFound, name)
	}

	return string(content), nil
}

// Compile-time interface check.
var _ TemplateLoader = (*EmbeddedLoader)(nil)

// BuiltinTemplates returns the names of the built-in templates, sorted.
func BuiltinTemplates() []string {
	entries, err := templates.ReadDir("templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".html"))
	}
	return names
}
