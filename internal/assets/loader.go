package assets

// TemplateLoader defines the contract for loading page templates.
type TemplateLoader interface {
	// LoadTemplate loads a page template by reference.
	// Returns ErrTemplateNotFound if the template doesn't exist.
	LoadTemplate(ref string) (string, error)
}
