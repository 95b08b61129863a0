package assets

import "errors"

// Sentinel errors for template loading.
var (
	// ErrTemplateNotFound indicates the requested template does not exist.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidAssetName indicates a built-in template name contains path
	// separators or dots.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidTemplatePath indicates a template path is absolute, empty or
	// climbs out of the project directory.
	ErrInvalidTemplatePath = errors.New("invalid template path")

	// ErrInvalidBasePath indicates the configured base path is not a valid directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead indicates an I/O error occurred while reading a template file.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal indicates an attempt to access files outside the base path.
	ErrPathTraversal = errors.New("path traversal detected")
)
