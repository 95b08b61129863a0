package assets

import (
	"fmt"
	"path"
	"strings"
)

// ValidateAssetName checks that a built-in template name is a plain name.
// Returns ErrInvalidAssetName if the name is empty or contains path separators,
// dots (which could allow extension manipulation), or traversal characters.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// ValidateTemplatePath checks that p is a slash-separated path that stays
// inside the directory it is relative to.
func ValidateTemplatePath(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return fmt.Errorf("%w: empty path", ErrInvalidTemplatePath)
	case strings.ContainsRune(p, 0), strings.Contains(p, "\\"):
		return fmt.Errorf("%w: %q", ErrInvalidTemplatePath, p)
	case path.IsAbs(p):
		return fmt.Errorf("%w: %q must be relative to the project", ErrInvalidTemplatePath, p)
	}
	if clean := path.Clean(p); clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: %q leaves the project", ErrInvalidTemplatePath, p)
	}
	return nil
}

// IsBuiltinRef reports whether ref names a built-in template rather than a
// file. The empty reference selects the default template.
func IsBuiltinRef(ref string) bool {
	return ref == "" || ValidateAssetName(ref) == nil
}
