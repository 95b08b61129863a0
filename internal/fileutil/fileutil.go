// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permission constants.
const (
	DirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	FilePermissions = 0o644 // rw-r--r--: build output is meant to be served
)

// Sentinel errors for file utility operations.
var (
	ErrUnsafeClean = errors.New("refusing to clean directory")
	ErrOutsideDir  = errors.New("path escapes directory")
)

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists returns true if the path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsURL returns true if the string looks like a URL.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsExternalRef reports whether a reference found in source text points
// outside the project: URLs, protocol-relative URLs, data URIs and anchors.
func IsExternalRef(s string) bool {
	return IsURL(s) ||
		strings.HasPrefix(s, "//") ||
		strings.HasPrefix(s, "data:") ||
		strings.HasPrefix(s, "#")
}

// HasPathSegment reports whether any element of path equals segment.
//
// Examples:
//   - ("node_modules/vue/index.js", "node_modules") -> true
//   - ("src/my_node_modules/a.js", "node_modules") -> false
func HasPathSegment(path, segment string) bool {
	if segment == "" {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == segment {
			return true
		}
	}
	return false
}

// IsWithin reports whether path is dir itself or lies under it.
func IsWithin(path, dir string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(dir)
	if cleanPath == cleanDir {
		return true
	}
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(cleanPath, cleanDir)
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPermissions); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	// #nosec G306 -- build artifacts are meant to be readable
	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// CleanDir removes everything inside dir but keeps dir itself.
// The directory must not contain root, since cleaning it would wipe sources.
func CleanDir(dir, root string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	if absDir == filepath.Dir(absDir) || IsWithin(absRoot, absDir) {
		return fmt.Errorf("%w: %s contains the project root", ErrUnsafeClean, absDir)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(absDir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Rel returns target relative to base using forward slashes.
// Falls back to the slash form of target when no relative path exists.
func Rel(base, target string) string {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(target)
	}
	return filepath.ToSlash(rel)
}
