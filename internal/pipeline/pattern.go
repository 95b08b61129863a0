package pipeline

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Placeholders recognized in output name patterns.
const (
	PlaceholderName        = "name"
	PlaceholderHash        = "hash"
	PlaceholderContentHash = "contenthash"
	PlaceholderChunkHash   = "chunkhash"
	PlaceholderExt         = "ext"
)

// MaxHashLength bounds the [hash:N] length, the size of a hex sha256 digest.
const MaxHashLength = 64

// NameVars holds the values substituted into a NamePattern.
type NameVars struct {
	Name string // entry name or asset base name without extension
	Hash string // full hex fingerprint, truncated per placeholder
	Ext  string // extension without the leading dot
}

// NamePattern is a parsed output filename pattern such as
// "[name].[hash:6].js" or "image/[name].[hash:8].[ext]".
type NamePattern struct {
	raw   string
	parts []patternPart
}

type patternPart struct {
	literal     string
	placeholder string
	length      int // 0 = default hash length
}

// ParseNamePattern parses and validates a filename pattern.
// Patterns must be relative, must not climb out of the output directory,
// and may only use the known placeholders.
func ParseNamePattern(s string) (*NamePattern, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if strings.HasPrefix(s, "/") || strings.Contains(s, "\\") || strings.ContainsRune(s, 0) {
		return nil, fmt.Errorf("%w: %q must be a relative slash-separated path", ErrInvalidPattern, s)
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return nil, fmt.Errorf("%w: %q escapes the output directory", ErrInvalidPattern, s)
		}
	}

	p := &NamePattern{raw: s}
	rest := s
	for rest != "" {
		open := strings.IndexByte(rest, '[')
		if open == -1 {
			p.parts = append(p.parts, patternPart{literal: rest})
			break
		}
		if open > 0 {
			p.parts = append(p.parts, patternPart{literal: rest[:open]})
		}
		end := strings.IndexByte(rest[open:], ']')
		if end == -1 {
			return nil, fmt.Errorf("%w: %q has an unterminated placeholder", ErrInvalidPattern, s)
		}
		part, err := parsePlaceholder(rest[open+1 : open+end])
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, s, err)
		}
		p.parts = append(p.parts, part)
		rest = rest[open+end+1:]
	}
	return p, nil
}

// MustParseNamePattern is like ParseNamePattern but panics on error.
// Intended for package-level defaults.
func MustParseNamePattern(s string) *NamePattern {
	p, err := ParseNamePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parsePlaceholder(body string) (patternPart, error) {
	name, lengthStr, hasLength := strings.Cut(body, ":")
	switch name {
	case PlaceholderName, PlaceholderExt:
		if hasLength {
			return patternPart{}, fmt.Errorf("[%s] does not take a length", name)
		}
		return patternPart{placeholder: name}, nil
	case PlaceholderHash, PlaceholderContentHash, PlaceholderChunkHash:
		part := patternPart{placeholder: PlaceholderHash}
		if hasLength {
			n, err := strconv.Atoi(lengthStr)
			if err != nil || n < 1 || n > MaxHashLength {
				return patternPart{}, fmt.Errorf("hash length %q must be between 1 and %d", lengthStr, MaxHashLength)
			}
			part.length = n
		}
		return part, nil
	default:
		return patternPart{}, fmt.Errorf("unknown placeholder [%s]", body)
	}
}

// String returns the pattern as written.
func (p *NamePattern) String() string { return p.raw }

// UsesHash reports whether the pattern contains a hash placeholder.
func (p *NamePattern) UsesHash() bool {
	for _, part := range p.parts {
		if part.placeholder == PlaceholderHash {
			return true
		}
	}
	return false
}

// UsesName reports whether the pattern contains [name].
func (p *NamePattern) UsesName() bool {
	for _, part := range p.parts {
		if part.placeholder == PlaceholderName {
			return true
		}
	}
	return false
}

// Render substitutes vars into the pattern. Hash placeholders without an
// explicit length use defaultHashLength; lengths are clamped to the digest.
func (p *NamePattern) Render(vars NameVars, defaultHashLength int) string {
	var b strings.Builder
	for _, part := range p.parts {
		switch part.placeholder {
		case "":
			b.WriteString(part.literal)
		case PlaceholderName:
			b.WriteString(vars.Name)
		case PlaceholderExt:
			b.WriteString(vars.Ext)
		case PlaceholderHash:
			n := part.length
			if n == 0 {
				n = defaultHashLength
			}
			b.WriteString(truncate(vars.Hash, n))
		}
	}
	return path.Clean(b.String())
}

func truncate(s string, n int) string {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}
