package pipeline

import (
	"regexp"
	"strings"
)

// maskMode selects what maskSource hides.
type maskMode int

const (
	maskCSS    maskMode = iota // block comments, string contents
	maskLess                   // as maskCSS, plus url() bodies that do not name a variable
	maskScript                 // block and line comments, string, template and regex literal contents
)

// maskSource returns a copy of src of the same length in which comments
// are blanked with spaces and literal contents with 'x'. Quote characters
// and newlines are kept, so patterns run on the mask see statements where
// they really are, and submatch offsets index the original text.
func maskSource(src string, mode maskMode) string {
	b := []byte(src)
	blank := func(from, to int, fill byte) {
		for i := from; i < to && i < len(b); i++ {
			if b[i] != '\n' {
				b[i] = fill
			}
		}
	}

	var prev byte // last significant byte, tells a regex literal from a division
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := len(src)
			if j := strings.Index(src[i+2:], "*/"); j >= 0 {
				end = i + 2 + j + 2
			}
			blank(i, end, ' ')
			i = end
		case mode == maskScript && c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := len(src)
			if j := strings.IndexByte(src[i:], '\n'); j >= 0 {
				end = i + j
			}
			blank(i, end, ' ')
			i = end
		case c == '"' || c == '\'' || (mode == maskScript && c == '`'):
			end := quotedEnd(src, i)
			blank(i+1, end, 'x')
			prev = c
			i = end + 1
		case mode == maskScript && c == '/' && regexMayFollow(prev):
			end := regexEnd(src, i)
			prev = '/'
			if end < len(src) && src[end] == '/' {
				blank(i+1, end, 'x')
				i = end + 1
			} else {
				i++
			}
		case mode == maskLess && hasURLOpen(src, i):
			open := i + len("url(")
			end := strings.IndexByte(src[open:], ')')
			if end < 0 {
				i = open
				break
			}
			end += open
			body := strings.TrimSpace(src[open:end])
			if body != "" && body[0] != '@' && body[0] != '"' && body[0] != '\'' {
				blank(open, end, 'x')
				i = end
			} else {
				i = open
			}
		default:
			if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
				prev = c
			}
			i++
		}
	}
	return string(b)
}

// quotedEnd returns the index of the quote closing the literal that opens
// at i. Unterminated string literals stop at the end of their line.
func quotedEnd(src string, i int) int {
	q := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case q:
			return j
		case '\n':
			if q != '`' {
				return j
			}
		}
	}
	return len(src)
}

// regexEnd returns the index of the slash closing the regex literal that
// opens at i, or of the newline where the candidate gives up.
func regexEnd(src string, i int) int {
	inClass := false
	for j := i + 1; j < len(src); j++ {
		switch c := src[j]; {
		case c == '\\':
			j++
		case c == '\n':
			return j
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '/':
			return j
		}
	}
	return len(src)
}

// regexMayFollow reports whether a slash after prev starts a regex literal
// rather than a division.
func regexMayFollow(prev byte) bool {
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

func hasURLOpen(src string, i int) bool {
	if i+4 > len(src) || !strings.EqualFold(src[i:i+4], "url(") {
		return false
	}
	return i == 0 || !isCSSIdentByte(src[i-1])
}

func isCSSIdentByte(c byte) bool {
	return c == '_' || c == '$' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// replaceMasked works like ReplaceAllStringFunc, except that re matches
// against masked while repl receives the submatches of src at the same
// offsets, along with their index pairs.
func replaceMasked(re *regexp.Regexp, src, masked string, repl func(sub []string, loc []int) string) string {
	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(masked, -1) {
		sub := make([]string, len(loc)/2)
		for i := range sub {
			if loc[2*i] >= 0 {
				sub[i] = src[loc[2*i]:loc[2*i+1]]
			}
		}
		b.WriteString(src[last:loc[0]])
		b.WriteString(repl(sub, loc))
		last = loc[1]
	}
	b.WriteString(src[last:])
	return b.String()
}
