package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alnah/go-assetpipe/internal/fileutil"
)

var (
	cssImportPattern  = regexp.MustCompile(`(?m)^[ \t]*@import\s+(?:url\(\s*)?['"]?([^'")\s;]+)['"]?\s*\)?\s*([^;]*);`)
	cssURLPattern     = regexp.MustCompile(`url\(\s*(['"]?)([^'")]+)(['"]?)\s*\)`)
	lessVarDefPattern = regexp.MustCompile(`(?m)^[ \t]*@([\w-]+)\s*:\s*([^;]+);[ \t]*\n?`)
	lessVarRefPattern = regexp.MustCompile(`@([\w-]+)`)
)

// CSS at-rules that look like less variable references.
var cssAtRules = map[string]bool{
	"import": true, "media": true, "font-face": true, "keyframes": true,
	"supports": true, "charset": true, "page": true, "namespace": true,
	"layer": true, "container": true, "-webkit-keyframes": true,
}

// LessStage compiles the subset of LESS made of variables and line
// comments into plain CSS.
type LessStage struct{}

func (*LessStage) Accepts(k Kind) bool { return k == KindRaw }
func (*LessStage) Output() Kind        { return KindCSS }

func (*LessStage) Run(_ context.Context, u *Unit, _ StageOptions) error {
	css, err := compileLess(string(u.Content))
	if err != nil {
		return err
	}
	u.Content = []byte(css)
	u.Kind = KindCSS
	return nil
}

func compileLess(src string) (string, error) {
	src = stripLineComments(src)

	vars := make(map[string]string)
	src = replaceMasked(lessVarDefPattern, src, maskSource(src, maskLess), func(sub []string, _ []int) string {
		if cssAtRules[sub[1]] {
			return sub[0]
		}
		vars[sub[1]] = strings.TrimSpace(sub[2])
		return ""
	})

	var undefined string
	out := replaceMasked(lessVarRefPattern, src, maskSource(src, maskLess), func(sub []string, _ []int) string {
		name := sub[1]
		if cssAtRules[name] {
			return sub[0]
		}
		// variables may refer to earlier variables
		for depth := 0; depth < 8; depth++ {
			v, ok := vars[name]
			if !ok {
				if undefined == "" {
					undefined = name
				}
				return sub[0]
			}
			if !strings.HasPrefix(v, "@") {
				return v
			}
			name = v[1:]
		}
		return sub[0]
	})
	if undefined != "" {
		return "", fmt.Errorf("%w: less: variable @%s is undefined", ErrStageFailed, undefined)
	}
	return out, nil
}

// stripLineComments drops // comments along with the blanks before them.
// Slashes inside block comments, quoted strings and url(...) are kept.
func stripLineComments(src string) string {
	out := make([]byte, 0, len(src))
	var quote byte
	parens := 0
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case quote != 0:
			if c == '\\' && i+1 < len(src) {
				out = append(out, c)
				i++
				c = src[i]
			} else if c == quote || c == '\n' {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := len(src)
			if j := strings.Index(src[i+2:], "*/"); j >= 0 {
				end = i + 2 + j + 2
			}
			out = append(out, src[i:end]...)
			i = end - 1
			continue
		case c == '(':
			parens++
		case c == ')':
			if parens > 0 {
				parens--
			}
		case c == '\n':
			parens = 0
		case c == '/' && i+1 < len(src) && src[i+1] == '/' && parens == 0:
			for len(out) > 0 && (out[len(out)-1] == ' ' || out[len(out)-1] == '\t') {
				out = out[:len(out)-1]
			}
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				return string(out)
			}
			i += j - 1
			continue
		}
		out = append(out, c)
	}
	return string(out)
}

// CSSStage inlines @import rules and rewrites url() references to the
// URLs their assets are published under.
type CSSStage struct{}

func (*CSSStage) Accepts(k Kind) bool { return k == KindRaw || k == KindCSS }
func (*CSSStage) Output() Kind        { return KindCSS }

func (*CSSStage) Run(ctx context.Context, u *Unit, _ StageOptions) error {
	css, err := inlineCSS(ctx, u, u.Path, string(u.Content), []string{u.Path})
	if err != nil {
		return err
	}
	u.Content = []byte(css)
	u.Kind = KindCSS
	return nil
}

// inlineCSS rewrites the stylesheet at file, then splices in its imports.
// stack holds the files being inlined, outermost first.
func inlineCSS(ctx context.Context, u *Unit, file, css string, stack []string) (string, error) {
	dir := filepath.Dir(file)
	css, err := rewriteCSSURLs(ctx, u, dir, css)
	if err != nil {
		return "", err
	}

	var firstErr error
	out := replaceMasked(cssImportPattern, css, maskSource(css, maskCSS), func(sub []string, _ []int) string {
		m := sub[0]
		if firstErr != nil {
			return m
		}
		request, media := sub[1], strings.TrimSpace(sub[2])
		if isExternalCSSRef(request) {
			return m
		}
		target, err := u.host.Resolve(dir, cssRequest(request))
		if err != nil {
			firstErr = err
			return m
		}
		for _, open := range stack {
			if open == target {
				firstErr = fmt.Errorf("%w: %s imports %s", ErrImportCycle, filepath.Base(file), filepath.Base(target))
				return m
			}
		}
		data, err := os.ReadFile(target) // #nosec G304 -- resolved inside the project
		if err != nil {
			firstErr = fmt.Errorf("%w: %v", ErrUnresolved, err)
			return m
		}
		text := string(data)
		if strings.EqualFold(filepath.Ext(target), ".less") {
			if text, err = compileLess(text); err != nil {
				firstErr = err
				return m
			}
		}
		text, err = inlineCSS(ctx, u, target, text, append(stack[:len(stack):len(stack)], target))
		if err != nil {
			firstErr = err
			return m
		}
		if media != "" {
			return "@media " + media + " {\n" + text + "\n}"
		}
		return text
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func rewriteCSSURLs(ctx context.Context, u *Unit, dir, css string) (string, error) {
	var firstErr error
	out := replaceMasked(cssURLPattern, css, maskSource(css, maskCSS), func(sub []string, _ []int) string {
		m := sub[0]
		if firstErr != nil {
			return m
		}
		ref := strings.TrimSpace(sub[2])
		if isExternalCSSRef(ref) || strings.HasSuffix(ref, ".css") || strings.HasSuffix(ref, ".less") {
			return m
		}
		target, err := u.host.Reference(ctx, u, dir, cssRequest(ref))
		if err != nil {
			firstErr = err
			return m
		}
		return "url(" + quoteCSS(target) + ")"
	})
	return out, firstErr
}

// cssRequest maps a stylesheet reference to a module request: "~pkg/x"
// names a module, anything else is relative to the stylesheet.
func cssRequest(ref string) string {
	if rest, ok := strings.CutPrefix(ref, "~"); ok {
		return rest
	}
	if strings.HasPrefix(ref, "./") || strings.HasPrefix(ref, "../") {
		return ref
	}
	return "./" + ref
}

// isExternalCSSRef reports whether ref is left as written: external
// references and root-absolute paths are not project files.
func isExternalCSSRef(ref string) bool {
	return ref == "" ||
		fileutil.IsExternalRef(ref) ||
		strings.HasPrefix(ref, "/") ||
		strings.Contains(ref, "://")
}

func quoteCSS(s string) string {
	if strings.ContainsAny(s, " \t\n\"'()") {
		return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
	}
	return s
}

// StyleStage wraps a stylesheet in a module that injects it into the page
// as a <style> element and exports the CSS text.
type StyleStage struct{}

func (*StyleStage) Accepts(k Kind) bool { return k == KindCSS }
func (*StyleStage) Output() Kind        { return KindModule }

func (*StyleStage) Run(_ context.Context, u *Unit, _ StageOptions) error {
	u.Content = []byte(styleModule(string(u.Content)))
	u.Kind = KindModule
	return nil
}

func styleModule(css string) string {
	return "var css = " + quoteJS(css) + ";\n" + injectStyle("css") + "module.exports = css;\n"
}

// injectStyle returns a statement appending the CSS held by the JavaScript
// expression expr to the document head.
func injectStyle(expr string) string {
	return "(function (css) {\n" +
		"  if (typeof document === \"undefined\") return;\n" +
		"  var style = document.createElement(\"style\");\n" +
		"  style.appendChild(document.createTextNode(css));\n" +
		"  document.head.appendChild(style);\n" +
		"})(" + expr + ");\n"
}
