package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// sfcBlock is a top-level <template>, <script> or <style> block of a
// single-file component.
type sfcBlock struct {
	tag     string
	attrs   map[string]string
	content string
}

var (
	sfcOpenPattern = regexp.MustCompile(`(?i)<(template|script|style)(\s[^>]*)?>`)
	sfcAttrPattern = regexp.MustCompile(`([\w:-]+)(?:\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+)))?`)
	templateTag    = regexp.MustCompile(`(?i)<(/?)template(?:\s[^>]*)?>`)
)

// VueStage compiles a single-file component into a module: the script
// block becomes the module body, the template is attached to the exported
// component options and style blocks are injected when the module loads.
type VueStage struct{}

func (*VueStage) Accepts(k Kind) bool { return k == KindRaw }
func (*VueStage) Output() Kind        { return KindModule }

func (*VueStage) Run(ctx context.Context, u *Unit, _ StageOptions) error {
	blocks, err := splitSFC(string(u.Content))
	if err != nil {
		return err
	}

	var template, script *sfcBlock
	var styles []*sfcBlock
	for _, b := range blocks {
		switch b.tag {
		case "template":
			if template != nil {
				return fmt.Errorf("%w: vue: more than one <template> block", ErrStageFailed)
			}
			template = b
		case "script":
			if script != nil {
				return fmt.Errorf("%w: vue: more than one <script> block", ErrStageFailed)
			}
			script = b
		case "style":
			styles = append(styles, b)
		}
	}

	var out strings.Builder
	if script != nil {
		if lang := script.attrs["lang"]; lang != "" && lang != "js" {
			return fmt.Errorf("%w: vue: unsupported script lang %q", ErrStageFailed, lang)
		}
		code, deps, err := rewriteModule(script.content, func(request string) (string, error) {
			return u.host.Require(u.Dir(), request)
		})
		if err != nil {
			return err
		}
		for _, id := range deps {
			u.addDep(id)
		}
		out.WriteString(code)
	} else {
		out.WriteString("module.exports = {};\n")
	}
	out.WriteString("var __exp = module.exports;\n")
	out.WriteString("var __component = __exp.__esModule ? __exp.default : __exp;\n")

	if template != nil {
		if lang := template.attrs["lang"]; lang != "" && lang != "html" {
			return fmt.Errorf("%w: vue: unsupported template lang %q", ErrStageFailed, lang)
		}
		body := strings.TrimSpace(template.content)
		if err := checkSingleRoot(body); err != nil {
			return err
		}
		if body, err = rewriteAssetRefs(ctx, u, u.Dir(), body); err != nil {
			return err
		}
		out.WriteString("__component.template = " + quoteJS(body) + ";\n")
	}

	for i, st := range styles {
		if _, scoped := st.attrs["scoped"]; scoped {
			return fmt.Errorf("%w: vue: <style scoped> is not supported (style block %d)", ErrStageFailed, i)
		}
		css := st.content
		switch lang := st.attrs["lang"]; lang {
		case "", "css":
		case "less":
			if css, err = compileLess(css); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: vue: unsupported style lang %q", ErrStageFailed, lang)
		}
		if css, err = inlineCSS(ctx, u, u.Path, css, []string{u.Path}); err != nil {
			return err
		}
		out.WriteString(injectStyle(quoteJS(css)))
	}

	if mode := u.host.Mode(); mode != "none" {
		u.Content = []byte(strings.ReplaceAll(out.String(), nodeEnvRef, quoteJS(mode)))
	} else {
		u.Content = []byte(out.String())
	}
	u.Kind = KindModule
	return nil
}

// splitSFC returns the top-level blocks of a single-file component in
// source order.
func splitSFC(src string) ([]*sfcBlock, error) {
	var blocks []*sfcBlock
	rest := src
	for {
		loc := sfcOpenPattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			return blocks, nil
		}
		tag := strings.ToLower(rest[loc[2]:loc[3]])
		var attrText string
		if loc[4] >= 0 {
			attrText = rest[loc[4]:loc[5]]
		}
		body := rest[loc[1]:]

		var end, next int
		if tag == "template" {
			end, next = matchTemplateClose(body)
		} else {
			closeTag := "</" + tag + ">"
			end = strings.Index(strings.ToLower(body), closeTag)
			next = end + len(closeTag)
		}
		if end < 0 {
			return nil, fmt.Errorf("%w: vue: unclosed <%s> block", ErrStageFailed, tag)
		}
		blocks = append(blocks, &sfcBlock{
			tag:     tag,
			attrs:   parseSFCAttrs(attrText),
			content: body[:end],
		})
		rest = body[next:]
	}
}

// matchTemplateClose finds the </template> closing the outer block,
// skipping nested <template> elements. It returns the offsets of the
// closing tag's start and end, or -1 when it is missing.
func matchTemplateClose(body string) (int, int) {
	depth := 1
	for _, loc := range templateTag.FindAllStringSubmatchIndex(body, -1) {
		if loc[3] > loc[2] {
			depth--
			if depth == 0 {
				return loc[0], loc[1]
			}
			continue
		}
		if !strings.HasSuffix(body[loc[0]:loc[1]], "/>") {
			depth++
		}
	}
	return -1, -1
}

func parseSFCAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range sfcAttrPattern.FindAllStringSubmatch(s, -1) {
		attrs[strings.ToLower(m[1])] = m[2] + m[3] + m[4]
	}
	return attrs
}

// checkSingleRoot rejects templates that do not have exactly one root
// element.
func checkSingleRoot(body string) error {
	doc, _, err := parseHTML(body)
	if err != nil {
		return fmt.Errorf("%w: vue: template: %v", ErrStageFailed, err)
	}
	roots := 0
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			roots++
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return fmt.Errorf("%w: vue: template has text outside its root element", ErrStageFailed)
			}
		}
	}
	if roots != 1 {
		return fmt.Errorf("%w: vue: template must have exactly one root element, found %d", ErrStageFailed, roots)
	}
	return nil
}
