package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageData is the data page templates are executed with.
type PageData struct {
	Title      string
	Mode       string
	PublicPath string
}

// PageRenderer renders HTML pages and links bundles into them.
type PageRenderer struct {
	tmpl *template.Template
}

// NewPageRenderer parses a page template. name identifies it in errors.
func NewPageRenderer(name, tmplContent string) (*PageRenderer, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(tmplContent)
	if err != nil {
		return nil, &Error{Path: name, Err: fmt.Errorf("%w: %v", ErrTemplate, err)}
	}
	return &PageRenderer{tmpl: tmpl}, nil
}

// Render executes the template and appends one <script> element per src,
// in order, at the end of the document body. The document is always
// completed into a full HTML page.
func (r *PageRenderer) Render(ctx context.Context, data PageData, scripts []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, &Error{Path: r.tmpl.Name(), Err: fmt.Errorf("%w: %v", ErrTemplate, err)}
	}

	doc, err := html.Parse(&buf)
	if err != nil {
		return nil, &Error{Path: r.tmpl.Name(), Err: fmt.Errorf("%w: %v", ErrTemplate, err)}
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		// html.Parse always synthesizes a body
		return nil, &Error{Path: r.tmpl.Name(), Err: fmt.Errorf("%w: document has no body", ErrTemplate)}
	}
	for _, src := range scripts {
		body.AppendChild(scriptNode(src))
	}

	out, err := renderHTML(doc, false)
	if err != nil {
		return nil, &Error{Path: r.tmpl.Name(), Err: fmt.Errorf("%w: %v", ErrTemplate, err)}
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return []byte(out), nil
}

func scriptNode(src string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr: []html.Attribute{
			{Key: "type", Val: "text/javascript"},
			{Key: "src", Val: src},
		},
	}
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
