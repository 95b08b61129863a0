package pipeline

import (
	"context"
	"io"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// assetAttrs lists the element attributes whose relative targets are
// treated as asset references in templates and rendered Markdown.
var assetAttrs = map[string][]string{
	"img":    {"src"},
	"video":  {"src", "poster"},
	"audio":  {"src"},
	"source": {"src"},
	"image":  {"href", "xlink:href"},
	"use":    {"href", "xlink:href"},
}

// rewriteAssetRefs replaces relative asset references in an HTML fragment
// with the URLs the host publishes them under. Tags without a reference are
// copied byte for byte, so template syntax survives untouched.
func rewriteAssetRefs(ctx context.Context, u *Unit, fromDir, fragment string) (string, error) {
	if !strings.Contains(fragment, "<") {
		return fragment, nil
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return b.String(), nil
		}
		raw := string(z.Raw())
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			b.WriteString(raw)
			continue
		}
		tok := z.Token()
		changed, err := rewriteAttrs(ctx, &tok, u, fromDir)
		if err != nil {
			return "", err
		}
		if changed {
			b.WriteString(tok.String())
		} else {
			b.WriteString(raw)
		}
	}
}

func rewriteAttrs(ctx context.Context, tok *html.Token, u *Unit, fromDir string) (bool, error) {
	keys := assetAttrs[tok.Data]
	changed := false
	for i, attr := range tok.Attr {
		if !slices.Contains(keys, attr.Key) || !isRelativeRef(attr.Val) {
			continue
		}
		url, err := u.host.Reference(ctx, u, fromDir, cssRequest(attr.Val))
		if err != nil {
			return false, err
		}
		tok.Attr[i].Val = url
		changed = true
	}
	return changed, nil
}

// parseHTML parses HTML content, handling both full documents and fragments.
// Returns the parsed node, whether it was a fragment, and any error.
func parseHTML(content string) (*html.Node, bool, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	// Fragment: parse with body context to avoid wrapping
	body := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}

	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the document back to string.
// For fragments, only renders the children (avoids adding <html><body> wrapper).
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder

	if isFragment {
		for c := doc.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// isRelativeRef reports whether ref points at a project file. Vue-style
// bindings (`{{ }}`), absolute paths and URLs are left alone.
func isRelativeRef(ref string) bool {
	return !isExternalCSSRef(ref) && !strings.Contains(ref, "{{")
}
