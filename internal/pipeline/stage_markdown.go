package pipeline

import (
	"bytes"
	"context"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownStage renders Markdown to an HTML fragment and exports it as a
// string. Relative image and media sources are published as assets.
type MarkdownStage struct {
	md goldmark.Markdown
}

// NewMarkdownStage creates a MarkdownStage with GFM extensions and
// class-based syntax highlighting.
func NewMarkdownStage() *MarkdownStage {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
		),
	)
	return &MarkdownStage{md: md}
}

func (*MarkdownStage) Accepts(k Kind) bool { return k == KindRaw }
func (*MarkdownStage) Output() Kind        { return KindModule }

func (s *MarkdownStage) Run(ctx context.Context, u *Unit, _ StageOptions) error {
	var buf bytes.Buffer
	if err := s.md.Convert(u.Content, &buf); err != nil {
		return fmt.Errorf("%w: markdown: %v", ErrStageFailed, err)
	}
	fragment, err := rewriteAssetRefs(ctx, u, u.Dir(), buf.String())
	if err != nil {
		return err
	}
	u.Content = []byte("module.exports = " + quoteJS(fragment) + ";\n")
	u.Kind = KindModule
	return nil
}
