package markdown

import (
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// GoldmarkTranslator renders Markdown with goldmark. Raw HTML is passed
// through untouched so the sanitizer, not the parser, decides what survives.
type GoldmarkTranslator struct {
	md goldmark.Markdown
}

// NewGoldmarkTranslator builds the translator with tables, strikethrough,
// task lists, heading ids and class-based code highlighting.
func NewGoldmarkTranslator() *GoldmarkTranslator {
	return &GoldmarkTranslator{md: newGoldmark()}
}

func newGoldmark() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
			highlighting.NewHighlighting(
				highlighting.WithGuessLanguage(false),
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// plainLanguage is the lexer name given to fences without an info string.
const plainLanguage = "text"

// Translate writes the HTML for src to w. Fences without a language are
// highlighted as plain text so every code block carries the same markup.
func (t *GoldmarkTranslator) Translate(src []byte, w io.Writer) error {
	doc := t.md.Parser().Parse(text.NewReader(src))

	// Info segments point into the source, so the fallback name is appended
	// to a copy of it.
	ext := append(src[:len(src):len(src)], plainLanguage...)
	info := text.NewSegment(len(src), len(ext))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fence, ok := n.(*ast.FencedCodeBlock); ok && fence.Info == nil {
			fence.Info = ast.NewTextSegment(info)
		}
		return ast.WalkContinue, nil
	})
	return t.md.Renderer().Render(w, ext, doc)
}

// Heading is one entry of a post's table of contents.
type Heading struct {
	Level int
	ID    string
	Text  string
}

var tocParser = newGoldmark().Parser()

// TOC lists the headings of raw in document order. IDs match the ones the
// rendered HTML carries.
func TOC(raw string) []Heading {
	src := []byte(raw)
	doc := tocParser.Parse(text.NewReader(src))

	var headings []Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var id string
		if v, ok := h.AttributeString("id"); ok {
			switch v := v.(type) {
			case []byte:
				id = string(v)
			case string:
				id = v
			}
		}
		headings = append(headings, Heading{
			Level: h.Level,
			ID:    id,
			Text:  string(h.Text(src)),
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}
