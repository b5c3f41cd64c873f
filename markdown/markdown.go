// Package markdown turns untrusted Markdown into HTML that is safe to embed
// in a page. Rendering runs three stages in order: translation to HTML,
// allow-list sanitizing, and link hardening.
package markdown

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// Translator converts Markdown source to (untrusted) HTML.
type Translator interface {
	Translate(src []byte, w io.Writer) error
}

// Sanitizer strips everything outside its allow-list from an HTML fragment.
type Sanitizer interface {
	Sanitize(r io.Reader, w io.Writer) error
}

// Linkifier turns bare URLs into anchors and annotates every anchor.
type Linkifier interface {
	Linkify(r io.Reader, w io.Writer) error
}

// ErrSanitize wraps any failure of the sanitizing stage. No HTML is
// returned alongside it.
var ErrSanitize = errors.New("markdown: sanitize")

// Renderer runs the rendering pipeline. A Renderer is immutable after
// construction and safe for concurrent use.
type Renderer struct {
	translator Translator
	sanitizer  Sanitizer
	linkifier  Linkifier
}

// Option replaces one stage of a Renderer.
type Option func(*Renderer)

// WithTranslator sets the Markdown-to-HTML stage.
func WithTranslator(t Translator) Option {
	return func(r *Renderer) { r.translator = t }
}

// WithSanitizer sets the sanitizing stage.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Renderer) { r.sanitizer = s }
}

// WithLinkifier sets the link hardening stage.
func WithLinkifier(l Linkifier) Option {
	return func(r *Renderer) { r.linkifier = l }
}

// New returns a Renderer using goldmark, bluemonday and the token
// linkifier unless options replace them.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		translator: NewGoldmarkTranslator(),
		sanitizer:  NewPolicySanitizer(),
		linkifier:  NewTokenLinkifier(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRenderer = New()

// Render renders raw with the default Renderer.
func Render(raw string) (string, error) {
	return defaultRenderer.Render(raw)
}

// Render converts raw Markdown into sanitized HTML. Malformed input never
// fails; only a broken sanitizer or linkifier returns an error, and then the
// result is empty.
func (r *Renderer) Render(raw string) (string, error) {
	var translated bytes.Buffer
	if err := r.translator.Translate([]byte(raw), &translated); err != nil {
		translated.Reset()
		translated.WriteString("<p>")
		translated.WriteString(html.EscapeString(raw))
		translated.WriteString("</p>")
	}

	var clean bytes.Buffer
	if err := r.sanitizer.Sanitize(&translated, &clean); err != nil {
		return "", fmt.Errorf("%w: %v", ErrSanitize, err)
	}

	var out bytes.Buffer
	if err := r.linkifier.Linkify(&clean, &out); err != nil {
		return "", fmt.Errorf("markdown: linkify: %w", err)
	}
	return out.String(), nil
}

// Component returns a templ.Component that writes the rendered HTML of raw.
// If rendering fails nothing is written and the error is returned.
func Component(raw string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		out, err := Render(raw)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	})
}

// SafeURL returns raw if it is relative, a fragment, or uses one of the
// http, https or mailto schemes. Anything else yields "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(raw)
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto":
		return val
	default:
		return ""
	}
}
