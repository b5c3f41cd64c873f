package markdown

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"mvdan.cc/xurls/v2"
)

// TokenLinkifier walks sanitized HTML token by token. Text outside pre, code
// and existing anchors has its URLs wrapped in anchors; every anchor gets
// rel="nofollow". The output is re-serialized with every element closed.
type TokenLinkifier struct {
	urls   *regexp.Regexp
	scheme *regexp.Regexp
}

// NewTokenLinkifier returns a linkifier that recognizes URLs with or without
// a scheme. Scheme-less matches such as www.example.com link to http.
func NewTokenLinkifier() *TokenLinkifier {
	return &TokenLinkifier{urls: xurls.Relaxed(), scheme: xurls.Strict()}
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

func noLinks(a atom.Atom) bool {
	return a == atom.A || a == atom.Pre || a == atom.Code
}

// Linkify copies r to w, hardening links on the way. Stray end tags are
// dropped and elements left open at the end are closed.
func (l *TokenLinkifier) Linkify(r io.Reader, w io.Writer) error {
	z := html.NewTokenizer(r)
	var open []html.Token
	skip := 0

	closeFrom := func(i int) error {
		for j := len(open) - 1; j >= i; j-- {
			if noLinks(open[j].DataAtom) {
				skip--
			}
			end := html.Token{Type: html.EndTagToken, DataAtom: open[j].DataAtom, Data: open[j].Data}
			if _, err := io.WriteString(w, end.String()); err != nil {
				return err
			}
		}
		open = open[:i]
		return nil
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return closeFrom(0)
			}
			return z.Err()
		case html.StartTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.A {
				tok.Attr = nofollow(tok.Attr)
			}
			if !voidElements[tok.DataAtom] {
				open = append(open, tok)
				if noLinks(tok.DataAtom) {
					skip++
				}
			}
			if _, err := io.WriteString(w, tok.String()); err != nil {
				return err
			}
		case html.EndTagToken:
			tok := z.Token()
			for i := len(open) - 1; i >= 0; i-- {
				if open[i].Data == tok.Data {
					if err := closeFrom(i); err != nil {
						return err
					}
					break
				}
			}
		case html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.A {
				tok.Attr = nofollow(tok.Attr)
			}
			if _, err := io.WriteString(w, tok.String()); err != nil {
				return err
			}
		case html.TextToken:
			tok := z.Token()
			out := tok.String()
			if skip == 0 {
				out = l.linkText(tok.Data)
			}
			if _, err := io.WriteString(w, out); err != nil {
				return err
			}
		default:
			if _, err := io.WriteString(w, z.Token().String()); err != nil {
				return err
			}
		}
	}
}

// linkText escapes s and wraps each safe URL in it with an anchor.
func (l *TokenLinkifier) linkText(s string) string {
	matches := l.urls.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return html.EscapeString(s)
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		link := s[m[0]:m[1]]
		href := link
		if loc := l.scheme.FindStringIndex(link); loc == nil || loc[0] != 0 {
			// Bare addresses stay text.
			if strings.Contains(link, "@") {
				continue
			}
			href = "http://" + link
		}
		if SafeURL(href) == "" {
			continue
		}
		b.WriteString(html.EscapeString(s[last:m[0]]))
		a := html.Token{
			Type:     html.StartTagToken,
			DataAtom: atom.A,
			Data:     "a",
			Attr: []html.Attribute{
				{Key: "href", Val: href},
				{Key: "rel", Val: "nofollow"},
			},
		}
		b.WriteString(a.String())
		b.WriteString(html.EscapeString(link))
		b.WriteString("</a>")
		last = m[1]
	}
	b.WriteString(html.EscapeString(s[last:]))
	return b.String()
}

// nofollow adds "nofollow" to the rel attribute, creating it if needed.
func nofollow(attrs []html.Attribute) []html.Attribute {
	for i, a := range attrs {
		if a.Namespace != "" || a.Key != "rel" {
			continue
		}
		for _, v := range strings.Fields(a.Val) {
			if strings.EqualFold(v, "nofollow") {
				return attrs
			}
		}
		attrs[i].Val = strings.TrimSpace(a.Val + " nofollow")
		return attrs
	}
	return append(attrs, html.Attribute{Key: "rel", Val: "nofollow"})
}
