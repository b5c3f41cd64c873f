package views

import (
	"io"
	"strconv"
	"time"

	"github.com/a-h/templ"
)

// writer accumulates HTML and remembers the first write error.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

// text writes s HTML-escaped.
func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

// attr writes name="value" with value escaped, preceded by a space.
func (w *writer) attr(name, value string) {
	w.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	if active {
		return "tag tag-active"
	}
	return "tag"
}

// FormatDate renders a post timestamp for listings.
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// ReadingTime formats minutes as "N min read".
func ReadingTime(minutes int) string {
	return strconv.Itoa(minutes) + " min read"
}

// PageLink returns the listing URL for page n, keeping the other parameters.
func PageLink(base, keep string, n int) string {
	return base + "?" + keep + "page=" + strconv.Itoa(n)
}
