package markdown

import (
	"io"

	"github.com/microcosm-cc/bluemonday"
)

// AllowedTags is the union of the prose set and the div/span wrappers the
// highlighter emits. Everything else is stripped, keeping its text.
var AllowedTags = []string{
	"p", "br",
	"h1", "h2", "h3", "h4", "h5",
	"pre", "code",
	"blockquote",
	"ul", "ol", "li",
	"strong", "em", "b", "i",
	"abbr", "acronym",
	"table", "thead", "tbody", "tr", "th", "td",
	"a",
	"div", "span",
}

// PolicySanitizer applies a bluemonday allow-list policy.
type PolicySanitizer struct {
	policy *bluemonday.Policy
}

// NewPolicySanitizer returns the sanitizer used by default renderers.
func NewPolicySanitizer() *PolicySanitizer {
	return &PolicySanitizer{policy: newPolicy()}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)
	p.AllowAttrs("class", "id").Globally()
	p.AllowAttrs("href", "title", "rel", "target").OnElements("a")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// Sanitize copies the allowed subset of the fragment in r to w.
func (s *PolicySanitizer) Sanitize(r io.Reader, w io.Writer) error {
	return s.policy.SanitizeReaderToWriter(r, w)
}
