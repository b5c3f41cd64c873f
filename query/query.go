// Package query composes the filtered, ordered views over posts that
// listings, tag pages and the feed are built from. The pipeline always runs
// visibility, then search, then tag scope, then ordering.
package query

import (
	"slices"
	"strings"
	"time"
)

// Order selects the direction of the (created_at, id) total order.
type Order int

const (
	// Newest sorts by creation time descending, ties by id descending.
	Newest Order = iota
	// Oldest sorts by creation time ascending, ties by id ascending.
	Oldest
)

// ParseOrder maps an order token to an Order. "old", "asc" and "oldest"
// select Oldest; everything else, including "", selects Newest.
func ParseOrder(token string) Order {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "old", "asc", "oldest":
		return Oldest
	default:
		return Newest
	}
}

// Token returns the canonical query-string value for o.
func (o Order) Token() string {
	if o == Oldest {
		return "old"
	}
	return "new"
}

// Viewer is the identity a query runs for.
type Viewer struct {
	ID            int64
	Authenticated bool
}

// Anonymous returns the viewer with no identity.
func Anonymous() Viewer {
	return Viewer{}
}

// User returns an authenticated viewer.
func User(id int64) Viewer {
	return Viewer{ID: id, Authenticated: true}
}

// CanSee reports whether v may see a post. Published posts are visible to
// everyone; unpublished ones only to their owner.
func (v Viewer) CanSee(published bool, ownerID int64) bool {
	return published || (v.Authenticated && v.ID == ownerID)
}

// Fields are the post attributes the pipeline reads.
type Fields struct {
	ID        int64
	Title     string
	Text      string
	Published bool
	OwnerID   int64
	CreatedAt time.Time
	TagSlugs  []string
}

// Subject is anything that can be filtered and ordered as a post.
type Subject interface {
	QueryFields() Fields
}

// Query describes one listing request.
type Query struct {
	Viewer  Viewer
	Search  string
	TagSlug string
	Order   Order
}

// Term returns the trimmed search term.
func (q Query) Term() string {
	return strings.TrimSpace(q.Search)
}

// Visible applies the visibility rule.
func (q Query) Visible(f Fields) bool {
	return q.Viewer.CanSee(f.Published, f.OwnerID)
}

// Matches reports whether the title or text contains the search term,
// ignoring case. An empty term matches everything.
func (q Query) Matches(f Fields) bool {
	term := strings.ToLower(q.Term())
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Title), term) ||
		strings.Contains(strings.ToLower(f.Text), term)
}

// Tagged reports whether f carries the scoped tag. No scope matches all.
func (q Query) Tagged(f Fields) bool {
	if q.TagSlug == "" {
		return true
	}
	return slices.Contains(f.TagSlugs, q.TagSlug)
}

// Compare orders a before b (negative), after b (positive), or equal (0)
// for the query's order. Only identical ids compare equal.
func (q Query) Compare(a, b Fields) int {
	c := a.CreatedAt.Compare(b.CreatedAt)
	if c == 0 {
		switch {
		case a.ID < b.ID:
			c = -1
		case a.ID > b.ID:
			c = 1
		}
	}
	if q.Order == Newest {
		return -c
	}
	return c
}

// Apply runs the full pipeline over items and returns a new slice.
func Apply[T Subject](items []T, q Query) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		f := it.QueryFields()
		if q.Visible(f) && q.Matches(f) && q.Tagged(f) {
			out = append(out, it)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		return q.Compare(a.QueryFields(), b.QueryFields())
	})
	return out
}
