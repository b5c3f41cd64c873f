package query

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type post struct {
	id        int64
	title     string
	text      string
	published bool
	owner     int64
	created   time.Time
	tags      []string
}

func (p post) QueryFields() Fields {
	return Fields{
		ID:        p.id,
		Title:     p.title,
		Text:      p.text,
		Published: p.published,
		OwnerID:   p.owner,
		CreatedAt: p.created,
		TagSlugs:  p.tags,
	}
}

func ids(posts []post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.id
	}
	return out
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		token string
		want  Order
	}{
		{"", Newest},
		{"new", Newest},
		{"newest", Newest},
		{"desc", Newest},
		{"bogus", Newest},
		{"old", Oldest},
		{"OLD", Oldest},
		{"asc", Oldest},
		{" oldest ", Oldest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseOrder(tt.token), "token %q", tt.token)
	}
	assert.Equal(t, "new", Newest.Token())
	assert.Equal(t, "old", Oldest.Token())
}

func TestApplyOrdersWithIDTieBreak(t *testing.T) {
	posts := []post{
		{id: 3, published: true, created: t0},
		{id: 1, published: true, created: t0},
		{id: 2, published: true, created: t0.Add(time.Second)},
	}

	got := Apply(posts, Query{Order: ParseOrder("old")})
	assert.Equal(t, []int64{1, 3, 2}, ids(got))

	got = Apply(posts, Query{Order: ParseOrder("new")})
	assert.Equal(t, []int64{2, 3, 1}, ids(got))

	assert.Equal(t, []int64{3, 1, 2}, ids(posts), "input must not be reordered")
}

func TestApplyVisibility(t *testing.T) {
	posts := []post{
		{id: 1, title: "A", published: true, owner: 9, created: t0},
		{id: 2, title: "B", published: false, owner: 1, created: t0.Add(time.Minute)},
	}

	assert.Equal(t, []int64{1}, ids(Apply(posts, Query{Viewer: Anonymous()})))
	assert.Equal(t, []int64{2, 1}, ids(Apply(posts, Query{Viewer: User(1)})))
	assert.Equal(t, []int64{1}, ids(Apply(posts, Query{Viewer: User(2)})))
}

func TestViewerZeroIDIsNotOwner(t *testing.T) {
	assert.False(t, Anonymous().CanSee(false, 0), "anonymous must not match an owner id of zero")
	assert.True(t, User(0).CanSee(false, 0))
}

func TestApplySearch(t *testing.T) {
	posts := []post{
		{id: 1, title: "Go Generics", text: "type params", published: true, created: t0},
		{id: 2, title: "Cooking", text: "how to GO shopping", published: true, created: t0.Add(time.Minute)},
		{id: 3, title: "Rust", text: "ownership", published: true, created: t0.Add(2 * time.Minute)},
		{id: 4, title: "go draft", text: "", published: false, owner: 7, created: t0.Add(3 * time.Minute)},
	}

	assert.Equal(t, []int64{2, 1}, ids(Apply(posts, Query{Search: "go"})))
	assert.Equal(t, []int64{4, 2, 1}, ids(Apply(posts, Query{Search: " GO ", Viewer: User(7)})))
	assert.Equal(t, []int64{3, 2, 1}, ids(Apply(posts, Query{Search: "   "})))
	assert.Empty(t, Apply(posts, Query{Search: "python"}))
}

func TestApplyTagScope(t *testing.T) {
	posts := []post{
		{id: 1, published: true, created: t0, tags: []string{"go", "web"}},
		{id: 2, published: true, created: t0.Add(time.Minute), tags: []string{"web"}},
		{id: 3, published: true, created: t0.Add(2 * time.Minute)},
	}

	assert.Equal(t, []int64{2, 1}, ids(Apply(posts, Query{TagSlug: "web"})))
	assert.Equal(t, []int64{1}, ids(Apply(posts, Query{TagSlug: "go", Order: Oldest})))
	assert.Empty(t, Apply(posts, Query{TagSlug: "rust"}))
}

func TestApplyEmpty(t *testing.T) {
	got := Apply([]post(nil), Query{})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name                  string
		total, number, size   int
		wantNumber, wantPages int
		wantOffset            int
		prev, next            bool
	}{
		{"empty", 0, 1, 5, 1, 1, 0, false, false},
		{"first", 12, 1, 5, 1, 3, 0, false, true},
		{"middle", 12, 2, 5, 2, 3, 5, true, true},
		{"last", 12, 3, 5, 3, 3, 10, true, false},
		{"past end clamps", 12, 9, 5, 3, 3, 10, true, false},
		{"zero clamps", 12, 0, 5, 1, 3, 0, false, true},
		{"exact fit", 10, 2, 5, 2, 2, 5, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(tt.total, tt.number, tt.size)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantPages, p.Pages)
			assert.Equal(t, tt.wantOffset, p.Offset)
			assert.Equal(t, tt.prev, p.HasPrev())
			assert.Equal(t, tt.next, p.HasNext())
		})
	}
}

func TestWindowsAreStableAndDisjoint(t *testing.T) {
	var posts []post
	for i := int64(1); i <= 11; i++ {
		// Every three posts share a timestamp.
		posts = append(posts, post{id: i, published: true, created: t0.Add(time.Duration(i/3) * time.Second)})
	}
	q := Query{Order: Newest}

	seen := map[int64]bool{}
	for n := 1; n <= 3; n++ {
		page := Paginate(len(posts), n, 5)
		first := Window(Apply(posts, q), page)
		again := Window(Apply(posts, q), page)
		require.Equal(t, ids(first), ids(again))
		for _, p := range first {
			require.False(t, seen[p.id], "post %d appears on two pages", p.id)
			seen[p.id] = true
		}
	}
	assert.Len(t, seen, 11)
}

func TestParamsQueryStrings(t *testing.T) {
	values, err := url.ParseQuery("q=go&order=old&page=3&tag=x")
	require.NoError(t, err)

	p := ParseParams(values)
	assert.Equal(t, "go", p.Search)
	assert.Equal(t, Oldest, p.Order)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, "order=old&q=go&tag=x&", p.KeepQuery())
	assert.Equal(t, "q=go&tag=x&", p.NoOrderQuery())

	q := p.Query(User(4), "web")
	assert.Equal(t, Query{Viewer: User(4), Search: "go", TagSlug: "web", Order: Oldest}, q)

	empty := ParseParams(url.Values{"page": {"-2"}})
	assert.Equal(t, 1, empty.Page)
	assert.Equal(t, Newest, empty.Order)
	assert.Equal(t, "", empty.KeepQuery())
	assert.Equal(t, "", empty.NoOrderQuery())
}
