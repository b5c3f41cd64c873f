package inkpost

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/inkpost/query"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "blog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fixedClock makes every write share one timestamp so ordering falls back
// to the id tie-break.
func fixedClock(s *Store) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }
}

// tickingClock advances one minute per write.
func tickingClock(s *Store) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		at = at.Add(time.Minute)
		return at
	}
}

func mustUser(t *testing.T, s *Store, name string) User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, "secret-"+name)
	require.NoError(t, err)
	return u
}

func mustPost(t *testing.T, s *Store, owner int64, in PostInput) Post {
	t.Helper()
	p, err := s.CreatePost(context.Background(), owner, in)
	require.NoError(t, err)
	return p
}

func ids(posts []Post) []int64 {
	out := make([]int64, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestUsers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := mustUser(t, s, "ann")
	assert.Equal(t, "ann", u.Username)

	got, err := s.Authenticate(ctx, "ann", "secret-ann")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.Authenticate(ctx, "ann", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "bob", "secret-bob")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.CreateUser(ctx, "ann", "other")
	assert.ErrorIs(t, err, ErrDuplicateUser)

	byID, err := s.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", byID.Username)
	_, err = s.UserByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePostValidation(t *testing.T) {
	s := setupTestStore(t)
	u := mustUser(t, s, "ann")

	_, err := s.CreatePost(context.Background(), u.ID, PostInput{Body: "text"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, FieldErrors(err), "title")

	long := make([]rune, maxTitleLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = s.CreatePost(context.Background(), u.ID, PostInput{Title: string(long), Body: "b"})
	assert.True(t, IsValidation(err))
}

func TestPostRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	tickingClock(s)
	ctx := context.Background()
	u := mustUser(t, s, "ann")

	p := mustPost(t, s, u.ID, PostInput{
		Title:     "  Hello  ",
		Body:      "# Hi\n\nbody",
		Tags:      []string{"Web", "Go", "go"},
		Published: true,
	})
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, "ann", p.Owner)
	assert.Equal(t, []string{"Go", "Web"}, p.TagNames())
	assert.False(t, p.CreatedAt.IsZero())

	updated, err := s.UpdatePost(ctx, p.ID, PostInput{Title: "Hello again", Body: "new", Tags: []string{"Rust"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello again", updated.Title)
	assert.False(t, updated.Published)
	assert.Equal(t, []string{"Rust"}, updated.TagNames())
	assert.Equal(t, p.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(p.UpdatedAt))
	assert.Equal(t, u.ID, updated.OwnerID)

	_, err = s.UpdatePost(ctx, 999, PostInput{Title: "x", Body: "y"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.DeletePost(ctx, p.ID))
	_, err = s.GetPost(ctx, p.ID, query.User(u.ID))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeletePost(ctx, p.ID), ErrNotFound)
}

func TestVisibility(t *testing.T) {
	s := setupTestStore(t)
	tickingClock(s)
	ctx := context.Background()
	u1 := mustUser(t, s, "u1")
	u2 := mustUser(t, s, "u2")

	a := mustPost(t, s, u1.ID, PostInput{Title: "A", Body: "a", Published: true})
	b := mustPost(t, s, u1.ID, PostInput{Title: "B", Body: "b", Published: false})

	list := func(v query.Viewer) []int64 {
		posts, err := s.ListPosts(ctx, query.Query{Viewer: v, Order: query.Oldest}, 0, 0)
		require.NoError(t, err)
		return ids(posts)
	}
	assert.Equal(t, []int64{a.ID}, list(query.Anonymous()))
	assert.Equal(t, []int64{a.ID}, list(query.User(u2.ID)))
	assert.Equal(t, []int64{a.ID, b.ID}, list(query.User(u1.ID)))

	_, err := s.GetPost(ctx, b.ID, query.Anonymous())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetPost(ctx, b.ID, query.User(u2.ID))
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := s.GetPost(ctx, b.ID, query.User(u1.ID))
	require.NoError(t, err)
	assert.Equal(t, "B", got.Title)

	_, err = s.OwnedPost(ctx, a.ID, u2.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = s.OwnedPost(ctx, b.ID, u2.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.OwnedPost(ctx, a.ID, u1.ID)
	assert.NoError(t, err)
}

func TestOrderingTieBreak(t *testing.T) {
	s := setupTestStore(t)
	fixedClock(s)
	u := mustUser(t, s, "ann")

	var want []int64
	for i := 0; i < 3; i++ {
		p := mustPost(t, s, u.ID, PostInput{Title: fmt.Sprintf("P%d", i), Body: "b", Published: true})
		want = append(want, p.ID)
	}

	oldest, err := s.ListPosts(context.Background(), query.Query{Viewer: query.Anonymous(), Order: query.Oldest}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, want, ids(oldest))

	newest, err := s.ListPosts(context.Background(), query.Query{Viewer: query.Anonymous(), Order: query.Newest}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{want[2], want[1], want[0]}, ids(newest))
}

// The store and the in-memory pipeline must select and order identically.
func TestStoreMatchesQueryPipeline(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u1 := mustUser(t, s, "u1")
	u2 := mustUser(t, s, "u2")

	var all []Post
	add := func(owner int64, in PostInput) {
		all = append(all, mustPost(t, s, owner, in))
	}

	// Two groups share a timestamp to exercise the id tie-break.
	fixedClock(s)
	add(u1.ID, PostInput{Title: "Go generics", Body: "type params", Tags: []string{"Go"}, Published: true})
	add(u2.ID, PostInput{Title: "Draft notes", Body: "about GO", Tags: []string{"go", "Notes"}})
	add(u1.ID, PostInput{Title: "Cooking", Body: "pasta", Published: true})
	tickingClock(s)
	add(u2.ID, PostInput{Title: "Rust", Body: "borrowing go-style", Tags: []string{"Rust"}, Published: true})
	add(u1.ID, PostInput{Title: "Secret", Body: "hidden", Tags: []string{"Notes"}})
	add(u2.ID, PostInput{Title: "Weekly", Body: "links", Tags: []string{"Go", "Rust"}, Published: true})

	viewers := []query.Viewer{query.Anonymous(), query.User(u1.ID), query.User(u2.ID)}
	searches := []string{"", "go", "  GO ", "nothing"}
	tags := []string{"", "go", "notes", "rust", "missing"}
	orders := []query.Order{query.Newest, query.Oldest}

	for _, v := range viewers {
		for _, search := range searches {
			for _, tag := range tags {
				for _, o := range orders {
					q := query.Query{Viewer: v, Search: search, TagSlug: tag, Order: o}
					name := fmt.Sprintf("viewer=%d/q=%q/tag=%s/order=%s", v.ID, search, tag, o.Token())
					t.Run(name, func(t *testing.T) {
						want := ids(query.Apply(all, q))

						got, err := s.ListPosts(ctx, q, 0, 0)
						require.NoError(t, err)
						assert.Equal(t, want, ids(got))

						n, err := s.CountPosts(ctx, q)
						require.NoError(t, err)
						assert.Equal(t, len(want), n)
					})
				}
			}
		}
	}
}

func TestListPostsPagination(t *testing.T) {
	s := setupTestStore(t)
	tickingClock(s)
	ctx := context.Background()
	u := mustUser(t, s, "ann")

	var all []Post
	for i := 0; i < 12; i++ {
		all = append(all, mustPost(t, s, u.ID, PostInput{Title: fmt.Sprintf("P%02d", i), Body: "b", Published: true}))
	}
	q := query.Query{Viewer: query.Anonymous(), Order: query.Newest}
	ordered := query.Apply(all, q)

	total, err := s.CountPosts(ctx, q)
	require.NoError(t, err)
	for n := 1; n <= 3; n++ {
		page := query.Paginate(total, n, 5)
		got, err := s.ListPosts(ctx, q, page.Size, page.Offset)
		require.NoError(t, err)
		assert.Equal(t, ids(query.Window(ordered, page)), ids(got), "page %d", n)
	}
}

func TestTags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	django, err := s.CreateTag(ctx, TagInput{Name: "Django"})
	require.NoError(t, err)
	assert.Equal(t, "django", django.Slug)

	_, err = s.CreateTag(ctx, TagInput{Name: "django"})
	assert.ErrorIs(t, err, ErrDuplicateTag)
	assert.True(t, IsValidation(err))

	_, err = s.CreateTag(ctx, TagInput{Name: "Other", Slug: "django"})
	assert.ErrorIs(t, err, ErrDuplicateTag)

	_, err = s.CreateTag(ctx, TagInput{Name: "Bad", Slug: "Not A Slug"})
	assert.True(t, IsValidation(err))

	renamed, err := s.RenameTag(ctx, django.ID, "Django Framework")
	require.NoError(t, err)
	assert.Equal(t, "Django Framework", renamed.Name)
	assert.Equal(t, "django", renamed.Slug)

	_, err = s.RenameTag(ctx, 999, "Nope")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := s.TagBySlug(ctx, "django")
	require.NoError(t, err)
	assert.Equal(t, django.ID, got.ID)

	_, err = s.TagBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostTagsReuseAndSlugCollisions(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	u := mustUser(t, s, "ann")

	_, err := s.CreateTag(ctx, TagInput{Name: "Go"})
	require.NoError(t, err)

	p := mustPost(t, s, u.ID, PostInput{Title: "t", Body: "b", Tags: []string{"GO", "C", "C++", "日本"}, Published: true})
	require.Len(t, p.Tags, 4)

	slugs := map[string]string{}
	for _, tag := range p.Tags {
		slugs[tag.Name] = tag.Slug
	}
	assert.Equal(t, "go", slugs["Go"], "existing tag reused with its first spelling")
	assert.Equal(t, "c", slugs["C"])
	assert.NotEqual(t, "c", slugs["C++"])
	assert.Regexp(t, `^c-[0-9a-f]{8}$`, slugs["C++"])
	assert.Regexp(t, `^tag-[0-9a-f]{8}$`, slugs["日本"])

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 4)
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	assert.Equal(t, []string{"C", "C++", "Go", "日本"}, names)
}
