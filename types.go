package inkpost

import (
	"strconv"
	"time"

	"github.com/eringen/inkpost/analyze"
	"github.com/eringen/inkpost/markdown"
	"github.com/eringen/inkpost/query"
)

// Post is a blog entry. Body holds the raw Markdown and is the only stored
// form of the content; HTML and metrics are derived on every read.
type Post struct {
	ID        int64
	OwnerID   int64
	Owner     string
	Title     string
	Body      string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
	Tags      []Tag
}

// Link returns the site-relative URL of the post.
func (p Post) Link() string {
	return "/posts/" + strconv.FormatInt(p.ID, 10) + "/"
}

// TagNames returns the names of the post's tags in order.
func (p Post) TagNames() []string {
	names := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		names[i] = t.Name
	}
	return names
}

// QueryFields exposes the post to the query pipeline.
func (p Post) QueryFields() query.Fields {
	slugs := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		slugs[i] = t.Slug
	}
	return query.Fields{
		ID:        p.ID,
		Title:     p.Title,
		Text:      p.Body,
		Published: p.Published,
		OwnerID:   p.OwnerID,
		CreatedAt: p.CreatedAt,
		TagSlugs:  slugs,
	}
}

// Tag labels posts. Slug is fixed at creation and survives renames.
type Tag struct {
	ID   int64
	Name string
	Slug string
}

// Link returns the site-relative URL of the tag listing.
func (t Tag) Link() string {
	return "/tags/" + t.Slug + "/"
}

// User is a post owner.
type User struct {
	ID        int64
	Username  string
	CreatedAt time.Time
}

// PostSummary is a post prepared for a listing.
type PostSummary struct {
	Post
	Metrics analyze.Metrics
}

// ListPage is everything a listing template needs.
type ListPage struct {
	Site      SiteConfig
	Viewer    query.Viewer
	Posts     []PostSummary
	Tag       *Tag
	Tags      []Tag
	Search    string
	Order     string
	Page      query.Page
	QSKeep    string
	QSNoOrder string
	CSRF      string
}

// PostPage is everything a post detail template needs. HTML is already
// sanitized and may be written without escaping.
type PostPage struct {
	Site    SiteConfig
	Viewer  query.Viewer
	Post    Post
	HTML    string
	TOC     []markdown.Heading
	Metrics analyze.Metrics
	CanEdit bool
	CSRF    string
}

// FormPage is the create/edit form. Post.ID is zero for a new post.
type FormPage struct {
	Site   SiteConfig
	Post   Post
	Tags   string
	Errors map[string]string
	CSRF   string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}
