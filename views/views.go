// Package views provides minimal default page components for inkpost.
// Sites are expected to replace them with their own templ templates.
package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/inkpost"
	"github.com/eringen/inkpost/markdown"
	"github.com/eringen/inkpost/query"
)

// Default returns the built-in views.
func Default() inkpost.ViewFuncs {
	return inkpost.ViewFuncs{
		Home:        Home,
		Post:        Post,
		Login:       Login,
		PostForm:    PostForm,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}

func layout(site inkpost.SiteConfig, meta inkpost.PageMeta, viewer query.Viewer, csrf string, body func(w *writer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		w.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		w.raw("<title>")
		if meta.Title != "" {
			w.text(meta.Title + " | ")
		}
		w.text(site.Name)
		w.raw("</title>")
		if meta.Description != "" {
			w.raw(`<meta name="description"`)
			w.attr("content", meta.Description)
			w.raw(">")
		}
		if meta.URL != "" {
			w.raw(`<link rel="canonical"`)
			w.attr("href", meta.URL)
			w.raw(`><meta property="og:url"`)
			w.attr("content", meta.URL)
			w.raw(">")
		}
		if meta.OGType != "" {
			w.raw(`<meta property="og:type"`)
			w.attr("content", meta.OGType)
			w.raw(">")
		}
		w.raw(`<link rel="alternate" type="application/rss+xml" href="/feed.xml">`)
		w.raw(`<link rel="stylesheet" href="/public/styles.css"></head><body><header><a href="/">`)
		w.text(site.Name)
		w.raw("</a><nav>")
		if viewer.Authenticated {
			w.raw(`<a href="/posts/new/">New post</a><form method="post" action="/logout/">`)
			csrfField(w, csrf)
			w.raw(`<button type="submit">Log out</button></form>`)
		} else {
			w.raw(`<a href="/login/">Log in</a>`)
		}
		w.raw("</nav></header><main>")
		body(w)
		w.raw("</main></body></html>")
		return w.err
	})
}

func csrfField(w *writer, token string) {
	w.raw(`<input type="hidden" name="_csrf"`)
	w.attr("value", token)
	w.raw(">")
}

func jsonLD(w *writer, data string) {
	// JSON from encoding/json escapes <, > and &, so it cannot close the tag.
	w.raw(`<script type="application/ld+json">` + data + `</script>`)
}

// Home renders a post listing, optionally scoped to a tag.
func Home(page inkpost.ListPage) templ.Component {
	meta := inkpost.PageMeta{
		Description: page.Site.Description,
		URL:         inkpost.BuildURL(page.Site.URL),
		OGType:      "website",
	}
	base := "/"
	if page.Tag != nil {
		meta.Title = page.Tag.Name
		meta.URL = inkpost.BuildURL(page.Site.URL, "tags", page.Tag.Slug)
		base = page.Tag.Link()
	}
	return layout(page.Site, meta, page.Viewer, page.CSRF, func(w *writer) {
		if page.Tag == nil {
			jsonLD(w, inkpost.WebsiteJsonLD(page.Site))
		}

		w.raw(`<form method="get"`)
		w.attr("action", base)
		w.raw(`><input type="search" name="q"`)
		w.attr("value", page.Search)
		w.raw(`><input type="hidden" name="order"`)
		w.attr("value", page.Order)
		w.raw(`><button type="submit">Search</button></form>`)

		next := query.Oldest.Token()
		label := "Oldest first"
		if page.Order == query.Oldest.Token() {
			next, label = query.Newest.Token(), "Newest first"
		}
		w.raw(`<a class="order"`)
		w.attr("href", base+"?"+page.QSNoOrder+"order="+next)
		w.raw(">")
		w.text(label)
		w.raw("</a>")

		w.raw(`<ul class="tags">`)
		for _, t := range page.Tags {
			active := page.Tag != nil && page.Tag.ID == t.ID
			w.raw("<li><a")
			w.attr("class", TagClass(active))
			w.attr("href", t.Link())
			w.raw(">")
			w.text(t.Name)
			w.raw("</a></li>")
		}
		w.raw("</ul>")

		if len(page.Posts) == 0 {
			w.raw(`<p class="empty">No posts found.</p>`)
		}
		for _, p := range page.Posts {
			w.raw("<article><h2><a")
			w.attr("href", p.Link())
			w.raw(">")
			w.text(p.Title)
			w.raw("</a>")
			if !p.Published {
				w.raw(` <small class="draft">draft</small>`)
			}
			w.raw("</h2><p class=\"meta\">")
			w.text(FormatDate(p.CreatedAt) + " · " + ReadingTime(p.Metrics.ReadingMinutes))
			w.raw("</p><p>")
			w.text(p.Metrics.Excerpt)
			w.raw("</p></article>")
		}

		if page.Page.Pages > 1 {
			w.raw(`<nav class="pagination">`)
			if page.Page.HasPrev() {
				w.raw(`<a rel="prev"`)
				w.attr("href", PageLink(base, page.QSKeep, page.Page.Prev()))
				w.raw(">Previous</a>")
			}
			w.raw("<span>Page ")
			w.text(strconv.Itoa(page.Page.Number) + " of " + strconv.Itoa(page.Page.Pages))
			w.raw("</span>")
			if page.Page.HasNext() {
				w.raw(`<a rel="next"`)
				w.attr("href", PageLink(base, page.QSKeep, page.Page.Next()))
				w.raw(">Next</a>")
			}
			w.raw("</nav>")
		}
	})
}

// Post renders a single post. page.HTML is already sanitized.
func Post(page inkpost.PostPage) templ.Component {
	p := page.Post
	meta := inkpost.PageMeta{
		Title:       p.Title,
		Description: page.Metrics.Excerpt,
		URL:         inkpost.PostURL(page.Site, p),
		OGType:      "article",
	}
	return layout(page.Site, meta, page.Viewer, page.CSRF, func(w *writer) {
		jsonLD(w, inkpost.BlogPostingJsonLD(p, page.Site))
		w.raw("<article><h1>")
		w.text(p.Title)
		w.raw("</h1><p class=\"meta\">")
		w.text(p.Owner + " · " + FormatDate(p.CreatedAt) + " · " +
			strconv.Itoa(page.Metrics.Words) + " words · " + ReadingTime(page.Metrics.ReadingMinutes))
		w.raw("</p>")
		if len(p.Tags) > 0 {
			w.raw(`<ul class="tags">`)
			for _, t := range p.Tags {
				w.raw("<li><a")
				w.attr("class", TagClass(false))
				w.attr("href", t.Link())
				w.raw(">")
				w.text(t.Name)
				w.raw("</a></li>")
			}
			w.raw("</ul>")
		}
		if len(page.TOC) > 1 {
			toc(w, page.TOC)
		}
		w.raw(`<div class="prose">`)
		w.raw(page.HTML)
		w.raw("</div></article>")
		if page.CanEdit {
			w.raw(`<p class="owner"><a`)
			w.attr("href", p.Link()+"edit/")
			w.raw(">Edit</a><form method=\"post\"")
			w.attr("action", p.Link()+"delete/")
			w.raw(">")
			csrfField(w, page.CSRF)
			w.raw(`<button type="submit">Delete</button></form></p>`)
		}
	})
}

func toc(w *writer, headings []markdown.Heading) {
	w.raw(`<nav class="toc"><ul>`)
	for _, h := range headings {
		w.raw("<li")
		w.attr("class", "toc-h"+strconv.Itoa(h.Level))
		w.raw("><a")
		w.attr("href", "#"+h.ID)
		w.raw(">")
		w.text(h.Text)
		w.raw("</a></li>")
	}
	w.raw("</ul></nav>")
}

// Login renders the login form.
func Login(showError bool, next, csrfToken string) templ.Component {
	site := inkpost.SiteConfig{Name: "Log in"}
	return layout(site, inkpost.PageMeta{}, query.Anonymous(), csrfToken, func(w *writer) {
		w.raw(`<form method="post" action="/login/">`)
		csrfField(w, csrfToken)
		w.raw(`<input type="hidden" name="next"`)
		w.attr("value", next)
		w.raw(">")
		if showError {
			w.raw(`<p class="error">Invalid username or password.</p>`)
		}
		w.raw(`<label>Username <input name="username" autocomplete="username" required></label>`)
		w.raw(`<label>Password <input type="password" name="password" autocomplete="current-password" required></label>`)
		w.raw(`<button type="submit">Log in</button></form>`)
	})
}

// PostForm renders the create or edit form with any field errors.
func PostForm(page inkpost.FormPage) templ.Component {
	p := page.Post
	action, title := "/posts/", "New post"
	if p.ID != 0 {
		action, title = p.Link(), "Edit post"
	}
	return layout(page.Site, inkpost.PageMeta{Title: title}, query.User(p.OwnerID), page.CSRF, func(w *writer) {
		w.raw("<h1>")
		w.text(title)
		w.raw("</h1>")
		if msg, ok := page.Errors["form"]; ok {
			w.raw(`<p class="error">`)
			w.text(msg)
			w.raw("</p>")
		}
		w.raw(`<form method="post"`)
		w.attr("action", action)
		w.raw(">")
		csrfField(w, page.CSRF)
		w.raw(`<label>Title <input name="title" maxlength="200"`)
		w.attr("value", p.Title)
		w.raw("></label>")
		fieldError(w, page.Errors, "title")
		w.raw(`<label>Body <textarea name="body" rows="20">`)
		w.text(p.Body)
		w.raw("</textarea></label>")
		fieldError(w, page.Errors, "body")
		w.raw(`<label>Tags <input name="tags"`)
		w.attr("value", page.Tags)
		w.raw("></label>")
		fieldError(w, page.Errors, "tags")
		w.raw(`<label><input type="checkbox" name="published" value="1"`)
		if p.Published {
			w.raw(" checked")
		}
		w.raw(`> Published</label><button type="submit">Save</button></form>`)
	})
}

func fieldError(w *writer, errs map[string]string, field string) {
	if msg, ok := errs[field]; ok {
		w.raw(`<p class="error">`)
		w.text(msg)
		w.raw("</p>")
	}
}

// NotFound renders the 404 page.
func NotFound() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		_, err := io.WriteString(out, "<!DOCTYPE html><html><head><title>Not found</title></head><body><h1>Not found</h1><p><a href=\"/\">Home</a></p></body></html>")
		return err
	})
}

// ServerError renders the 500 page.
func ServerError() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		_, err := io.WriteString(out, "<!DOCTYPE html><html><head><title>Error</title></head><body><h1>Something went wrong</h1></body></html>")
		return err
	})
}
