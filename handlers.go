package inkpost

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpost/analyze"
	"github.com/eringen/inkpost/markdown"
	"github.com/eringen/inkpost/query"
)

func (a *App) handleHome(c echo.Context) error {
	return a.renderListing(c, nil)
}

func (a *App) handleTag(c echo.Context) error {
	tag, err := a.Tags.BySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return a.renderListing(c, &tag)
}

func (a *App) renderListing(c echo.Context, tag *Tag) error {
	ctx := c.Request().Context()
	params := query.ParseParams(c.QueryParams())
	viewer := CurrentViewer(c)

	slug := ""
	if tag != nil {
		slug = tag.Slug
	}
	q := params.Query(viewer, slug)

	total, err := a.Store.CountPosts(ctx, q)
	if err != nil {
		return err
	}
	page := query.Paginate(total, params.Page, a.Config.PageSize)
	posts, err := a.Store.ListPosts(ctx, q, page.Size, page.Offset)
	if err != nil {
		return err
	}
	tags, err := a.Tags.ListTags(ctx)
	if err != nil {
		return err
	}

	return Render(c, a.Views.Home(ListPage{
		Site:      a.Config,
		Viewer:    viewer,
		Posts:     Summarize(posts),
		Tag:       tag,
		Tags:      tags,
		Search:    params.Search,
		Order:     params.Order.Token(),
		Page:      page,
		QSKeep:    params.KeepQuery(),
		QSNoOrder: params.NoOrderQuery(),
		CSRF:      CsrfToken(c),
	}))
}

func (a *App) handlePost(c echo.Context) error {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return a.renderNotFound(c)
	}
	viewer := CurrentViewer(c)
	post, err := a.Store.GetPost(c.Request().Context(), id, viewer)
	if err != nil {
		return err
	}
	html, err := a.Renderer.Render(post.Body)
	if err != nil {
		return fmt.Errorf("render post %d: %w", post.ID, err)
	}
	return Render(c, a.Views.Post(PostPage{
		Site:    a.Config,
		Viewer:  viewer,
		Post:    post,
		HTML:    html,
		TOC:     markdown.TOC(post.Body),
		Metrics: analyze.Measure(post.Body),
		CanEdit: viewer.Authenticated && viewer.ID == post.OwnerID,
		CSRF:    CsrfToken(c),
	}))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Store.ListPosts(ctx, query.Query{Viewer: query.Anonymous(), Order: query.Newest}, 0, 0)
	if err != nil {
		return err
	}
	tags, err := a.Tags.ListTags(ctx)
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts, tags)
}

func (a *App) handleFeed(c echo.Context) error {
	q := query.Query{Viewer: query.Anonymous(), Order: query.Newest}
	posts, err := a.Store.ListPosts(c.Request().Context(), q, a.Config.FeedSize, 0)
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleRobots(c echo.Context) error {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Disallow: /login/\n")
	b.WriteString("Disallow: /posts/new/\n")
	b.WriteString("\nSitemap: ")
	b.WriteString(strings.TrimRight(a.Config.URL, "/"))
	b.WriteString("/sitemap.xml\n")
	return c.String(http.StatusOK, b.String())
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		_ = a.renderNotFound(c)
		return
	case errors.Is(err, ErrForbidden):
		_ = c.String(http.StatusForbidden, "Forbidden")
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
