package inkpost

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) handleLoginForm(c echo.Context) error {
	next := safeNext(c.QueryParam("next"))
	if CurrentViewer(c).Authenticated {
		return c.Redirect(http.StatusSeeOther, next)
	}
	return Render(c, a.Views.Login(false, next, CsrfToken(c)))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	next := safeNext(c.FormValue("next"))
	user, err := a.Store.Authenticate(c.Request().Context(),
		strings.TrimSpace(c.FormValue("username")), c.FormValue("password"))
	if errors.Is(err, ErrInvalidCredentials) {
		a.loginLimiter.Record(ip)
		return RenderStatus(c, http.StatusUnauthorized, a.Views.Login(true, next, CsrfToken(c)))
	}
	if err != nil {
		return err
	}
	if err := setUserSession(c, user.ID); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, next)
}

func handleLogout(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleNewPost(c echo.Context) error {
	return Render(c, a.Views.PostForm(FormPage{
		Site: a.Config,
		Post: Post{Published: true},
		CSRF: CsrfToken(c),
	}))
}

func (a *App) handleCreatePost(c echo.Context) error {
	in := postInputFromForm(c)
	post, err := a.Store.CreatePost(c.Request().Context(), CurrentViewer(c).ID, in)
	if IsValidation(err) {
		return a.renderFormErrors(c, Post{}, in, err)
	}
	if err != nil {
		return err
	}
	a.Tags.Invalidate()
	return c.Redirect(http.StatusSeeOther, post.Link())
}

func (a *App) handleEditPost(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	return Render(c, a.Views.PostForm(FormPage{
		Site: a.Config,
		Post: post,
		Tags: JoinTags(post.TagNames()),
		CSRF: CsrfToken(c),
	}))
}

func (a *App) handleUpdatePost(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	in := postInputFromForm(c)
	updated, err := a.Store.UpdatePost(c.Request().Context(), post.ID, in)
	if IsValidation(err) {
		return a.renderFormErrors(c, post, in, err)
	}
	if err != nil {
		return err
	}
	a.Tags.Invalidate()
	return c.Redirect(http.StatusSeeOther, updated.Link())
}

func (a *App) handleDeletePost(c echo.Context) error {
	post, err := a.ownedPost(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeletePost(c.Request().Context(), post.ID); err != nil {
		return err
	}
	a.Tags.Invalidate()
	if c.Request().Header.Get("HX-Request") == "true" {
		c.Response().Header().Set("HX-Redirect", "/")
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// ownedPost loads the post named in the route for the current user. Posts
// owned by someone else are ErrForbidden; invisible ones are ErrNotFound.
func (a *App) ownedPost(c echo.Context) (Post, error) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		return Post{}, ErrNotFound
	}
	return a.Store.OwnedPost(c.Request().Context(), id, CurrentViewer(c).ID)
}

func (a *App) renderFormErrors(c echo.Context, post Post, in PostInput, err error) error {
	post.Title = in.Title
	post.Body = in.Body
	post.Published = in.Published
	return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.PostForm(FormPage{
		Site:   a.Config,
		Post:   post,
		Tags:   JoinTags(in.Tags),
		Errors: FieldErrors(err),
		CSRF:   CsrfToken(c),
	}))
}

func postInputFromForm(c echo.Context) PostInput {
	return PostInput{
		Title:     strings.TrimSpace(c.FormValue("title")),
		Body:      c.FormValue("body"),
		Tags:      ParseTagNames(c.FormValue("tags")),
		Published: c.FormValue("published") != "",
	}
}
