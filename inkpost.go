// Package inkpost is a small multi-author blog engine built with Go, Echo,
// and templ. Posts are stored as Markdown and rendered to sanitized HTML on
// every read; listings support search, tag scoping, ordering and pagination.
//
// Users provide their own templ templates via the ViewFuncs struct, and
// inkpost handles the handler logic, middleware, and database operations.
package inkpost

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/inkpost/markdown"
)

// ViewFuncs holds user-provided templ components that the framework calls
// when rendering pages.
type ViewFuncs struct {
	Home        func(page ListPage) templ.Component
	Post        func(page PostPage) templ.Component
	Login       func(showError bool, next, csrfToken string) templ.Component
	PostForm    func(page FormPage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// Renderer turns a post body into HTML that is safe to embed in a page.
// markdown.Renderer is the default.
type Renderer interface {
	Render(raw string) (string, error)
}

// App is the central inkpost application. It wires together the store,
// tag cache, renderer, handlers, middleware, and user-provided templates.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Tags     *TagCache
	Renderer Renderer
	Views    ViewFuncs

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	initialized  bool
}

// New creates a new App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}
	a.Echo.HideBanner = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Renderer == nil {
		a.Renderer = markdown.New()
	}

	return a
}

// Init opens the store, builds the cache and limiter, and registers
// middleware and routes. Start calls it; tests call it directly and drive
// a.Echo with httptest.
func (a *App) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return errors.New("inkpost: SessionSecret is required")
	}
	if a.Store == nil {
		store, err := NewStore(a.Config.DatabasePath)
		if err != nil {
			return fmt.Errorf("inkpost: init store: %w", err)
		}
		a.Store = store
	}

	a.Tags = NewTagCache(a.Store, a.Config.TagCacheTTL)
	a.loginLimiter = NewLoginLimiter(a.Config.LoginMax, a.Config.LoginWindow)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Init(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/tags/:slug/", a.handleTag)
	e.GET("/posts/:id/", a.handlePost)

	e.GET("/login/", a.handleLoginForm)
	e.POST("/login/", a.handleLogin)
	e.POST("/logout/", handleLogout)

	// Per-route middleware: a Group with prefix "" would catch every
	// unmatched path and send it through requireUser.
	e.GET("/posts/new/", a.handleNewPost, requireUser)
	e.POST("/posts/", a.handleCreatePost, requireUser)
	e.GET("/posts/:id/edit/", a.handleEditPost, requireUser)
	e.POST("/posts/:id/", a.handleUpdatePost, requireUser)
	e.POST("/posts/:id/delete/", a.handleDeletePost, requireUser)
	e.DELETE("/posts/:id/", a.handleDeletePost, requireUser)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

