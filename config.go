package inkpost

import "time"

// SiteConfig holds all configuration for an inkpost site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/blog.db")

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PageSize    int           // Posts per listing page (default 5)
	FeedSize    int           // Posts in the RSS feed (default 20)
	TagCacheTTL time.Duration // Tag cache TTL (default 5min)
	LoginMax    int           // Login attempts per window (default 5)
	LoginWindow time.Duration // Login limiter window (default 1min)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.PageSize <= 0 {
		c.PageSize = 5
	}
	if c.FeedSize <= 0 {
		c.FeedSize = 20
	}
	if c.TagCacheTTL == 0 {
		c.TagCacheTTL = 5 * time.Minute
	}
	if c.LoginMax <= 0 {
		c.LoginMax = 5
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithStore uses an already opened store instead of opening DatabasePath.
// The App takes ownership and closes it on Close.
func WithStore(s *Store) Option {
	return func(a *App) {
		a.Store = s
	}
}

// WithRenderer replaces the Markdown renderer used for post pages.
func WithRenderer(r Renderer) Option {
	return func(a *App) {
		a.Renderer = r
	}
}
