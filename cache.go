package inkpost

import (
	"context"
	"sync"
	"time"
)

// TagCache is an in-memory cache of the tag list with TTL. It holds tag
// entities only; nothing derived from post bodies is cached.
type TagCache struct {
	mu      sync.RWMutex
	tags    []Tag
	bySlug  map[string]Tag
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewTagCache creates a TagCache backed by the given Store.
func NewTagCache(s *Store, ttl time.Duration) *TagCache {
	return &TagCache{store: s, ttl: ttl}
}

func (c *TagCache) valid() bool {
	return c.bySlug != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *TagCache) Invalidate() {
	c.mu.Lock()
	c.tags = nil
	c.bySlug = nil
	c.mu.Unlock()
}

func (c *TagCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return err
	}
	bySlug := make(map[string]Tag, len(tags))
	for _, t := range tags {
		bySlug[t.Slug] = t
	}
	c.tags = tags
	c.bySlug = bySlug
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns the cached tags after ensuring the cache is fresh.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *TagCache) ensureLoaded(ctx context.Context) ([]Tag, map[string]Tag, error) {
	c.mu.RLock()
	if c.valid() {
		tags, bySlug := c.tags, c.bySlug
		c.mu.RUnlock()
		return tags, bySlug, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.tags, c.bySlug, nil
}

// ListTags returns all tags ordered by name.
func (c *TagCache) ListTags(ctx context.Context) ([]Tag, error) {
	tags, _, err := c.ensureLoaded(ctx)
	return tags, err
}

// BySlug returns the tag with the given slug, or ErrNotFound. A miss is
// checked against the store since tags may be created outside this process.
func (c *TagCache) BySlug(ctx context.Context, slug string) (Tag, error) {
	_, bySlug, err := c.ensureLoaded(ctx)
	if err != nil {
		return Tag{}, err
	}
	if t, ok := bySlug[slug]; ok {
		return t, nil
	}
	return c.store.TagBySlug(ctx, slug)
}
