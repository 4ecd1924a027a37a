package cache

import (
	"context"
	"sync"
	"time"

	"github.com/jonesrussell/notion-cache/internal/models"
)

// Entry wraps a post with its insertion time and a snapshot of the post's
// own modification marker. TTL expiry and ledger staleness are separate
// concepts: an entry can be unexpired yet stale, and vice versa.
type Entry struct {
	Post         models.BlogPost
	CachedAt     time.Time
	LastModified string
}

// EntryCache is a per-slug hot cache with a fixed time-to-live, sitting
// in front of the store on the single-post read path. An entry is evicted
// once now - CachedAt exceeds the TTL.
type EntryCache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewEntryCache creates an empty entry cache with the given TTL.
func NewEntryCache(ttl time.Duration) *EntryCache {
	return &EntryCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Set inserts or replaces the entry for a slug.
func (c *EntryCache) Set(slug string, post models.BlogPost) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slug] = Entry{
		Post:         post,
		CachedAt:     c.now(),
		LastModified: post.UpdatedAt,
	}
}

// Get returns the cached post for a slug. An expired entry is evicted and
// reported as a miss.
func (c *EntryCache) Get(slug string) (models.BlogPost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[slug]
	if !ok {
		return models.BlogPost{}, false
	}
	if c.now().Sub(entry.CachedAt) > c.ttl {
		delete(c.entries, slug)
		return models.BlogPost{}, false
	}
	return entry.Post, true
}

// IsStale reports whether the entry's recorded marker differs from the
// given current marker. A missing entry is stale.
func (c *EntryCache) IsStale(slug, currentModifiedAt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[slug]
	return !ok || entry.LastModified != currentModifiedAt
}

// Invalidate removes the entry for a slug.
func (c *EntryCache) Invalidate(slug string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, slug)
}

// Clear removes all entries.
func (c *EntryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}

// Len returns the number of entries, expired or not.
func (c *EntryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Cleanup evicts all expired entries.
func (c *EntryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for slug, entry := range c.entries {
		if now.Sub(entry.CachedAt) > c.ttl {
			delete(c.entries, slug)
		}
	}
}

// StartJanitor runs Cleanup on the given interval until ctx is done.
func (c *EntryCache) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}
