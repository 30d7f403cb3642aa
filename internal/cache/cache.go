// Package cache is the read accelerator for the hot public pages. It
// is write-through invalidation, not write-through caching: mutations
// go straight to the database and then delete every key whose content
// could now be stale. A cache outage must never be a correctness
// dependency, so Store implementations are best-effort.
package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the narrow contract against the cache backend.
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
	FlushAll()
}

// Memory is the in-process Store backed by patrickmn/go-cache. Safe
// for concurrent use.
type Memory struct {
	c *gocache.Cache
}

// NewMemory builds a Memory store with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{c: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	m.c.Set(key, value, ttl)
}

func (m *Memory) Delete(key string) {
	m.c.Delete(key)
}

func (m *Memory) FlushAll() {
	m.c.Flush()
}

// Key builders. Handlers and the page middleware must agree on these,
// so they live here and nowhere else.

// HomeKey keys one page of the home feed.
func HomeKey(page int) string { return fmt.Sprintf("home:page:%d", page) }

// TagKey keys one page of a tag feed.
func TagKey(slug string, page int) string { return fmt.Sprintf("tag:%s:page:%d", slug, page) }

// PostKey keys a post detail view.
func PostKey(id uint) string { return fmt.Sprintf("post:%d", id) }

// Invalidator issues the per-mutation deletions. Handlers call it
// strictly after their transaction commits; invalidating before commit
// would let a concurrent reader repopulate the cache with stale
// pre-commit data.
type Invalidator struct {
	Store Store
}

// Home drops every cached home-feed page. Page numbers are unbounded,
// so rather than track them we delete a generous fixed range; pages
// beyond it expire by TTL.
func (inv Invalidator) Home() {
	for page := 1; page <= trackedPages; page++ {
		inv.Store.Delete(HomeKey(page))
	}
}

// Tag drops every cached page of one tag feed.
func (inv Invalidator) Tag(slug string) {
	for page := 1; page <= trackedPages; page++ {
		inv.Store.Delete(TagKey(slug, page))
	}
}

// Post drops a post's cached detail view.
func (inv Invalidator) Post(id uint) {
	inv.Store.Delete(PostKey(id))
}

// All flushes everything. Used by login/logout as a conservative
// correctness measure; cached content is public and cheap to rebuild.
func (inv Invalidator) All() {
	inv.Store.FlushAll()
}

const trackedPages = 50
