package handlers

import (
	"context"
	"html/template"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"vibgyorsite/browser"
)

// ---------------------------------------------------------------------------
// Collection catalog
// ---------------------------------------------------------------------------

// Fetcher loads the full collection list from the events backend.
type Fetcher interface {
	FetchCollections(ctx context.Context) ([]browser.Collection, error)
}

// Snapshot is the collection list as seen by one page load.
type Snapshot struct {
	Collections []browser.Collection
	// Err is non-nil when the fetch failed; Collections is then empty.
	Err error
}

// Catalog hands each page load a complete collection list.
//
//   - ttl == 0    → every Snapshot call fetches; concurrent calls share one
//     in-flight request.
//   - ttl > 0     → the last successful list is reused until it expires.
//   - fetch error → an empty list plus the error. Failures are never cached.
type Catalog struct {
	src   Fetcher
	ttl   time.Duration
	log   *zap.Logger
	group singleflight.Group

	mu      sync.Mutex
	list    []browser.Collection
	expires time.Time
}

// NewCatalog returns a catalog backed by src.
func NewCatalog(src Fetcher, ttl time.Duration, log *zap.Logger) *Catalog {
	return &Catalog{src: src, ttl: ttl, log: log}
}

// Snapshot returns the collections for one page load.
func (c *Catalog) Snapshot(ctx context.Context) Snapshot {
	if c.ttl > 0 {
		c.mu.Lock()
		if c.list != nil && time.Now().Before(c.expires) {
			list := c.list
			c.mu.Unlock()
			return Snapshot{Collections: list}
		}
		c.mu.Unlock()
	}

	v, err, shared := c.group.Do("events", func() (any, error) {
		// Detach from the first caller so its disconnect does not fail the
		// other page loads waiting on the same fetch.
		list, err := c.src.FetchCollections(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		resolved := make([]browser.Collection, len(list))
		for i := range list {
			resolved[i] = list[i].WithImageURLs()
		}
		return resolved, nil
	})
	if err != nil {
		c.log.Warn("catalog: fetch failed, rendering empty list", zap.Error(err), zap.Bool("shared", shared))
		return Snapshot{Collections: []browser.Collection{}, Err: err}
	}

	list := v.([]browser.Collection)
	if c.ttl > 0 {
		c.mu.Lock()
		c.list = list
		c.expires = time.Now().Add(c.ttl)
		c.mu.Unlock()
	}
	c.log.Debug("catalog: fetched", zap.Int("collections", len(list)), zap.Bool("shared", shared))
	return Snapshot{Collections: list}
}

// Warm fetches once in the background so the first page load is served
// from cache. It is a no-op when caching is disabled.
func (c *Catalog) Warm() {
	if c.ttl <= 0 {
		return
	}
	go func() {
		snap := c.Snapshot(context.Background())
		if snap.Err == nil {
			c.log.Info("catalog: warmed", zap.Int("collections", len(snap.Collections)))
		}
	}()
}

// ---------------------------------------------------------------------------
// Rendered page cache
// ---------------------------------------------------------------------------

// renderedPage is one cached content-page render.
type renderedPage struct {
	title string
	html  template.HTML
}

// pageCache caches rendered content pages keyed by page name. Entries are
// evicted by the watcher when the source file changes, with safetyTTL as a
// backstop for missed events.
type pageCache struct {
	mu      sync.Mutex
	entries map[string]pageCacheEntry
}

type pageCacheEntry struct {
	page    renderedPage
	expires time.Time
}

// safetyTTL is a long backstop expiry applied to every page cache entry.
const safetyTTL = 20 * time.Minute

func newPageCache() *pageCache {
	return &pageCache{entries: make(map[string]pageCacheEntry)}
}

func (pc *pageCache) get(name string) (renderedPage, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	e, ok := pc.entries[name]
	if !ok || time.Now().After(e.expires) {
		return renderedPage{}, false
	}
	return e.page, true
}

func (pc *pageCache) put(name string, p renderedPage) {
	pc.mu.Lock()
	pc.entries[name] = pageCacheEntry{page: p, expires: time.Now().Add(safetyTTL)}
	pc.mu.Unlock()
}

func (pc *pageCache) evict(name string) {
	pc.mu.Lock()
	delete(pc.entries, name)
	pc.mu.Unlock()
}

func (pc *pageCache) evictAll() {
	pc.mu.Lock()
	pc.entries = make(map[string]pageCacheEntry)
	pc.mu.Unlock()
}
