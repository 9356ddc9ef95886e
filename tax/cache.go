/*
cache.go - Per-tax-year coefficient cache

PURPOSE:
  Loads TableSets from a TableSource and caches them in memory with a
  fixed TTL. The cache is an explicit, injectable service with a clear
  Invalidate(year)/Clear() lifecycle so tests can reset it
  deterministically - no hidden class-level state.

FAILURE BEHAVIOR:
  - Source reachable, year absent  -> UnknownYearError (hard)
  - Source failing                 -> fallback tables, TableSet tagged
                                      SourceFallback (soft degrade)
  - Year in neither source nor fallback -> UnknownYearError carrying the
                                      load failure as cause

CONSISTENCY:
  Cached rows are immutable once fetched for a key, so readers only need
  the map lock; cross-process staleness is bounded by the TTL.
*/
package tax

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultTTL is how long a loaded table set is served before re-loading.
const DefaultTTL = time.Hour

// TableSource loads a year's tables from the persistence layer.
type TableSource interface {
	// LoadTables returns the full table set for a year, or ErrYearNotFound
	// when the source is reachable but holds no rows for it.
	LoadTables(ctx context.Context, year Year) (*TableSet, error)
}

type cacheEntry struct {
	tables   *TableSet
	loadedAt time.Time
}

// Cache serves per-year table sets with TTL-based expiry.
type Cache struct {
	mu      sync.RWMutex
	source  TableSource
	ttl     time.Duration
	now     func() time.Time
	entries map[Year]cacheEntry
}

func NewCache(source TableSource, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		source:  source,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[Year]cacheEntry),
	}
}

// Tables returns the table set for a year, loading and caching on miss.
func (c *Cache) Tables(ctx context.Context, year Year) (*TableSet, error) {
	c.mu.RLock()
	e, ok := c.entries[year]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.loadedAt) < c.ttl {
		return e.tables, nil
	}

	ts, err := c.load(ctx, year)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[year] = cacheEntry{tables: ts, loadedAt: c.now()}
	c.mu.Unlock()
	return ts, nil
}

func (c *Cache) load(ctx context.Context, year Year) (*TableSet, error) {
	if c.source != nil {
		ts, err := c.source.LoadTables(ctx, year)
		if err == nil {
			ts.Source = SourceLive
			return ts, nil
		}
		if errors.Is(err, ErrYearNotFound) {
			// Reachable source without the year: hard failure, never a
			// silent switch to the fallback's idea of that year.
			return nil, &UnknownYearError{Year: year}
		}
		// Load failure: degrade to the embedded tables.
		if fb, ok := fallbackTables()[year]; ok {
			return fb, nil
		}
		return nil, &UnknownYearError{Year: year, cause: err}
	}

	if fb, ok := fallbackTables()[year]; ok {
		return fb, nil
	}
	return nil, &UnknownYearError{Year: year}
}

// Invalidate drops one year's cached tables (used after administrative
// edits to that year's rows).
func (c *Cache) Invalidate(year Year) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, year)
}

// Clear drops everything.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Year]cacheEntry)
}
