// Package cache memoizes parsed CPQL queries by their text.
//
// Parsed trees are immutable once stored, so a single ast.Query may be
// handed to any number of concurrent compilations. Concurrent misses on the
// same text share one parse.
package cache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/cpql/internal/ast"
)

// ParseFunc parses query text.
type ParseFunc func(text string) (ast.Query, error)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int64 `json:"entries"`
}

// QueryCache maps query text to its parsed tree.
type QueryCache struct {
	parse      ParseFunc
	maxEntries int64

	entries sync.Map // string -> ast.Query
	group   singleflight.Group
	size    atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
}

// Option configures a QueryCache.
type Option func(*QueryCache)

// WithMaxEntries bounds the number of stored trees. Once full, new texts
// are still parsed but not stored; nothing is evicted. Zero means unbounded.
func WithMaxEntries(n int) Option {
	return func(c *QueryCache) {
		if n > 0 {
			c.maxEntries = int64(n)
		}
	}
}

// New returns an empty cache backed by parse.
func New(parse ParseFunc, opts ...Option) *QueryCache {
	c := &QueryCache{parse: parse}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the parsed tree for text, parsing it on a miss. Parse errors
// are returned to every waiting caller and are not cached. hit reports
// whether the tree came from the cache.
func (c *QueryCache) Get(text string) (q ast.Query, hit bool, err error) {
	if v, ok := c.entries.Load(text); ok {
		c.hits.Add(1)
		return v.(ast.Query), true, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(text, func() (any, error) {
		if v, ok := c.entries.Load(text); ok {
			return v, nil
		}
		parsed, err := c.parse(text)
		if err != nil {
			return nil, err
		}
		c.store(text, parsed)
		return parsed, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(ast.Query), false, nil
}

func (c *QueryCache) store(text string, q ast.Query) {
	if c.maxEntries > 0 && c.size.Load() >= c.maxEntries {
		return
	}
	if _, loaded := c.entries.LoadOrStore(text, q); !loaded {
		c.size.Add(1)
	}
}

// Len returns the number of stored trees.
func (c *QueryCache) Len() int {
	return int(c.size.Load())
}

// Stats returns the current counters.
func (c *QueryCache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: c.size.Load()}
}

// Clear drops every stored tree. Counters are kept.
func (c *QueryCache) Clear() {
	c.entries.Range(func(k, _ any) bool {
		if _, ok := c.entries.LoadAndDelete(k); ok {
			c.size.Add(-1)
		}
		return true
	})
}
