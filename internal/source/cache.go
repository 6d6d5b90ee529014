package source

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/annapoorna-info/certexam/internal/exam"
)

// Cache memoizes parsed question pools per source URL. Population is
// single-flight: concurrent first-accesses for one URL share one fetch,
// and a failed population is not cached so a retry can succeed. Entries
// live until Invalidate or process exit; the set of distinct sources is
// small and administrator-controlled, so there is no eviction.
type Cache struct {
	fetcher Fetcher

	mu    sync.RWMutex
	pools map[string][]exam.Question

	group singleflight.Group
}

func NewCache(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		pools:   make(map[string][]exam.Question),
	}
}

// Get returns the pool for sourceURL, fetching and parsing it on first
// access. Readers of an already-populated entry never block on other
// keys' populations.
func (c *Cache) Get(ctx context.Context, sourceURL string) ([]exam.Question, error) {
	c.mu.RLock()
	pool, ok := c.pools[sourceURL]
	c.mu.RUnlock()
	if ok {
		return pool, nil
	}

	v, err, _ := c.group.Do(sourceURL, func() (interface{}, error) {
		// Re-check under the flight: a previous flight may have
		// populated the entry between our read and Do.
		c.mu.RLock()
		pool, ok := c.pools[sourceURL]
		c.mu.RUnlock()
		if ok {
			return pool, nil
		}

		raw, err := c.fetcher.Fetch(ctx, sourceURL)
		if err != nil {
			return nil, err
		}
		questions, err := Parse(raw)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.pools[sourceURL] = questions
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]exam.Question), nil
}

// Cached returns the pool only if it is already populated. Grading uses
// this: it must consult the pool that produced the attempt, never trigger
// a fresh fetch.
func (c *Cache) Cached(sourceURL string) ([]exam.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pool, ok := c.pools[sourceURL]
	return pool, ok
}

// Invalidate drops the entry for sourceURL, forcing a refetch on next Get.
func (c *Cache) Invalidate(sourceURL string) {
	c.mu.Lock()
	delete(c.pools, sourceURL)
	c.mu.Unlock()
}
