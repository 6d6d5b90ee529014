package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeFetcher counts fetches per URL and can be told to fail first.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	errs   map[string]error
	calls  int32

	// release, when set, blocks every fetch until closed: lets tests pile
	// concurrent callers onto one in-flight population.
	release chan struct{}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	body, ok := f.bodies[url]
	if !ok {
		return "", fmt.Errorf("%w: no such sheet", ErrSourceUnavailable)
	}
	return body, nil
}

const sheet = "h\nq1,a|b,1\nq2,a|b,2\nq3,a|b,1\n"

func TestCacheMemoizes(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"u1": sheet}}
	c := NewCache(f)

	p1, err := c.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	p2, err := c.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}
	if got := atomic.LoadInt32(&f.calls); got != 1 {
		t.Errorf("want exactly 1 fetch, got %d", got)
	}
	if len(p1) != 3 || len(p2) != 3 {
		t.Errorf("pool sizes %d,%d", len(p1), len(p2))
	}
}

func TestCacheSingleFlight(t *testing.T) {
	f := &fakeFetcher{
		bodies:  map[string]string{"u1": sheet},
		release: make(chan struct{}),
	}
	c := NewCache(f)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	pools := make([][]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := c.Get(context.Background(), "u1")
			errs[i] = err
			for _, q := range p {
				pools[i] = append(pools[i], q.ID)
			}
		}(i)
	}
	close(f.release)
	wg.Wait()

	if got := atomic.LoadInt32(&f.calls); got != 1 {
		t.Errorf("concurrent first access must share one fetch, got %d", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if len(pools[i]) != 3 {
			t.Errorf("caller %d observed partial pool: %v", i, pools[i])
		}
	}
}

func TestCacheFailureNotCached(t *testing.T) {
	f := &fakeFetcher{
		bodies: map[string]string{},
		errs:   map[string]error{"u1": fmt.Errorf("%w: boom", ErrSourceUnavailable)},
	}
	c := NewCache(f)

	if _, err := c.Get(context.Background(), "u1"); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("want ErrSourceUnavailable, got %v", err)
	}

	// Source recovers; a retry must fetch again and succeed.
	f.mu.Lock()
	delete(f.errs, "u1")
	f.bodies["u1"] = sheet
	f.mu.Unlock()

	pool, err := c.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if len(pool) != 3 {
		t.Errorf("pool size %d", len(pool))
	}
	if got := atomic.LoadInt32(&f.calls); got != 2 {
		t.Errorf("want 2 fetches (failure + retry), got %d", got)
	}
}

func TestCacheParseFailureNotCached(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"u1": "header only\n"}}
	c := NewCache(f)

	if _, err := c.Get(context.Background(), "u1"); !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("want ErrNoQuestions, got %v", err)
	}
	if _, ok := c.Cached("u1"); ok {
		t.Fatal("empty pool must never be cached")
	}
}

func TestCacheCachedAndInvalidate(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"u1": sheet}}
	c := NewCache(f)

	if _, ok := c.Cached("u1"); ok {
		t.Fatal("Cached must not populate")
	}
	if _, err := c.Get(context.Background(), "u1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := c.Cached("u1"); !ok {
		t.Fatal("pool should be cached after Get")
	}

	c.Invalidate("u1")
	if _, ok := c.Cached("u1"); ok {
		t.Fatal("pool should be gone after Invalidate")
	}
	if _, err := c.Get(context.Background(), "u1"); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got := atomic.LoadInt32(&f.calls); got != 2 {
		t.Errorf("want refetch after invalidate, got %d fetches", got)
	}
}
