// Package querycache keeps recently fetched API reads for a freshness window
// and collapses concurrent identical fetches into one request.
package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultFreshFor = 60 * time.Second

type entry struct {
	value     any
	fetchedAt time.Time
}

type Cache struct {
	freshFor time.Duration
	now      func() time.Time
	group    singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
	epoch   uint64
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New builds a cache. A non-positive freshFor uses DefaultFreshFor.
func New(freshFor time.Duration, opts ...Option) *Cache {
	if freshFor <= 0 {
		freshFor = DefaultFreshFor
	}
	c := &Cache{
		freshFor: freshFor,
		now:      time.Now,
		entries:  make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the fresh cached value for key or runs fetch. Concurrent
// callers for the same key share one fetch. Errors are never cached, and a
// result whose fetch straddled an Invalidate is returned to the callers that
// joined it but not stored.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.lookup(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	// The flight key carries the epoch so a fetch that starts after an
	// Invalidate or Forget never joins a flight that started before it.
	epoch := c.currentEpoch()
	ch := c.group.DoChan(key+"#"+strconv.FormatUint(epoch, 10), func() (any, error) {
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.store(key, v, epoch)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		typed, _ := res.Val.(T)
		return typed, nil
	}
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.freshFor {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) currentEpoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

func (c *Cache) store(key string, v any, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return
	}
	c.entries[key] = entry{value: v, fetchedAt: c.now()}
}

// Invalidate drops every entry whose key starts with prefix. An empty prefix
// drops everything.
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Forget drops exactly key.
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	delete(c.entries, key)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
