// Package cache memoizes decisions per location and calendar day.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/airwatch-service/internal/domain"
	"github.com/couchcryptid/airwatch-service/internal/observability"
)

// DayLayout is the calendar-day format used in keys.
const DayLayout = "2006-01-02"

// Key identifies one cached decision.
type Key struct {
	Location string
	Day      string
}

// NewKey keys location on the calendar day of t in t's location.
func NewKey(location string, t time.Time) Key {
	return Key{Location: location, Day: t.Format(DayLayout)}
}

func (k Key) String() string { return k.Location + "|" + k.Day }

// Results is a bounded read-through cache of decisions. Concurrent misses for
// the same key share one computation, and failed computations are not stored.
// Entries from days older than the newest day seen are pruned.
type Results struct {
	lru     *lruCache
	group   singleflight.Group
	metrics *observability.Metrics
}

// New creates a cache holding at most maxEntries decisions.
func New(maxEntries int, metrics *observability.Metrics) *Results {
	return &Results{lru: newLRUCache(maxEntries), metrics: metrics}
}

// Get returns the cached decision for key, if any.
func (r *Results) Get(key Key) (domain.Decision, bool) {
	return r.lru.get(key)
}

// Len returns the number of cached decisions.
func (r *Results) Len() int {
	return r.lru.len()
}

// GetOrCompute returns the cached decision for key, calling fn on a miss.
// fn runs detached from ctx cancellation so that a caller giving up does not
// fail the callers sharing its computation. A cancelled caller returns
// ctx.Err() without waiting for fn.
func (r *Results) GetOrCompute(ctx context.Context, key Key, fn func(context.Context) (domain.Decision, error)) (domain.Decision, error) {
	if err := ctx.Err(); err != nil {
		return domain.Decision{}, err
	}
	if d, ok := r.lru.get(key); ok {
		r.metrics.Cache.WithLabelValues("hit").Inc()
		return d, nil
	}

	computeCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(key.String(), func() (any, error) {
		return r.fill(computeCtx, key, fn)
	})

	select {
	case <-ctx.Done():
		return domain.Decision{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.Decision{}, res.Err
		}
		return cloneDecision(res.Val.(domain.Decision)), nil
	}
}

// fill computes and stores the decision for key unless a concurrent flight
// stored it first.
func (r *Results) fill(ctx context.Context, key Key, fn func(context.Context) (domain.Decision, error)) (domain.Decision, error) {
	if d, ok := r.lru.get(key); ok {
		r.metrics.Cache.WithLabelValues("hit").Inc()
		return d, nil
	}
	r.metrics.Cache.WithLabelValues("miss").Inc()
	d, err := fn(ctx)
	if err != nil {
		return domain.Decision{}, err
	}
	r.lru.put(key, d)
	return d, nil
}

// cloneDecision copies the factor list so callers cannot alias cached state.
func cloneDecision(d domain.Decision) domain.Decision {
	d.Factors = slices.Clone(d.Factors)
	return d
}

// lruCache is a thread-safe LRU of decisions that also drops entries whose
// day is older than the newest day inserted.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[Key]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
	newestDay  string
}

type entry struct {
	key   Key
	value domain.Decision
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[Key]*entry),
	}
}

func (c *lruCache) get(key Key) (domain.Decision, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Decision{}, false
	}
	c.moveToFront(e)
	return cloneDecision(e.value), true
}

func (c *lruCache) put(key Key, value domain.Decision) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Days use DayLayout, so lexical order is chronological.
	switch {
	case key.Day < c.newestDay:
		return
	case key.Day > c.newestDay:
		c.newestDay = key.Day
		c.pruneBefore(key.Day)
	}

	value = cloneDecision(value)
	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) pruneBefore(day string) {
	for k, e := range c.entries {
		if k.Day < day {
			delete(c.entries, k)
			c.remove(e)
		}
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
