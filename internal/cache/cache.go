// Package cache provides the process-wide in-memory key/value cache used by
// the QR and user services. Entries have no TTL and are only removed by
// explicit eviction.
package cache

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	// ErrNotFoundOrTypeMismatch matches every failed read.
	ErrNotFoundOrTypeMismatch = errors.New("cache: not found or type mismatch")
	// ErrMiss is returned when the key is absent.
	ErrMiss = fmt.Errorf("%w: miss", ErrNotFoundOrTypeMismatch)
	// ErrTypeMismatch is returned when the stored value does not have the requested shape.
	ErrTypeMismatch = fmt.Errorf("%w: type mismatch", ErrNotFoundOrTypeMismatch)
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gopherqr_cache_hits_total",
		Help: "Total number of cache reads served from memory.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gopherqr_cache_misses_total",
		Help: "Total number of cache reads that found no usable entry.",
	})
)

// listEntry marks list values so they cannot be confused with scalars.
type listEntry[T any] struct {
	items []T
}

func newListEntry[T any](items []T) listEntry[T] {
	return listEntry[T]{items: append(make([]T, 0, len(items)), items...)}
}

// versionStripes is the number of write counters keys are hashed onto.
const versionStripes = 256

// Cache is an unbounded concurrent map. The zero value is not usable, use New.
//
// Every Put and Evict bumps the write counter of the key's stripe before
// touching the entry. Readers that load from the store on a miss take a
// Version before the load and populate with PutIfVersion, which refuses to
// store once a write has hit the stripe in between.
type Cache struct {
	m        *xsync.MapOf[string, any]
	versions [versionStripes]atomic.Uint64
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{m: xsync.NewMapOf[string, any]()}
}

func (c *Cache) stripe(key string) *atomic.Uint64 {
	return &c.versions[xxhash.Sum64String(key)%versionStripes]
}

// Put stores value under key, replacing any previous entry.
func (c *Cache) Put(key string, value any) {
	c.stripe(key).Add(1)
	c.m.Store(key, value)
}

// Evict removes key. Evicting an absent key is a no-op.
func (c *Cache) Evict(key string) {
	c.stripe(key).Add(1)
	c.m.Delete(key)
}

// Version returns the write counter covering key.
func (c *Cache) Version(key string) uint64 {
	return c.stripe(key).Load()
}

// PutIfVersion stores value under key unless a Put or Evict on the key's
// stripe happened since version was taken. It reports whether it stored.
func (c *Cache) PutIfVersion(key string, value any, version uint64) bool {
	stored := false
	c.m.Compute(key, func(old any, loaded bool) (any, bool) {
		if c.stripe(key).Load() != version {
			return old, !loaded
		}
		stored = true
		return value, false
	})
	return stored
}

// ContainsKey reports whether key currently has an entry.
func (c *Cache) ContainsKey(key string) bool {
	_, ok := c.m.Load(key)
	return ok
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	return c.m.Size()
}

func (c *Cache) load(key string) (any, error) {
	v, ok := c.m.Load(key)
	if !ok {
		cacheMissesTotal.Inc()
		return nil, ErrMiss
	}
	return v, nil
}

// Get returns the scalar value stored under key.
func Get[T any](c *Cache, key string) (T, error) {
	var zero T
	v, err := c.load(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		cacheMissesTotal.Inc()
		return zero, fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, key, v)
	}
	cacheHitsTotal.Inc()
	return typed, nil
}

// PutList stores a copy of items under key. A nil or empty slice is cached
// as an empty list.
func PutList[T any](c *Cache, key string, items []T) {
	c.Put(key, newListEntry(items))
}

// PutListIfVersion is the list variant of PutIfVersion.
func PutListIfVersion[T any](c *Cache, key string, items []T, version uint64) bool {
	return c.PutIfVersion(key, newListEntry(items), version)
}

// GetList returns a copy of the list stored under key.
func GetList[T any](c *Cache, key string) ([]T, error) {
	v, err := c.load(key)
	if err != nil {
		return nil, err
	}
	entry, ok := v.(listEntry[T])
	if !ok {
		cacheMissesTotal.Inc()
		return nil, fmt.Errorf("%w: key %q is not a list of %T", ErrTypeMismatch, key, *new(T))
	}
	cacheHitsTotal.Inc()
	return append(make([]T, 0, len(entry.items)), entry.items...), nil
}
