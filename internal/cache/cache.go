// Package cache keeps the finished tables the dashboard reads between refresh cycles.
package cache

import (
	"errors"
	"slices"
	"sync"
	"time"
)

var ErrNotFound = errors.New("cache: key not found")

type entry struct {
	data      []byte
	updatedAt time.Time
}

// Cache is a concurrent in-memory store of serialized tables. Values are replaced as a
// whole and never mutated in place.
type Cache struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func New() *Cache {
	return &Cache{items: make(map[string]entry), now: time.Now}
}

func (c *Cache) Get(key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return e.data, nil
}

// UpdatedAt returns when key was last written.
func (c *Cache) UpdatedAt(key string) (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return e.updatedAt, nil
}

func (c *Cache) Set(key string, data []byte) {
	c.SetMany(map[string][]byte{key: data})
}

// SetMany replaces all given keys at once: readers see either the old or the new set.
func (c *Cache) SetMany(items map[string][]byte) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range items {
		c.items[k] = entry{data: slices.Clone(v), updatedAt: now}
	}
}

// Keys lists the stored keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for k := range c.items {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
