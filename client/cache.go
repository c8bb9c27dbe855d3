package client

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Namespace groups cached queries for one entity so a mutation can drop all
// of them at once.
type Namespace string

const (
	NSApps          Namespace = "apps"
	NSInteractions  Namespace = "interactions"
	NSRewards       Namespace = "rewards"
	NSCategories    Namespace = "categories"
	NSUser          Namespace = "user"
	NSNotifications Namespace = "notifications"
)

type Cache struct {
	mu     sync.Mutex
	size   int
	ttl    time.Duration
	spaces map[Namespace]*expirable.LRU[string, interface{}]
}

func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{size: size, ttl: ttl, spaces: map[Namespace]*expirable.LRU[string, interface{}]{}}
}

func (c *Cache) space(ns Namespace) *expirable.LRU[string, interface{}] {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.spaces[ns]
	if !ok {
		s = expirable.NewLRU[string, interface{}](c.size, nil, c.ttl)
		c.spaces[ns] = s
	}
	return s
}

func (c *Cache) Get(ns Namespace, key string) (interface{}, bool) {
	return c.space(ns).Get(key)
}

func (c *Cache) Set(ns Namespace, key string, v interface{}) {
	c.space(ns).Add(key, v)
}

// Invalidate drops every entry in the given namespaces.
func (c *Cache) Invalidate(namespaces ...Namespace) {
	for _, ns := range namespaces {
		c.space(ns).Purge()
	}
}

func (c *Cache) Len(ns Namespace) int {
	return c.space(ns).Len()
}

// query returns the cached value for (ns, key) or loads and stores it.
// Failed loads are not cached.
func query[T any](c *Cache, ns Namespace, key string, load func() (T, error)) (T, error) {
	if v, ok := c.Get(ns, key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	c.Set(ns, key, v)
	return v, nil
}
