package answer

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	defaultCacheSize = 128
	defaultCacheTTL  = 30 * time.Minute
)

type cacheEntry struct {
	text     string
	storedAt time.Time
}

// Cache remembers recent answers keyed by the normalised question.
type Cache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, cacheEntry]
	ttl time.Duration
	now func() time.Time
}

// NewCache returns a cache of at most size answers, each valid for ttl.
// Zero values fall back to 128 entries and 30 minutes.
func NewCache(size int, ttl time.Duration) (*Cache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: c, ttl: ttl, now: time.Now}, nil
}

func cacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (c *Cache) Get(query string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query)
	e, ok := c.lru.Get(key)
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.lru.Remove(key)
		return "", false
	}
	return e.text, true
}

func (c *Cache) Put(query, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(cacheKey(query), cacheEntry{text: text, storedAt: c.now()})
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
