package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// RenderCache memoizes rendered chart HTML.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache is an in-memory TTL cache for rendered charts. A non-positive
// TTL disables caching.
type ChartCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL.
func NewChartCache(ttl time.Duration) *ChartCache {
	return &ChartCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedChart),
	}
}

// GetOrRender returns a live entry or renders and stores a new one. Render
// errors are not cached.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.ttl <= 0 {
		return render()
	}
	now := c.now()
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && now.Before(entry.expires) {
		c.mu.Unlock()
		return entry.html, nil
	}
	delete(c.entries, key)
	c.mu.Unlock()

	html, err := render()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.entries[key] = cachedChart{html: html, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return html, nil
}

// Len reports the number of stored entries, expired ones included.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// configHash returns a deterministic hash for a chart configuration.
func configHash(cfg map[string]any) string {
	if len(cfg) == 0 {
		return "empty"
	}
	b, err := json.Marshal(cfg)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
