package textbulker

import (
	"context"
	"sync"
	"time"

	"github.com/textbulker/textbulker/plugin"
)

// SettingsCache is an in-memory TTL cache in front of a plugin.SettingsStore.
// Saves write through and replace the cached record.
type SettingsCache struct {
	mu       sync.RWMutex
	settings plugin.Settings
	fetched  time.Time
	ttl      time.Duration
	store    plugin.SettingsStore
}

// NewSettingsCache creates a SettingsCache backed by the given store.
func NewSettingsCache(s plugin.SettingsStore, ttl time.Duration) *SettingsCache {
	return &SettingsCache{store: s, ttl: ttl}
}

func (c *SettingsCache) valid() bool {
	return c.settings != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.settings = nil
	c.mu.Unlock()
}

// Load returns a copy of the cached settings, reloading when stale.
// It tries a read lock first; only takes a write lock if a reload is needed.
func (c *SettingsCache) Load(ctx context.Context) (plugin.Settings, error) {
	c.mu.RLock()
	if c.valid() {
		s := c.settings.Clone()
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid() {
		s, err := c.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if s == nil {
			s = plugin.Settings{}
		}
		c.settings = s
		c.fetched = time.Now()
	}
	return c.settings.Clone(), nil
}

// Save writes s to the backing store and caches it.
func (c *SettingsCache) Save(ctx context.Context, s plugin.Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(ctx, s); err != nil {
		c.settings = nil
		return err
	}
	c.settings = s.Clone()
	c.fetched = time.Now()
	return nil
}
