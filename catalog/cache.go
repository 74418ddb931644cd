package catalog

import (
	"sync"
)

// Cache holds the current Snapshot. There is one writer, the Refresher, and
// any number of readers. Readers keep whatever Snapshot they were given even
// after it has been replaced.
type Cache struct {
	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewCache returns a cache holding an empty snapshot.
func NewCache() *Cache {
	return &Cache{
		snapshot: emptySnapshot(),
	}
}

// Current returns the installed snapshot.
func (c *Cache) Current() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.snapshot
}

// Replace installs s as the current snapshot.
func (c *Cache) Replace(s *Snapshot) {
	if s == nil {
		return
	}

	c.mu.Lock()
	c.snapshot = s
	c.mu.Unlock()
}

// Ready reports whether a fetched catalog has been installed.
func (c *Cache) Ready() bool {
	return !c.Current().FetchedAt().IsZero()
}
