// Package cache keeps hot listing data (categories, authors, source
// stats) out of the database between ingestion runs.
package cache

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Well-known cache keys. Everything under them is flushed after an
// ingestion or cleanup run changes the article set.
const (
	KeyCategories = "listing:categories"
	KeyAuthors    = "listing:authors"
	KeySourceStat = "listing:source_stats"
)

type Manager struct {
	cache *cache.Cache
	mu    sync.RWMutex
}

func NewManager(defaultTTL time.Duration) *Manager {
	return &Manager{
		cache: cache.New(defaultTTL, 10*time.Minute),
	}
}

func (m *Manager) Get(key string) (interface{}, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cache.Get(key)
}

func (m *Manager) Set(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set(key, value, ttl)
}

func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(key)
}

func (m *Manager) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Flush()
}

// Remember returns the cached value under key, computing and storing
// it with the default TTL on a miss. The loader's error is passed
// through without caching.
func (m *Manager) Remember(key string, loader func() (interface{}, error)) (interface{}, error) {
	if value, found := m.Get(key); found {
		return value, nil
	}

	value, err := loader()
	if err != nil {
		return nil, err
	}

	m.Set(key, value, 0)
	return value, nil
}
