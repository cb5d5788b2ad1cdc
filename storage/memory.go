package storage

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// MemoryResponseCache хранит ответы в памяти процесса.
// Используется, когда база данных не настроена.
type MemoryResponseCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	now     func() time.Time
	log     *slog.Logger
}

func NewMemoryResponseCache(log *slog.Logger) *MemoryResponseCache {
	log.Info("Initializing in-memory response cache")
	return &MemoryResponseCache{
		entries: make(map[string]Entry),
		now:     time.Now,
		log:     log,
	}
}

func (c *MemoryResponseCache) Get(ctx context.Context, key string) (*Entry, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.ExpiresAt) {
		return nil, ErrCacheMiss
	}
	e.Header = e.Header.Clone()
	e.Body = append([]byte(nil), e.Body...)
	return &e, nil
}

func (c *MemoryResponseCache) Put(ctx context.Context, key string, e Entry) error {
	e.Header = e.Header.Clone()
	if e.Header == nil {
		e.Header = http.Header{}
	}
	e.Body = append([]byte(nil), e.Body...)
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *MemoryResponseCache) Purge(ctx context.Context) (int64, error) {
	now := c.now()
	var removed int64
	c.mu.Lock()
	for k, e := range c.entries {
		if !now.Before(e.ExpiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed, nil
}

func (c *MemoryResponseCache) Close() {
	c.log.Info("Dropping in-memory response cache")
	c.mu.Lock()
	c.entries = make(map[string]Entry)
	c.mu.Unlock()
}
