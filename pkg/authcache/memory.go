package authcache

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// MemoryBackend is an in-process hash store backed by an LRU of per-key field
// maps. Used by tests and single-node deployments where Redis is not worth
// running. Eviction of a cold key is equivalent to an invalidation: the next
// read recomputes from source.
type MemoryBackend struct {
	mu    sync.Mutex
	cache *lru.Cache[string, map[string][]byte]
}

// NewMemoryBackend creates a memory backend holding at most size keys.
func NewMemoryBackend(size int) (*MemoryBackend, error) {
	cache, err := lru.New[string, map[string][]byte](size)
	if err != nil {
		return nil, err
	}
	return &MemoryBackend{cache: cache}, nil
}

// HGet returns the value of a hash field, or ErrMiss.
func (b *MemoryBackend) HGet(_ context.Context, key, field string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fields, ok := b.cache.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	value, ok := fields[field]
	if !ok {
		return nil, ErrMiss
	}
	return value, nil
}

// HSet sets a hash field.
func (b *MemoryBackend) HSet(_ context.Context, key, field string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	fields, ok := b.cache.Get(key)
	if !ok {
		fields = make(map[string][]byte)
	}
	fields[field] = value
	b.cache.Add(key, fields)
	return nil
}

// HDel removes a hash field.
func (b *MemoryBackend) HDel(_ context.Context, key, field string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if fields, ok := b.cache.Get(key); ok {
		delete(fields, field)
	}
	return nil
}

// Del removes the whole hash.
func (b *MemoryBackend) Del(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cache.Remove(key)
	return nil
}
