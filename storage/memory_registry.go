package storage

import (
	"context"
	"sync"
)

type MemoryRegistry struct {
	visited map[string]struct{}
	mu      sync.RWMutex
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		visited: make(map[string]struct{}),
	}
}

func (r *MemoryRegistry) Contains(ctx context.Context, url string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.visited[url]
	return ok, nil
}

func (r *MemoryRegistry) Add(ctx context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.visited[url]; ok {
		return false, nil
	}
	r.visited[url] = struct{}{}
	return true, nil
}

func (r *MemoryRegistry) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.visited = make(map[string]struct{})
	return nil
}

func (r *MemoryRegistry) Len(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.visited), nil
}

func (r *MemoryRegistry) Close() error {
	return nil
}
