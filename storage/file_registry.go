package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileRegistry keeps the visited set in memory and mirrors it to a JSON file,
// so a CLI crawl can skip pages visited by an earlier run.
type FileRegistry struct {
	visitedFile string
	visited     map[string]bool
	mu          sync.Mutex
}

func NewFileRegistry(path string) (*FileRegistry, error) {
	if path == "" {
		path = "./data/visited.json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create registry directory: %w", err)
	}

	r := &FileRegistry{
		visitedFile: path,
		visited:     make(map[string]bool),
	}
	if err := r.loadVisited(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRegistry) loadVisited() error {
	data, err := os.ReadFile(r.visitedFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read visited file: %w", err)
	}

	var visited []string
	if err := json.Unmarshal(data, &visited); err != nil {
		return fmt.Errorf("failed to unmarshal visited: %w", err)
	}

	for _, key := range visited {
		r.visited[key] = true
	}
	return nil
}

func (r *FileRegistry) saveVisited() error {
	visited := make([]string, 0, len(r.visited))
	for key := range r.visited {
		visited = append(visited, key)
	}
	sort.Strings(visited)

	data, err := json.Marshal(visited)
	if err != nil {
		return fmt.Errorf("failed to marshal visited: %w", err)
	}

	tmp := r.visitedFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write visited file: %w", err)
	}
	return os.Rename(tmp, r.visitedFile)
}

func (r *FileRegistry) Contains(ctx context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.visited[url], nil
}

func (r *FileRegistry) Add(ctx context.Context, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.visited[url] {
		return false, nil
	}
	r.visited[url] = true
	if err := r.saveVisited(); err != nil {
		return true, err
	}
	return true, nil
}

func (r *FileRegistry) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.visited = make(map[string]bool)
	return r.saveVisited()
}

func (r *FileRegistry) Len(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.visited), nil
}

func (r *FileRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.saveVisited()
}
