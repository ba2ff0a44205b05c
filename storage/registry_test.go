package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type registryFactory struct {
	name string
	open func(t *testing.T) Registry
}

func registryFactories() []registryFactory {
	return []registryFactory{
		{
			name: "memory",
			open: func(t *testing.T) Registry { return NewMemoryRegistry() },
		},
		{
			name: "file",
			open: func(t *testing.T) Registry {
				r, err := NewFileRegistry(filepath.Join(t.TempDir(), "visited.json"))
				if err != nil {
					t.Fatalf("NewFileRegistry() error: %v", err)
				}
				return r
			},
		},
		{
			name: "sql",
			open: func(t *testing.T) Registry {
				r, err := NewSQLRegistry(SQLRegistryOptions{DSN: filepath.Join(t.TempDir(), "visited.db")})
				if err != nil {
					t.Fatalf("NewSQLRegistry() error: %v", err)
				}
				return r
			},
		},
	}
}

func TestRegistry_Add(t *testing.T) {
	for _, f := range registryFactories() {
		t.Run(f.name, func(t *testing.T) {
			r := f.open(t)
			defer r.Close()
			ctx := context.Background()

			inserted, err := r.Add(ctx, "https://example.com/")
			if err != nil {
				t.Fatalf("Add() error: %v", err)
			}
			if !inserted {
				t.Error("first Add() = false, want true")
			}

			inserted, err = r.Add(ctx, "https://example.com/")
			if err != nil {
				t.Fatalf("Add() error: %v", err)
			}
			if inserted {
				t.Error("second Add() = true, want false")
			}

			ok, err := r.Contains(ctx, "https://example.com/")
			if err != nil {
				t.Fatalf("Contains() error: %v", err)
			}
			if !ok {
				t.Error("Contains() = false after Add")
			}

			ok, _ = r.Contains(ctx, "https://example.com/other")
			if ok {
				t.Error("Contains() = true for unknown url")
			}

			if n, _ := r.Len(ctx); n != 1 {
				t.Errorf("Len() = %d, want 1", n)
			}
		})
	}
}

func TestRegistry_Clear(t *testing.T) {
	for _, f := range registryFactories() {
		t.Run(f.name, func(t *testing.T) {
			r := f.open(t)
			defer r.Close()
			ctx := context.Background()

			for i := range 5 {
				r.Add(ctx, fmt.Sprintf("https://example.com/%d", i))
			}

			if err := r.Clear(ctx); err != nil {
				t.Fatalf("Clear() error: %v", err)
			}
			if err := r.Clear(ctx); err != nil {
				t.Fatalf("second Clear() error: %v", err)
			}

			if n, _ := r.Len(ctx); n != 0 {
				t.Errorf("Len() = %d after Clear, want 0", n)
			}

			inserted, err := r.Add(ctx, "https://example.com/0")
			if err != nil {
				t.Fatalf("Add() error: %v", err)
			}
			if !inserted {
				t.Error("Add() after Clear = false, want true")
			}
		})
	}
}

func TestRegistry_ConcurrentAdd(t *testing.T) {
	for _, f := range registryFactories() {
		t.Run(f.name, func(t *testing.T) {
			r := f.open(t)
			defer r.Close()
			ctx := context.Background()

			const numGoroutines = 20
			const numURLs = 25

			var wg sync.WaitGroup
			var inserted int32
			wg.Add(numGoroutines)

			for range numGoroutines {
				go func() {
					defer wg.Done()
					for j := range numURLs {
						ok, err := r.Add(ctx, fmt.Sprintf("https://example.com/page-%d", j))
						if err != nil {
							t.Errorf("Add() error: %v", err)
							return
						}
						if ok {
							atomic.AddInt32(&inserted, 1)
						}
					}
				}()
			}

			wg.Wait()

			if inserted != numURLs {
				t.Errorf("inserted = %d, want %d (each url exactly once)", inserted, numURLs)
			}
		})
	}
}

func TestFileRegistry_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "visited.json")
	ctx := context.Background()

	r1, err := NewFileRegistry(path)
	if err != nil {
		t.Fatalf("NewFileRegistry() error: %v", err)
	}
	r1.Add(ctx, "https://example.com/a")
	r1.Add(ctx, "https://example.com/b")
	r1.Close()

	r2, err := NewFileRegistry(path)
	if err != nil {
		t.Fatalf("NewFileRegistry() reopen error: %v", err)
	}
	defer r2.Close()

	if n, _ := r2.Len(ctx); n != 2 {
		t.Errorf("Len() after reopen = %d, want 2", n)
	}
	if ok, _ := r2.Add(ctx, "https://example.com/a"); ok {
		t.Error("Add() of persisted url = true, want false")
	}
}

func TestSQLRegistry_Persistence(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "visited.db")
	ctx := context.Background()

	r1, err := NewSQLRegistry(SQLRegistryOptions{DSN: dsn})
	if err != nil {
		t.Fatalf("NewSQLRegistry() error: %v", err)
	}
	r1.Add(ctx, "https://example.com/a")
	r1.Close()

	r2, err := NewSQLRegistry(SQLRegistryOptions{DSN: dsn})
	if err != nil {
		t.Fatalf("NewSQLRegistry() reopen error: %v", err)
	}
	defer r2.Close()

	if ok, _ := r2.Contains(ctx, "https://example.com/a"); !ok {
		t.Error("Contains() after reopen = false, want true")
	}
	if r2.Driver() != DefaultSQLDriver {
		t.Errorf("Driver() = %q, want %q", r2.Driver(), DefaultSQLDriver)
	}
}

func TestSQLRegistry_UnknownDriver(t *testing.T) {
	_, err := NewSQLRegistry(SQLRegistryOptions{Driver: "postgres-nope", DSN: filepath.Join(t.TempDir(), "x.db")})
	if err == nil {
		t.Fatal("expected error for unregistered driver")
	}
	if !strings.Contains(err.Error(), "not compiled in") {
		t.Errorf("error = %v", err)
	}
}

func TestPrepareDSN(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		driver string
		dsn    string
		want   string
	}{
		{"sqlite3", filepath.Join(dir, "a.db"), filepath.Join(dir, "a.db") + "?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate"},
		{"sqlite3", filepath.Join(dir, "b.db") + "?mode=ro", filepath.Join(dir, "b.db") + "?mode=ro"},
		{"libsql", filepath.Join(dir, "c.db"), "file:" + filepath.Join(dir, "c.db")},
		{"libsql", "libsql://db.example.turso.io?authToken=x", "libsql://db.example.turso.io?authToken=x"},
	}

	for _, tt := range tests {
		got, err := prepareDSN(tt.driver, tt.dsn)
		if err != nil {
			t.Fatalf("prepareDSN(%q, %q) error: %v", tt.driver, tt.dsn, err)
		}
		if got != tt.want {
			t.Errorf("prepareDSN(%q, %q) = %q, want %q", tt.driver, tt.dsn, got, tt.want)
		}
	}
}
