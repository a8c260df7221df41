// Package repository defines the per-student score cache and its in-memory
// implementation.
package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mobilecsp/activityscores/internal/domain/scoretree"
	"github.com/mobilecsp/activityscores/pkg/metrics"
)

// cacheKeyPrefix matches the legacy per-student cache key format.
const cacheKeyPrefix = "activityscores:"

// CacheKey returns the cache key for a student's score entry.
func CacheKey(studentEmail string) string {
	return cacheKeyPrefix + studentEmail
}

// StudentEmail recovers the student email from a cache key.
func StudentEmail(key string) string {
	return strings.TrimPrefix(key, cacheKeyPrefix)
}

// Entry is a cached per-student aggregation result. Entries are written
// whole by the aggregation service and never partially mutated; staleness
// is decided by the caller's force-refresh flag, not by entry age.
type Entry struct {
	StudentKey   string
	SnapshotDate time.Time
	Scores       scoretree.Tree
	Attempts     scoretree.AttemptCounts
}

// Store provides read/write access to cached per-student score entries.
// Only the aggregation service writes; concurrent writes for the same key
// resolve last-writer-wins, which is safe because recomputation is
// idempotent given the same event history.
type Store interface {
	// Get returns the cached entry for a student key.
	// Returns ErrNotFound if the student has no entry.
	Get(ctx context.Context, studentKey string) (Entry, error)

	// Put overwrites the entry for a student key unconditionally.
	Put(ctx context.Context, e Entry)

	// Invalidate drops a student's entry.
	Invalidate(ctx context.Context, studentKey string)

	// Len returns the number of cached entries.
	Len(ctx context.Context) int
}

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// MemoryStore implements Store with a mutex-guarded map.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryStore creates an in-memory score cache with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the cached entry for a student key.
func (s *MemoryStore) Get(ctx context.Context, studentKey string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[studentKey]
	if !ok {
		metrics.RecordCacheMiss()
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, studentKey)
	}
	metrics.RecordCacheHit()
	return e, nil
}

// Put overwrites the entry for a student key unconditionally.
func (s *MemoryStore) Put(ctx context.Context, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[e.StudentKey] = e
	metrics.UpdateCacheEntries(len(s.entries))
}

// Invalidate drops a student's entry.
func (s *MemoryStore) Invalidate(ctx context.Context, studentKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, studentKey)
	metrics.UpdateCacheEntries(len(s.entries))
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
