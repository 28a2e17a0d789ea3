package quotecache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trolleyhq/trolley/errs"
)

// MemoryBackend is an in-memory implementation of Backend guarded by a RWMutex.
type MemoryBackend struct {
	mu       sync.RWMutex
	entries  map[Key]Entry
	ttl      time.Duration
	shutdown chan struct{}
	once     sync.Once
}

// NewMemoryBackend creates a memory-backed cache store. Entries older than ttl
// are pruned by a background sweeper every sweepInterval; expiry semantics for
// readers are enforced by the Cache, the sweeper only reclaims memory.
func NewMemoryBackend(ttl, sweepInterval time.Duration) *MemoryBackend {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	backend := new(MemoryBackend)
	backend.entries = make(map[Key]Entry)
	backend.ttl = ttl
	backend.shutdown = make(chan struct{})
	go backend.sweepExpired(sweepInterval)
	return backend
}

// Get returns the stored entry for key.
func (m *MemoryBackend) Get(ctx context.Context, key Key) (Entry, error) {
	if err := key.Validate(); err != nil {
		return Entry{}, err
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return Entry{}, fmt.Errorf("memory backend get context: %w", ctx.Err())
		default:
		}
	}
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return Entry{}, errs.New(key.StoreKey, errs.CodeNotFound, errs.WithMessage("quote not cached"))
	}
	return entry, nil
}

// Put stores the entry, replacing any previous value for its key.
func (m *MemoryBackend) Put(ctx context.Context, entry Entry) error {
	if err := entry.Key.Validate(); err != nil {
		return err
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("memory backend put context: %w", ctx.Err())
		default:
		}
	}
	if entry.FetchedAt.IsZero() {
		entry.FetchedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.entries[entry.Key] = entry
	m.mu.Unlock()
	return nil
}

// Delete removes the entry for key if present.
func (m *MemoryBackend) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return fmt.Errorf("memory backend delete context: %w", ctx.Err())
		default:
		}
	}
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops background maintenance routines.
func (m *MemoryBackend) Close() {
	m.once.Do(func() {
		close(m.shutdown)
	})
}

func (m *MemoryBackend) sweepExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.shutdown:
			return
		case <-ticker.C:
			m.pruneExpired()
		}
	}
}

func (m *MemoryBackend) pruneExpired() {
	if m.ttl <= 0 {
		return
	}
	now := time.Now().UTC()
	m.mu.Lock()
	for key, entry := range m.entries {
		if entry.FetchedAt.Add(m.ttl).Before(now) {
			delete(m.entries, key)
		}
	}
	m.mu.Unlock()
}
