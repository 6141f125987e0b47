// Package memory provides in-process implementations of both storage
// tiers. They back tests and single-process deployments; the sqlite and
// postgres packages provide the durable equivalents.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/keepsake-ai/keepsake/internal/storage"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// shortTermEntry pairs an item with its storage time for TTL expiry.
type shortTermEntry struct {
	item     *types.MemoryItem
	storedAt time.Time
}

// ShortTermStore implements storage.ShortTermStore with one bounded LRU
// per user. The LRU cap enforces the per-user bound; expiry is checked
// lazily on every read. Items are deep-copied across the boundary so a
// reader never observes a half-updated item.
type ShortTermStore struct {
	mu         sync.RWMutex
	users      map[string]*lru.Cache[string, *shortTermEntry]
	maxPerUser int
	ttl        time.Duration
	now        func() time.Time
}

// NewShortTermStore creates an in-memory short-term tier holding at most
// maxPerUser items per user, each expiring after ttl.
func NewShortTermStore(maxPerUser int, ttl time.Duration) *ShortTermStore {
	if maxPerUser < 1 {
		maxPerUser = 1
	}
	return &ShortTermStore{
		users:      make(map[string]*lru.Cache[string, *shortTermEntry]),
		maxPerUser: maxPerUser,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (s *ShortTermStore) cacheFor(userID string) *lru.Cache[string, *shortTermEntry] {
	if c, ok := s.users[userID]; ok {
		return c
	}
	// lru.New only errors on a non-positive size, which the constructor
	// already guards against.
	c, _ := lru.New[string, *shortTermEntry](s.maxPerUser)
	s.users[userID] = c
	return c
}

func (s *ShortTermStore) expired(e *shortTermEntry) bool {
	return s.ttl > 0 && s.now().Sub(e.storedAt) > s.ttl
}

// Put creates or replaces an item. The oldest item is evicted when the
// user is at capacity.
func (s *ShortTermStore) Put(_ context.Context, item *types.MemoryItem) error {
	if item == nil || item.ID == "" || item.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cacheFor(item.UserID).Add(item.ID, &shortTermEntry{
		item:     item.Clone(),
		storedAt: s.now(),
	})
	return nil
}

// Get retrieves one unexpired item.
func (s *ShortTermStore) Get(_ context.Context, userID, id string) (*types.MemoryItem, error) {
	s.mu.RLock()
	cache, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, storage.ErrNotFound
	}

	entry, ok := cache.Get(id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	if s.expired(entry) {
		cache.Remove(id)
		return nil, storage.ErrNotFound
	}
	return entry.item.Clone(), nil
}

// ListByUser returns the user's unexpired items newest-first.
func (s *ShortTermStore) ListByUser(_ context.Context, userID string) ([]*types.MemoryItem, error) {
	s.mu.RLock()
	cache, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var items []*types.MemoryItem
	for _, id := range cache.Keys() {
		entry, ok := cache.Peek(id)
		if !ok {
			continue
		}
		if s.expired(entry) {
			cache.Remove(id)
			continue
		}
		items = append(items, entry.item.Clone())
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}

// Delete removes an item, reporting whether it was present.
func (s *ShortTermStore) Delete(_ context.Context, userID, id string) (bool, error) {
	s.mu.RLock()
	cache, ok := s.users[userID]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return cache.Remove(id), nil
}

// ClearByUser removes every item belonging to the user.
func (s *ShortTermStore) ClearByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *ShortTermStore) Close() error {
	return nil
}
