package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/keepsake-ai/keepsake/internal/storage"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// LongTermStore implements storage.LongTermStore in process memory.
// Query ranks by keyword overlap rather than embeddings; the postgres
// backend provides true semantic similarity.
type LongTermStore struct {
	mu    sync.RWMutex
	users map[string]map[string]*types.MemoryItem
}

// NewLongTermStore creates an in-memory long-term tier.
func NewLongTermStore() *LongTermStore {
	return &LongTermStore{users: make(map[string]map[string]*types.MemoryItem)}
}

// Put creates or replaces an item.
func (s *LongTermStore) Put(_ context.Context, item *types.MemoryItem) error {
	if item == nil || item.ID == "" || item.UserID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.users[item.UserID]
	if !ok {
		byID = make(map[string]*types.MemoryItem)
		s.users[item.UserID] = byID
	}
	byID[item.ID] = item.Clone()
	return nil
}

// Get retrieves one item.
func (s *LongTermStore) Get(_ context.Context, userID, id string) (*types.MemoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.users[userID][id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return item.Clone(), nil
}

// ListByUser returns all of the user's items newest-first.
func (s *LongTermStore) ListByUser(_ context.Context, userID string) ([]*types.MemoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]*types.MemoryItem, 0, len(s.users[userID]))
	for _, item := range s.users[userID] {
		items = append(items, item.Clone())
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	return items, nil
}

// Query returns up to limit items ranked by keyword overlap with the
// query text. An empty query falls back to newest-first listing.
func (s *LongTermStore) Query(ctx context.Context, userID, query string, limit int) ([]*types.MemoryItem, error) {
	items, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	if query != "" {
		terms := tokenize(query)
		type scored struct {
			item  *types.MemoryItem
			score int
		}
		ranked := make([]scored, 0, len(items))
		for _, item := range items {
			if sc := overlap(terms, tokenize(item.Content)); sc > 0 {
				ranked = append(ranked, scored{item, sc})
			}
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].score > ranked[j].score
		})
		items = make([]*types.MemoryItem, len(ranked))
		for i, r := range ranked {
			items[i] = r.item
		}
	}

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Delete removes an item, reporting whether it was present.
func (s *LongTermStore) Delete(_ context.Context, userID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID][id]; !ok {
		return false, nil
	}
	delete(s.users[userID], id)
	return true, nil
}

// ClearByUser removes every item belonging to the user.
func (s *LongTermStore) ClearByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *LongTermStore) Close() error {
	return nil
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if len(w) > 2 {
			tokens[w] = struct{}{}
		}
	}
	return tokens
}

func overlap(a, b map[string]struct{}) int {
	count := 0
	for t := range a {
		if _, ok := b[t]; ok {
			count++
		}
	}
	return count
}
