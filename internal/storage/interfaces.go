// Package storage defines the contracts for the two memory tiers.
//
// The tiers are small, focused interfaces implemented independently:
// an in-memory backend for tests and single-process use, sqlite for the
// short-term tier, and postgres for the long-term tier. Both tiers
// guarantee atomic per-key writes: a reader racing an update sees either
// the old item or the new one, never a partially updated item.
package storage

import (
	"context"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// ShortTermStore is the bounded, per-user, recency-ordered tier used for
// near-term conversational context. Implementations evict beyond a
// configured per-user cap and expire items past a TTL.
type ShortTermStore interface {
	// Put creates or replaces an item (upsert keyed by item ID).
	Put(ctx context.Context, item *types.MemoryItem) error

	// Get retrieves one item. Returns ErrNotFound if absent or expired.
	Get(ctx context.Context, userID, id string) (*types.MemoryItem, error)

	// ListByUser returns the user's unexpired items newest-first.
	ListByUser(ctx context.Context, userID string) ([]*types.MemoryItem, error)

	// Delete removes an item, reporting whether it was present.
	// Deleting an absent item is a no-op, not an error.
	Delete(ctx context.Context, userID, id string) (bool, error)

	// ClearByUser removes every item belonging to the user.
	ClearByUser(ctx context.Context, userID string) error

	// Close releases any resources held by the store.
	Close() error
}

// LongTermStore is the unbounded, per-user, semantically queryable tier
// for durable memories.
type LongTermStore interface {
	// Put creates or replaces an item (upsert keyed by item ID).
	Put(ctx context.Context, item *types.MemoryItem) error

	// Get retrieves one item. Returns ErrNotFound if absent.
	Get(ctx context.Context, userID, id string) (*types.MemoryItem, error)

	// ListByUser returns all of the user's items newest-first.
	ListByUser(ctx context.Context, userID string) ([]*types.MemoryItem, error)

	// Query returns up to limit items ranked by similarity to the query
	// text. An empty query degrades to ListByUser semantics.
	Query(ctx context.Context, userID, query string, limit int) ([]*types.MemoryItem, error)

	// Delete removes an item, reporting whether it was present.
	Delete(ctx context.Context, userID, id string) (bool, error)

	// ClearByUser removes every item belonging to the user.
	ClearByUser(ctx context.Context, userID string) error

	// Close releases any resources held by the store.
	Close() error
}
