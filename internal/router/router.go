// Package router places memory items into the storage tiers according to
// their classification and consent state, and provides the cross-tier
// update, delete, and clear operations the engine builds on.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/storage"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// Router writes items to the short-term and long-term tiers. Every item
// gets a short-term copy; the engine decides when a persistent item also
// earns its long-term placement.
type Router struct {
	shortTerm storage.ShortTermStore
	longTerm  storage.LongTermStore
	log       zerolog.Logger
}

// New builds a router over both tiers.
func New(shortTerm storage.ShortTermStore, longTerm storage.LongTermStore, log zerolog.Logger) (*Router, error) {
	if shortTerm == nil {
		return nil, fmt.Errorf("router: short-term store is required")
	}
	if longTerm == nil {
		return nil, fmt.Errorf("router: long-term store is required")
	}
	return &Router{
		shortTerm: shortTerm,
		longTerm:  longTerm,
		log:       log.With().Str("component", "router").Logger(),
	}, nil
}

// Commit places a newly ingested item in the short-term tier, where every
// item gets a copy regardless of category. This write is authoritative: if
// it fails the commit fails. Long-term placement goes through CommitLongTerm
// so the caller can defer it while consent is pending and retry it on
// transient failures.
func (r *Router) Commit(ctx context.Context, item *types.MemoryItem) error {
	if err := r.shortTerm.Put(ctx, item); err != nil {
		return fmt.Errorf("router: short-term commit: %w", err)
	}
	return nil
}

// CommitLongTerm writes an item to the long-term tier only. A single
// attempt; the engine owns the retry and degradation policy around it.
func (r *Router) CommitLongTerm(ctx context.Context, item *types.MemoryItem) error {
	if err := r.longTerm.Put(ctx, item); err != nil {
		return fmt.Errorf("router: long-term commit: %w", err)
	}
	return nil
}

// Update rewrites an item in every tier that currently holds it. Tiers that
// do not hold the item are left untouched, so an update never widens an
// item's placement.
func (r *Router) Update(ctx context.Context, item *types.MemoryItem) error {
	updated := false

	if _, err := r.shortTerm.Get(ctx, item.UserID, item.ID); err == nil {
		if err := r.shortTerm.Put(ctx, item); err != nil {
			return fmt.Errorf("router: short-term update: %w", err)
		}
		updated = true
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("router: short-term lookup: %w", err)
	}

	if _, err := r.longTerm.Get(ctx, item.UserID, item.ID); err == nil {
		if err := r.longTerm.Put(ctx, item); err != nil {
			return fmt.Errorf("router: long-term update: %w", err)
		}
		updated = true
	} else if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("router: long-term lookup: %w", err)
	}

	if !updated {
		return storage.ErrNotFound
	}
	return nil
}

// Delete removes an item from both tiers and reports whether any copy
// existed. Both tiers are attempted even if the first delete fails.
func (r *Router) Delete(ctx context.Context, userID, id string) (bool, error) {
	shortRemoved, shortErr := r.shortTerm.Delete(ctx, userID, id)
	longRemoved, longErr := r.longTerm.Delete(ctx, userID, id)

	if shortErr != nil {
		return shortRemoved || longRemoved, fmt.Errorf("router: short-term delete: %w", shortErr)
	}
	if longErr != nil {
		return shortRemoved || longRemoved, fmt.Errorf("router: long-term delete: %w", longErr)
	}
	return shortRemoved || longRemoved, nil
}

// Clear removes all of a user's items from both tiers.
func (r *Router) Clear(ctx context.Context, userID string) error {
	shortErr := r.shortTerm.ClearByUser(ctx, userID)
	longErr := r.longTerm.ClearByUser(ctx, userID)
	if shortErr != nil {
		return fmt.Errorf("router: short-term clear: %w", shortErr)
	}
	if longErr != nil {
		return fmt.Errorf("router: long-term clear: %w", longErr)
	}
	return nil
}

// ShortTerm exposes the short-term tier for read paths.
func (r *Router) ShortTerm() storage.ShortTermStore { return r.shortTerm }

// LongTerm exposes the long-term tier for read paths.
func (r *Router) LongTerm() storage.LongTermStore { return r.longTerm }
