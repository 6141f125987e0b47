package engine

import (
	"context"
	"fmt"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// MemoryContext is what Retrieve hands back to the caller: both tiers'
// relevant items plus a token-budgeted digest ready for prompt assembly.
type MemoryContext struct {
	ShortTerm []*types.MemoryItem `json:"short_term"`
	LongTerm  []*types.MemoryItem `json:"long_term"`
	Digest    string              `json:"digest,omitempty"`
}

// Retrieve assembles a user's memory context. The short-term tier returns
// recent items; the long-term tier is queried for relevance when a query is
// given. Items still pending consent appear in short-term results, withheld
// only from the long-term tier.
func (e *Engine) Retrieve(ctx context.Context, userID, query string, limit int) (*MemoryContext, error) {
	if userID == "" {
		return nil, fmt.Errorf("engine: user ID is required")
	}
	if limit <= 0 {
		limit = 10
	}

	shortItems, err := e.router.ShortTerm().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("engine: short-term retrieval: %w", err)
	}
	if len(shortItems) > limit {
		shortItems = shortItems[:limit]
	}

	longItems, err := e.router.LongTerm().Query(ctx, userID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("engine: long-term retrieval: %w", err)
	}

	mc := &MemoryContext{
		ShortTerm: shortItems,
		LongTerm:  longItems,
		Digest:    e.digest.Build(longItems, shortItems),
	}

	ev := types.NewAuditEvent(types.AuditMemoryAccessed, userID, types.AuditInfo)
	ev.Details = map[string]interface{}{
		"short_term_count": len(shortItems),
		"long_term_count":  len(longItems),
		"queried":          query != "",
	}
	e.audit.Emit(ev)

	return mc, nil
}
