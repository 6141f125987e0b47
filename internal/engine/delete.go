package engine

import (
	"context"
	"fmt"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// Delete removes one memory item from every tier and drops its consent
// record. Returns whether any copy existed. Deleting an item that is
// pending consent counts as resolving it by removal.
func (e *Engine) Delete(ctx context.Context, userID, memoryID string) (bool, error) {
	if userID == "" || memoryID == "" {
		return false, fmt.Errorf("engine: user ID and memory ID are required")
	}

	mu := e.itemLock(userID, memoryID)
	mu.Lock()
	defer mu.Unlock()

	removed, err := e.router.Delete(ctx, userID, memoryID)
	if err != nil {
		return removed, err
	}

	rec, tracked := e.pending.get(userID, memoryID)
	e.pending.remove(userID, memoryID)
	e.releaseLock(userID, memoryID)

	if removed || tracked {
		ev := types.NewAuditEvent(types.AuditMemoryDeleted, userID, types.AuditInfo)
		ev.MemoryRef = &types.MemoryRef{ID: memoryID}
		if tracked {
			ev.MemoryRef.HasPII = rec.Detection.HasPII
			ev.MemoryRef.SensitiveTypes = rec.Detection.SensitiveTypes()
			ev.Details = map[string]interface{}{"consent_state": string(rec.State)}
		}
		e.audit.Emit(ev)
	}

	return removed, nil
}

// Clear removes all of a user's memories from every tier along with their
// consent records.
func (e *Engine) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("engine: user ID is required")
	}

	if err := e.router.Clear(ctx, userID); err != nil {
		return err
	}

	ids := e.pending.removeByUser(userID)
	for _, id := range ids {
		e.releaseLock(userID, id)
	}

	ev := types.NewAuditEvent(types.AuditMemoryCleared, userID, types.AuditInfo)
	ev.Details = map[string]interface{}{"tracked_records": len(ids)}
	e.audit.Emit(ev)

	e.log.Info().Str("user_id", userID).Msg("user memories cleared")
	return nil
}
