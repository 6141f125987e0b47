package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/keepsake-ai/keepsake/internal/consent"
	"github.com/keepsake-ai/keepsake/internal/redact"
	"github.com/keepsake-ai/keepsake/internal/storage"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// ResolveResult reports the outcome of a consent decision.
type ResolveResult struct {
	// Item is the post-resolution item, nil when the decision removed it.
	Item *types.MemoryItem

	// Deleted is true when the decision removed the item from every tier.
	Deleted bool

	// Choice echoes the coarse choice that was applied, empty for granular
	// decisions.
	Choice types.ConsentChoice

	// PreviousState is the consent state before this resolution.
	PreviousState types.ConsentState

	// LongTermDegraded is true when the item belongs in the long-term tier
	// but the write kept failing after retries. The short-term copy is
	// intact and carries the longTermDegraded metadata flag.
	LongTermDegraded bool
}

// ResolveConsent applies a user's consent decision to a memory item.
// Invalid decisions are rejected before any state changes, so a rejected
// call is unobservable. Re-resolving an already resolved item is allowed;
// the redaction is recomputed from the original content so the last
// decision wins rather than stacking onto earlier edits. An item the
// engine is not tracking (never ingested, or already deleted) resolves as
// a no-op success, keeping removal idempotent.
func (e *Engine) ResolveConsent(ctx context.Context, userID, memoryID string, decision types.ConsentDecision) (*ResolveResult, error) {
	mu := e.itemLock(userID, memoryID)
	mu.Lock()
	defer mu.Unlock()

	return e.resolveLocked(ctx, userID, memoryID, decision)
}

// resolveLocked is ResolveConsent's body; the caller holds the item lock.
func (e *Engine) resolveLocked(ctx context.Context, userID, memoryID string, decision types.ConsentDecision) (*ResolveResult, error) {
	rec, ok := e.pending.get(userID, memoryID)
	if !ok {
		// Nothing tracked under this id. Treat the decision as already
		// settled rather than erroring, so deleting or re-resolving a
		// gone item stays idempotent.
		e.releaseLock(userID, memoryID)
		return &ResolveResult{}, nil
	}
	if !types.IsValidConsentTransition(rec.State, types.ConsentResolved) {
		return nil, fmt.Errorf("engine: cannot resolve consent from state %q", rec.State)
	}

	// Validation happens before any mutation.
	res, err := consent.Resolve(rec.Detection, decision)
	if err != nil {
		return nil, err
	}

	previous := rec.State

	if res.DeleteItem {
		return e.resolveByDelete(ctx, rec, previous)
	}
	return e.resolveByRedaction(ctx, rec, res, previous)
}

func (e *Engine) resolveByDelete(ctx context.Context, rec *consentRecord, previous types.ConsentState) (*ResolveResult, error) {
	if _, err := e.router.Delete(ctx, rec.UserID, rec.MemoryID); err != nil {
		return nil, err
	}
	e.pending.remove(rec.UserID, rec.MemoryID)

	ev := types.NewAuditEvent(types.AuditConsentRevoked, rec.UserID, types.AuditInfo)
	ev.MemoryRef = &types.MemoryRef{
		ID:             rec.MemoryID,
		HasPII:         rec.Detection.HasPII,
		SensitiveTypes: rec.Detection.SensitiveTypes(),
	}
	ev.Details = map[string]interface{}{
		"choice":         string(types.ChoiceRemoveEntirely),
		"previous_state": string(previous),
	}
	e.audit.Emit(ev)

	e.releaseLock(rec.UserID, rec.MemoryID)

	e.log.Info().
		Str("memory_id", rec.MemoryID).
		Msg("consent resolved by removal")

	return &ResolveResult{Deleted: true, Choice: types.ChoiceRemoveEntirely, PreviousState: previous}, nil
}

func (e *Engine) resolveByRedaction(ctx context.Context, rec *consentRecord, res consent.Resolution, previous types.ConsentState) (*ResolveResult, error) {
	content := redact.Apply(rec.OriginalContent, rec.Detection.DetectedItems, res.Actions)
	piiRemoved := content != rec.OriginalContent

	item, err := e.currentItem(ctx, rec.UserID, rec.MemoryID)
	if err != nil {
		return nil, err
	}

	item.Content = content
	item.UpdatedAt = time.Now().UTC()
	if item.Metadata == nil {
		item.Metadata = types.Metadata{}
	}
	delete(item.Metadata, types.MetaPendingConsent)
	delete(item.Metadata, types.MetaLongTermDegraded)
	item.Metadata[types.MetaPIIRemoved] = piiRemoved
	if res.ApprovedPII {
		item.Metadata[types.MetaUserApprovedPII] = true
	}
	if res.Choice != "" {
		item.Metadata[types.MetaPrivacyChoice] = string(res.Choice)
	}

	if err := e.router.Update(ctx, item); err != nil {
		return nil, err
	}

	result := &ResolveResult{Item: item, Choice: res.Choice, PreviousState: previous}

	// A persistent item that was withheld during pending_consent gets its
	// long-term placement now.
	if rec.Category.Persistent() {
		result.LongTermDegraded = e.placeLongTerm(ctx, item, rec.Detection.HasPII, types.AuditConsentGranted)
	}

	rec.State = types.ConsentResolved
	rec.ResolvedAt = time.Now().UTC()
	e.pending.put(rec)

	ev := types.NewAuditEvent(types.AuditConsentGranted, rec.UserID, types.AuditInfo)
	ev.MemoryRef = &types.MemoryRef{
		ID:             item.ID,
		Type:           item.Type,
		HasPII:         rec.Detection.HasPII,
		SensitiveTypes: rec.Detection.SensitiveTypes(),
	}
	ev.Details = map[string]interface{}{
		"previous_state": string(previous),
		"pii_removed":    piiRemoved,
		"approved_pii":   res.ApprovedPII,
	}
	if res.Choice != "" {
		ev.Details["choice"] = string(res.Choice)
	}
	e.audit.Emit(ev)

	e.log.Info().
		Str("memory_id", item.ID).
		Bool("pii_removed", piiRemoved).
		Msg("consent resolved")

	return result, nil
}

// currentItem loads the live copy of an item, preferring the short-term
// tier (every item has a copy there while the process is serving it).
func (e *Engine) currentItem(ctx context.Context, userID, memoryID string) (*types.MemoryItem, error) {
	item, err := e.router.ShortTerm().Get(ctx, userID, memoryID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}
	return e.router.LongTerm().Get(ctx, userID, memoryID)
}

// placeLongTerm writes a persistent item to the long-term tier, retrying
// transient failures with exponential backoff. Exhaustion degrades instead
// of failing: the short-term copy stays put, gets flagged in its metadata,
// and an error-level audit event records the outage. Returns true when the
// placement degraded.
func (e *Engine) placeLongTerm(ctx context.Context, item *types.MemoryItem, hasPII bool, eventType types.AuditEventType) bool {
	err := e.commitLongTermWithRetry(ctx, item)
	if err == nil {
		return false
	}

	if item.Metadata == nil {
		item.Metadata = types.Metadata{}
	}
	item.Metadata[types.MetaLongTermDegraded] = true
	if updateErr := e.router.Update(ctx, item); updateErr != nil {
		e.log.Error().Err(updateErr).
			Str("memory_id", item.ID).
			Msg("failed to flag long-term degradation")
	}

	ev := types.NewAuditEvent(eventType, item.UserID, types.AuditError)
	ev.MemoryRef = &types.MemoryRef{ID: item.ID, HasPII: hasPII}
	ev.Details = map[string]interface{}{"degraded": "long_term", "error": err.Error()}
	e.audit.Emit(ev)

	e.log.Warn().Err(err).
		Str("memory_id", item.ID).
		Msg("long-term placement degraded, short-term copy retained")
	return true
}

func (e *Engine) commitLongTermWithRetry(ctx context.Context, item *types.MemoryItem) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = e.cfg.Retry.InitialInterval
	policy := backoff.WithContext(
		backoff.WithMaxRetries(bo, uint64(e.cfg.Retry.MaxAttempts-1)), ctx)

	return backoff.Retry(func() error {
		return e.router.CommitLongTerm(ctx, item)
	}, policy)
}

// PendingConsent lists a user's items still awaiting a decision, oldest
// first.
func (e *Engine) PendingConsent(userID string) []string {
	recs := e.pending.pendingByUser(userID)
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.MemoryID)
	}
	return ids
}

// SweepExpiredConsent resolves every pending item older than the configured
// TTL with the default remove decision, and prunes resolved consent records
// past their retention window. Returns the IDs of removed items.
func (e *Engine) SweepExpiredConsent(ctx context.Context) ([]string, error) {
	now := time.Now().UTC()
	expired := e.pending.expiredBefore(now.Add(-e.cfg.Consent.PendingTTL))

	var removed []string
	for _, rec := range expired {
		swept, err := e.sweepOne(ctx, rec.UserID, rec.MemoryID)
		if err != nil {
			return removed, err
		}
		if swept {
			removed = append(removed, rec.MemoryID)
		}
	}

	pruned := e.pending.pruneResolved(now.Add(-e.cfg.Consent.ResolvedRetention))

	if len(removed) > 0 || pruned > 0 {
		e.log.Info().
			Int("count", len(removed)).
			Int("pruned_resolved", pruned).
			Msg("expired pending consent swept")
	}
	return removed, nil
}

// sweepOne applies the default remove decision to one item, unless an
// explicit resolution won the race since the expiry snapshot was taken.
func (e *Engine) sweepOne(ctx context.Context, userID, memoryID string) (bool, error) {
	mu := e.itemLock(userID, memoryID)
	mu.Lock()
	defer mu.Unlock()

	rec, ok := e.pending.get(userID, memoryID)
	if !ok || rec.State != types.ConsentPending {
		return false, nil
	}
	if _, err := e.resolveLocked(ctx, userID, memoryID, consent.DefaultRemove()); err != nil {
		return false, err
	}
	return true, nil
}
