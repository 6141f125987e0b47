package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/keepsake-ai/keepsake/internal/pii"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

// IngestRequest carries one piece of content into the pipeline. Metadata is
// merged into the stored item under the caller's keys; ConsentHint, when
// set, resolves a consent requirement in the same call instead of leaving
// the item pending.
type IngestRequest struct {
	UserID   string
	Content  string
	Type     string
	Metadata types.Metadata

	ConsentHint *types.ConsentDecision
}

// IngestResult reports where a memory landed and what the pipeline decided
// along the way.
type IngestResult struct {
	Item      *types.MemoryItem
	Score     types.MemoryScore
	Category  types.StorageCategory
	Detection types.PIIDetectionResult
	State     types.ConsentState

	// Deleted is true only when a consent hint of remove_entirely removed
	// the item in the same call; Item is nil in that case.
	Deleted bool

	// LongTermDegraded is true when the item belongs in the long-term tier
	// but the write kept failing after retries. The short-term copy is
	// intact and carries the longTermDegraded metadata flag.
	LongTermDegraded bool
}

// Ingest runs the full pipeline for one piece of content. Scoring and PII
// detection run concurrently; both degrade independently. A scorer failure
// falls back to the conservative score, a detector failure to a clean
// detection result, and a long-term outage leaves the short-term copy in
// place with a degradation flag; in every case an error-level audit event
// records the degradation. Only a short-term storage failure or an invalid
// consent hint fails the ingest.
func (e *Engine) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("engine: user ID is required")
	}
	if req.Content == "" {
		return nil, fmt.Errorf("engine: content is required")
	}
	if req.Type == "" {
		req.Type = "user_message"
	}
	userID, content := req.UserID, req.Content

	score, detection, scorerDegraded := e.evaluate(ctx, userID, content)
	category := e.rules.Classify(score)

	item := types.NewMemoryItem(userID, content, req.Type, req.Metadata.Clone())
	item.Metadata[types.MetaHasPII] = detection.HasPII
	if scorerDegraded {
		item.Metadata[types.MetaScorerDegraded] = true
	}
	if detection.HasPII {
		item.Metadata[types.MetaSensitiveTypes] = detection.SensitiveTypes()
	}

	state := types.ConsentDetected
	if detection.NeedsConsent {
		state = types.ConsentPending
		item.Metadata[types.MetaPendingConsent] = true
	} else {
		// Low-risk or clean content resolves implicitly with everything kept.
		state = types.ConsentResolved
	}

	if err := e.router.Commit(ctx, item); err != nil {
		return nil, err
	}

	// A persistent item with settled consent gets its long-term placement
	// right away; pending items wait for the consent resolution. Transient
	// long-term failures are retried with backoff and degrade on
	// exhaustion, so ingestion only hard-fails on the short-term write.
	longTermDegraded := false
	if category.Persistent() && state != types.ConsentPending {
		longTermDegraded = e.placeLongTerm(ctx, item, detection.HasPII, types.AuditMemoryCreated)
	}

	rec := &consentRecord{
		MemoryID:        item.ID,
		UserID:          userID,
		OriginalContent: content,
		Detection:       detection,
		Category:        category,
		State:           state,
		CreatedAt:       time.Now().UTC(),
	}
	if state == types.ConsentResolved {
		rec.ResolvedAt = rec.CreatedAt
	}
	e.pending.put(rec)

	e.auditIngest(item, detection, category, state)

	e.log.Debug().
		Str("memory_id", item.ID).
		Str("category", string(category)).
		Str("consent_state", string(state)).
		Bool("has_pii", detection.HasPII).
		Msg("memory ingested")

	result := &IngestResult{
		Item:             item,
		Score:            score,
		Category:         category,
		Detection:        detection,
		State:            state,
		LongTermDegraded: longTermDegraded,
	}

	// A consent hint settles the decision in the same call, through the
	// same resolution path an explicit ResolveConsent would take. An
	// invalid hint is the caller's own input and rejects the ingest; the
	// item stays pending exactly as if no hint had been given.
	if state == types.ConsentPending && req.ConsentHint != nil {
		res, err := e.ResolveConsent(ctx, userID, item.ID, *req.ConsentHint)
		if err != nil {
			return nil, err
		}
		result.State = types.ConsentResolved
		result.Deleted = res.Deleted
		result.Item = res.Item
		result.LongTermDegraded = res.LongTermDegraded
	}

	return result, nil
}

// evaluate runs the scorer and detector concurrently and joins the results,
// applying the degradation policy for either side.
func (e *Engine) evaluate(ctx context.Context, userID, content string) (types.MemoryScore, types.PIIDetectionResult, bool) {
	type scoreOut struct {
		score types.MemoryScore
		err   error
	}
	type detectOut struct {
		items []types.DetectedItem
		err   error
	}

	scoreCh := make(chan scoreOut, 1)
	detectCh := make(chan detectOut, 1)

	go func() {
		s, err := e.scorer.Score(ctx, content)
		scoreCh <- scoreOut{score: s, err: err}
	}()
	go func() {
		items, err := e.detector.Detect(ctx, content)
		detectCh <- detectOut{items: items, err: err}
	}()

	so := <-scoreCh
	do := <-detectCh

	score := so.score
	scorerDegraded := false
	if so.err != nil {
		score = types.ConservativeScore()
		scorerDegraded = true
		e.log.Warn().Err(so.err).Msg("scorer failed, using conservative score")
		ev := types.NewAuditEvent(types.AuditMemoryCreated, userID, types.AuditError)
		ev.Details = map[string]interface{}{"degraded": "scorer", "error": so.err.Error()}
		e.audit.Emit(ev)
	}

	var detection types.PIIDetectionResult
	if do.err != nil {
		e.log.Warn().Err(do.err).Msg("pii detection failed, treating content as clean")
		ev := types.NewAuditEvent(types.AuditPIIDetected, userID, types.AuditError)
		ev.Details = map[string]interface{}{"degraded": "detector", "error": do.err.Error()}
		e.audit.Emit(ev)
	} else {
		detection = pii.Evaluate(do.items, e.cfg.RiskThreshold())
	}

	return score, detection, scorerDegraded
}

func (e *Engine) auditIngest(item *types.MemoryItem, detection types.PIIDetectionResult, category types.StorageCategory, state types.ConsentState) {
	ref := &types.MemoryRef{
		ID:             item.ID,
		Type:           item.Type,
		HasPII:         detection.HasPII,
		SensitiveTypes: detection.SensitiveTypes(),
	}

	created := types.NewAuditEvent(types.AuditMemoryCreated, item.UserID, types.AuditInfo)
	created.MemoryRef = ref
	created.Details = map[string]interface{}{
		"category":      string(category),
		"consent_state": string(state),
	}
	e.audit.Emit(created)

	if detection.HasPII {
		level := types.AuditInfo
		if detection.NeedsConsent {
			level = types.AuditWarning
		}
		found := types.NewAuditEvent(types.AuditPIIDetected, item.UserID, level)
		found.MemoryRef = ref
		found.Details = map[string]interface{}{
			"needs_consent": detection.NeedsConsent,
			"item_count":    len(detection.DetectedItems),
		}
		e.audit.Emit(found)
	}
}
