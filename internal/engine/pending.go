package engine

import (
	"sort"
	"sync"
	"time"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// consentRecord tracks a memory item through the consent workflow. The
// original content and detection result are retained past resolution so a
// later re-resolution can recompute the redaction from scratch instead of
// compounding edits (last decision wins). Resolved records are pruned by
// the sweep once their retention window passes, so the ledger stays
// bounded.
type consentRecord struct {
	MemoryID        string
	UserID          string
	OriginalContent string
	Detection       types.PIIDetectionResult
	Category        types.StorageCategory
	State           types.ConsentState
	CreatedAt       time.Time
	ResolvedAt      time.Time
}

// pendingRegistry is the in-process consent ledger. Storage holds item
// content; this holds the workflow state the stores never see.
type pendingRegistry struct {
	mu      sync.RWMutex
	records map[string]*consentRecord // keyed by userID + "/" + memoryID
}

func newPendingRegistry() *pendingRegistry {
	return &pendingRegistry{records: make(map[string]*consentRecord)}
}

func registryKey(userID, memoryID string) string {
	return userID + "/" + memoryID
}

func (r *pendingRegistry) put(rec *consentRecord) {
	r.mu.Lock()
	r.records[registryKey(rec.UserID, rec.MemoryID)] = rec
	r.mu.Unlock()
}

func (r *pendingRegistry) get(userID, memoryID string) (*consentRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[registryKey(userID, memoryID)]
	return rec, ok
}

func (r *pendingRegistry) remove(userID, memoryID string) {
	r.mu.Lock()
	delete(r.records, registryKey(userID, memoryID))
	r.mu.Unlock()
}

// removeByUser drops every record for one user. Used by Clear.
func (r *pendingRegistry) removeByUser(userID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for key, rec := range r.records {
		if rec.UserID == userID {
			ids = append(ids, rec.MemoryID)
			delete(r.records, key)
		}
	}
	return ids
}

// pendingByUser lists records still awaiting a decision, oldest first.
func (r *pendingRegistry) pendingByUser(userID string) []*consentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*consentRecord
	for _, rec := range r.records {
		if rec.UserID == userID && rec.State == types.ConsentPending {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// expiredBefore lists pending records created before the cutoff.
func (r *pendingRegistry) expiredBefore(cutoff time.Time) []*consentRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*consentRecord
	for _, rec := range r.records {
		if rec.State == types.ConsentPending && rec.CreatedAt.Before(cutoff) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// pruneResolved drops resolved records whose resolution predates the
// cutoff. Their original content is only needed while a re-resolution is
// still plausible; an item pruned here resolves as a no-op afterwards.
func (r *pendingRegistry) pruneResolved(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	pruned := 0
	for key, rec := range r.records {
		if rec.State == types.ConsentResolved && !rec.ResolvedAt.IsZero() && rec.ResolvedAt.Before(cutoff) {
			delete(r.records, key)
			pruned++
		}
	}
	return pruned
}

func sortRecords(recs []*consentRecord) {
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
}
