// Package types defines the core data model for the Keepsake memory
// lifecycle and privacy-consent engine: memory items, scores, storage
// categories, PII detection results, consent decisions, and audit events.
package types

import (
	"time"

	"github.com/google/uuid"
)

// Well-known metadata keys. Values stored under these keys are normalized
// to their documented Go types at the store boundary (see Metadata.Bool).
const (
	MetaHasPII           = "hasPii"           // bool
	MetaSensitiveTypes   = "sensitiveTypes"   // []string
	MetaPrivacyChoice    = "privacyChoice"    // string (a ConsentChoice)
	MetaScorerDegraded   = "scorerDegraded"   // bool
	MetaPIIRemoved       = "piiRemoved"       // bool
	MetaUserApprovedPII  = "userApprovedPii"  // bool
	MetaPendingConsent   = "pendingConsent"   // bool
	MetaLongTermDegraded = "longTermDegraded" // bool
)

// Metadata is a free-form key→value map attached to a memory item.
// It is extensible, but the well-known keys above carry defined types.
type Metadata map[string]interface{}

// Bool reads a boolean metadata value. Legacy serializations stored
// booleans as strings ("true", "True", "1"); those are normalized here
// rather than leaking up to callers.
func (m Metadata) Bool(key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch t {
		case "true", "True", "TRUE", "1", "yes":
			return true
		}
	}
	return false
}

// StringSlice reads a string-slice metadata value, tolerating the
// []interface{} form produced by JSON round-trips.
func (m Metadata) StringSlice(key string) []string {
	switch t := m[key].(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Clone returns a shallow copy of the metadata map. String slices under
// well-known keys are copied so callers cannot alias stored state.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		if ss, ok := v.([]string); ok {
			cp := make([]string, len(ss))
			copy(cp, ss)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// MemoryItem is the atomic unit of storage. An item may exist in neither,
// one, or both storage tiers at once; its ID is unique across the union of
// both tiers for a given user. Content is mutable only through consent
// resolution (anonymization rewrites it in place); ID and Timestamp are
// immutable for the life of the item.
type MemoryItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMemoryItem creates a memory item with a fresh unique ID and creation
// timestamp. A nil metadata map is allocated so callers can set keys
// without a nil check.
func NewMemoryItem(userID, content, itemType string, metadata Metadata) *MemoryItem {
	now := time.Now().UTC()
	if metadata == nil {
		metadata = Metadata{}
	}
	return &MemoryItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Type:      itemType,
		Metadata:  metadata,
		Timestamp: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep-enough copy of the item for handing across a
// storage boundary: callers mutating the copy never affect stored state.
func (m *MemoryItem) Clone() *MemoryItem {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Metadata = m.Metadata.Clone()
	return &cp
}
