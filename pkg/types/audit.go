package types

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// AuditEventType identifies which checkpoint emitted an event.
type AuditEventType string

const (
	AuditMemoryCreated  AuditEventType = "memory_created"
	AuditMemoryAccessed AuditEventType = "memory_accessed"
	AuditMemoryDeleted  AuditEventType = "memory_deleted"
	AuditMemoryCleared  AuditEventType = "memory_cleared"
	AuditConsentGranted AuditEventType = "consent_granted"
	AuditConsentRevoked AuditEventType = "consent_revoked"
	AuditPIIDetected    AuditEventType = "pii_detected"
	AuditAuthFailed     AuditEventType = "auth_failed"
)

// AuditLevel is the severity of an audit event.
type AuditLevel string

const (
	AuditInfo    AuditLevel = "info"
	AuditWarning AuditLevel = "warning"
	AuditError   AuditLevel = "error"
)

// MemoryRef is a compact reference to the item an audit event concerns,
// carrying just enough to reconstruct the privacy-relevant history without
// duplicating content into the audit trail.
type MemoryRef struct {
	ID             string   `json:"id"`
	Type           string   `json:"type,omitempty"`
	HasPII         bool     `json:"has_pii"`
	SensitiveTypes []string `json:"sensitive_types,omitempty"`
}

// AuditEvent is one immutable entry in the append-only audit trail.
// Events are never mutated or deleted after emission. IDs are ULIDs so the
// trail sorts lexically by creation time.
type AuditEvent struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	EventType AuditEventType         `json:"event_type"`
	UserID    string                 `json:"user_id"`
	Level     AuditLevel             `json:"level"`
	Details   map[string]interface{} `json:"details,omitempty"`
	MemoryRef *MemoryRef             `json:"memory_ref,omitempty"`
}

// NewAuditEvent builds an event with a fresh ULID and current timestamp.
func NewAuditEvent(eventType AuditEventType, userID string, level AuditLevel) AuditEvent {
	now := time.Now().UTC()
	return AuditEvent{
		ID:        ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Timestamp: now,
		EventType: eventType,
		UserID:    userID,
		Level:     level,
	}
}
