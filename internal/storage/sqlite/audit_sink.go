package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// AuditSink persists audit events to an append-only SQLite table. Events are
// never updated or deleted through this type.
type AuditSink struct {
	db    *sql.DB
	owned bool
}

// NewAuditSink opens a dedicated database for audit events.
func NewAuditSink(dsn string) (*AuditSink, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	return &AuditSink{db: db, owned: true}, nil
}

// WrapAuditDB builds an audit sink over an already-open handle, so the audit
// trail can share a database file with the short-term tier.
func WrapAuditDB(db *sql.DB) *AuditSink {
	return &AuditSink{db: db}
}

// Write appends one event.
func (s *AuditSink) Write(ctx context.Context, ev *types.AuditEvent) error {
	if ev == nil {
		return fmt.Errorf("audit event is nil")
	}

	var detailsJSON, refJSON []byte
	var err error
	if ev.Details != nil {
		detailsJSON, err = json.Marshal(ev.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
	}
	if ev.MemoryRef != nil {
		refJSON, err = json.Marshal(ev.MemoryRef)
		if err != nil {
			return fmt.Errorf("failed to marshal memory ref: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, occurred_at, event_type, user_id, level, details, memory_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.Timestamp, string(ev.EventType), ev.UserID, string(ev.Level),
		nullableString(detailsJSON), nullableString(refJSON))
	if err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// ListByUser returns a user's audit events, most recent first. Intended for
// inspection tooling and tests.
func (s *AuditSink) ListByUser(ctx context.Context, userID string, limit int) ([]*types.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, occurred_at, event_type, user_id, level, details, memory_ref
		FROM audit_events
		WHERE user_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*types.AuditEvent
	for rows.Next() {
		var (
			ev                    types.AuditEvent
			eventType, level      string
			detailsJSON, refJSON  sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &eventType, &ev.UserID,
			&level, &detailsJSON, &refJSON); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		ev.EventType = types.AuditEventType(eventType)
		ev.Level = types.AuditLevel(level)
		if detailsJSON.Valid && detailsJSON.String != "" {
			if err := json.Unmarshal([]byte(detailsJSON.String), &ev.Details); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit details: %w", err)
			}
		}
		if refJSON.Valid && refJSON.String != "" {
			ev.MemoryRef = &types.MemoryRef{}
			if err := json.Unmarshal([]byte(refJSON.String), ev.MemoryRef); err != nil {
				return nil, fmt.Errorf("failed to unmarshal memory ref: %w", err)
			}
		}
		events = append(events, &ev)
	}
	return events, rows.Err()
}

// Close closes the handle when this sink owns it.
func (s *AuditSink) Close() error {
	if !s.owned {
		return nil
	}
	return s.db.Close()
}
