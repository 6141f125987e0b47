package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// LogSink writes audit events as structured log lines. Useful on its own for
// development, and as the fallback when no database sink is configured.
type LogSink struct {
	log zerolog.Logger
}

// NewLogSink builds a sink that emits one log line per event.
func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "audit_trail").Logger()}
}

// Write logs the event. It never fails.
func (s *LogSink) Write(_ context.Context, ev *types.AuditEvent) error {
	entry := s.log.Info()
	switch ev.Level {
	case types.AuditWarning:
		entry = s.log.Warn()
	case types.AuditError:
		entry = s.log.Error()
	}
	entry = entry.
		Str("audit_id", ev.ID).
		Str("event_type", string(ev.EventType)).
		Str("user_id", ev.UserID).
		Time("occurred_at", ev.Timestamp)
	if ev.MemoryRef != nil {
		entry = entry.
			Str("memory_id", ev.MemoryRef.ID).
			Bool("has_pii", ev.MemoryRef.HasPII)
		if len(ev.MemoryRef.SensitiveTypes) > 0 {
			entry = entry.Strs("sensitive_types", ev.MemoryRef.SensitiveTypes)
		}
	}
	if len(ev.Details) > 0 {
		entry = entry.Interface("details", ev.Details)
	}
	entry.Msg("audit event")
	return nil
}

// MultiSink fans one event out to several sinks; the first error wins but
// all sinks still receive the event.
type MultiSink []Sink

func (m MultiSink) Write(ctx context.Context, ev *types.AuditEvent) error {
	var firstErr error
	for _, s := range m {
		if err := s.Write(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
