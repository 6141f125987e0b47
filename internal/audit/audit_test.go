package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

type captureSink struct {
	mu     sync.Mutex
	events []*types.AuditEvent
	block  chan struct{}
	err    error
}

func (s *captureSink) Write(_ context.Context, ev *types.AuditEvent) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestLoggerDeliversEvents(t *testing.T) {
	sink := &captureSink{}
	logger := NewLogger(sink, zerolog.Nop(), 8)

	for i := 0; i < 3; i++ {
		logger.Emit(types.NewAuditEvent(types.AuditMemoryCreated, "u1", types.AuditInfo))
	}
	require.NoError(t, logger.Close())

	assert.Equal(t, 3, sink.count())
	assert.Zero(t, logger.Dropped())
}

func TestLoggerEmitNeverBlocks(t *testing.T) {
	sink := &captureSink{block: make(chan struct{})}
	logger := NewLogger(sink, zerolog.Nop(), 1)

	done := make(chan struct{})
	go func() {
		// Far more events than the buffer holds, against a stuck sink.
		for i := 0; i < 50; i++ {
			logger.Emit(types.NewAuditEvent(types.AuditPIIDetected, "u1", types.AuditWarning))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}

	assert.Greater(t, logger.Dropped(), uint64(0))
	close(sink.block)
	require.NoError(t, logger.Close())
}

func TestLoggerSinkErrorsDoNotPropagate(t *testing.T) {
	sink := &captureSink{err: errors.New("disk full")}
	logger := NewLogger(sink, zerolog.Nop(), 8)

	logger.Emit(types.NewAuditEvent(types.AuditMemoryDeleted, "u1", types.AuditInfo))
	require.NoError(t, logger.Close())
}

func TestLoggerEmitAfterCloseCountsDrop(t *testing.T) {
	sink := &captureSink{}
	logger := NewLogger(sink, zerolog.Nop(), 8)
	require.NoError(t, logger.Close())

	logger.Emit(types.NewAuditEvent(types.AuditMemoryCreated, "u1", types.AuditInfo))
	assert.Equal(t, uint64(1), logger.Dropped())
}

func TestLogSinkNeverFails(t *testing.T) {
	sink := NewLogSink(zerolog.Nop())
	ev := types.NewAuditEvent(types.AuditConsentGranted, "u1", types.AuditInfo)
	ev.MemoryRef = &types.MemoryRef{ID: "m1", HasPII: true, SensitiveTypes: []string{"EMAIL"}}
	ev.Details = map[string]interface{}{"choice": "keep_original"}
	assert.NoError(t, sink.Write(context.Background(), &ev))
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{err: errors.New("down")}
	c := &captureSink{}
	multi := MultiSink{a, b, c}

	ev := types.NewAuditEvent(types.AuditMemoryCleared, "u1", types.AuditInfo)
	err := multi.Write(context.Background(), &ev)
	assert.Error(t, err)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, c.count(), "later sinks still receive the event")
}
