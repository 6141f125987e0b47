// Package audit provides the append-only audit trail. Events are emitted
// asynchronously so a slow or failing sink can never block the memory
// pipeline; under sustained backpressure events are dropped and counted
// rather than queued without bound.
package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// Sink receives audit events. Implementations must be safe for concurrent
// use by the logger's writer goroutine and direct callers.
type Sink interface {
	Write(ctx context.Context, ev *types.AuditEvent) error
}

// writeTimeout bounds a single sink write so one stuck write cannot stall
// the drain goroutine forever.
const writeTimeout = 5 * time.Second

// Logger fans events out to a sink from a background goroutine.
type Logger struct {
	sink    Sink
	log     zerolog.Logger
	ch      chan *types.AuditEvent
	dropped atomic.Uint64
	wg      sync.WaitGroup
	closed  atomic.Bool
}

// NewLogger starts the writer goroutine. bufferSize <= 0 defaults to 256.
func NewLogger(sink Sink, log zerolog.Logger, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	l := &Logger{
		sink: sink,
		log:  log.With().Str("component", "audit").Logger(),
		ch:   make(chan *types.AuditEvent, bufferSize),
	}
	l.wg.Add(1)
	go l.drain()
	return l
}

// Emit queues an event without blocking. If the buffer is full or the logger
// is closed the event is dropped and counted; audit failures never propagate
// into pipeline results.
func (l *Logger) Emit(ev types.AuditEvent) {
	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}
	select {
	case l.ch <- &ev:
	default:
		l.dropped.Add(1)
		l.log.Warn().
			Str("event_type", string(ev.EventType)).
			Uint64("dropped_total", l.dropped.Load()).
			Msg("audit buffer full, dropping event")
	}
}

// Dropped reports how many events have been discarded since start.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close stops accepting events, flushes the buffer, and returns once the
// writer goroutine has exited.
func (l *Logger) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(l.ch)
	l.wg.Wait()
	return nil
}

func (l *Logger) drain() {
	defer l.wg.Done()
	for ev := range l.ch {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := l.sink.Write(ctx, ev); err != nil {
			l.log.Error().Err(err).
				Str("event_id", ev.ID).
				Str("event_type", string(ev.EventType)).
				Msg("failed to persist audit event")
		}
		cancel()
	}
}
