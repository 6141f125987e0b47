package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	cb := NewCircuitBreaker()

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected ok, got %v", result)
	}
	if cb.State() != "closed" {
		t.Errorf("expected closed state, got %s", cb.State())
	}
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreakerWithConfig(CircuitBreakerConfig{
		MaxFailures:          2,
		Timeout:              time.Minute,
		HalfOpenMaxSuccesses: 1,
	})

	boom := errors.New("provider down")
	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, boom
		}); !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected provider error, got %v", i, err)
		}
	}

	if cb.State() != "open" {
		t.Fatalf("expected open state after failures, got %s", cb.State())
	}

	called := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		called = true
		return "ok", nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("function should not be invoked while circuit is open")
	}
}

func TestCircuitBreakerCancelledContext(t *testing.T) {
	cb := NewCircuitBreaker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cb.Execute(ctx, func() (interface{}, error) {
		t.Error("function should not run with cancelled context")
		return nil, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCircuitBreakerMetrics(t *testing.T) {
	cb := NewCircuitBreaker()

	cb.Execute(context.Background(), func() (interface{}, error) { return nil, nil })
	cb.Execute(context.Background(), func() (interface{}, error) { return nil, errors.New("x") })

	m := cb.Metrics()
	if m.TotalRequests != 2 || m.TotalSuccesses != 1 || m.TotalFailures != 1 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}

func TestWithRateLimitDisabled(t *testing.T) {
	inner := &staticGenerator{text: "x"}
	if got := WithRateLimit(inner, 0); got != TextGenerator(inner) {
		t.Error("zero rate should return the generator unchanged")
	}
}

func TestWithRateLimitPreservesModel(t *testing.T) {
	inner := &staticGenerator{text: "x", model: "test-model"}
	wrapped := WithRateLimit(inner, 100)

	if wrapped.Model() != "test-model" {
		t.Errorf("expected model pass-through, got %s", wrapped.Model())
	}
	out, err := wrapped.Complete(context.Background(), "prompt")
	if err != nil || out != "x" {
		t.Errorf("expected x, got %q err=%v", out, err)
	}
}

// staticGenerator is a test double returning fixed text.
type staticGenerator struct {
	text  string
	model string
}

func (s *staticGenerator) Complete(context.Context, string) (string, error) { return s.text, nil }
func (s *staticGenerator) Model() string                                    { return s.model }
