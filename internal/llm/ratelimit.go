package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// rateLimitedGenerator throttles Complete calls against a provider quota.
// Wait blocks until a token is available or the context is cancelled.
type rateLimitedGenerator struct {
	inner   TextGenerator
	limiter *rate.Limiter
}

// WithRateLimit wraps a TextGenerator with a token-bucket limiter of
// requestsPerSecond. A non-positive rate returns the generator unchanged.
func WithRateLimit(inner TextGenerator, requestsPerSecond float64) TextGenerator {
	if requestsPerSecond <= 0 {
		return inner
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedGenerator{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (g *rateLimitedGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.inner.Complete(ctx, prompt)
}

func (g *rateLimitedGenerator) Model() string {
	return g.inner.Model()
}
