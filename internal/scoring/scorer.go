// Package scoring provides the memory scoring capability: rating raw
// content on continuous and categorical axes that drive storage tier
// classification. The model itself is external; this package supplies the
// adapter shims and a deterministic fallback.
package scoring

import (
	"context"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// Scorer rates raw content. Implementations may call a remote model, a
// local model, or apply fixed rules; failures are recovered by the caller
// with types.ConservativeScore, never surfaced as hard errors.
type Scorer interface {
	Score(ctx context.Context, content string) (types.MemoryScore, error)
}

// StaticScorer returns a fixed score for every input. It backs the "rules"
// provider (no LLM configured) and deterministic tests.
type StaticScorer struct {
	Result types.MemoryScore
}

// NewStaticScorer returns a scorer that always yields the conservative
// default, keeping everything in the short-term tier.
func NewStaticScorer() *StaticScorer {
	return &StaticScorer{Result: types.ConservativeScore()}
}

// Score returns the configured fixed score.
func (s *StaticScorer) Score(_ context.Context, _ string) (types.MemoryScore, error) {
	return s.Result, nil
}
