package scoring

import (
	"context"
	"fmt"

	"github.com/keepsake-ai/keepsake/internal/llm"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

const scorePrompt = `You rate a memory from a conversation for long-term significance.

Analyze the text and respond with ONLY a JSON object, no explanations:
{
  "relevance": <0.0-1.0, how relevant to the user's life>,
  "stability": <0.0-1.0, how stable this fact is over time>,
  "explicitness": <0.0-1.0, how explicitly stated vs inferred>,
  "memory_nature": "passing_moment" | "core_identity" | "transformative_experience",
  "story_significance": "daily_rhythm" | "formative" | "life_changing",
  "emotional_resonance": "surface" | "deep" | "profound",
  "keep_or_release": "naturally_fade" | "anchor" | "treasure"
}

Text:
%s`

// LLMScorer rates content with an LLM completion. Malformed responses are
// returned as errors; the orchestrator substitutes the conservative default.
type LLMScorer struct {
	generator llm.TextGenerator
}

// NewLLMScorer creates a scorer backed by the given text generator.
func NewLLMScorer(generator llm.TextGenerator) (*LLMScorer, error) {
	if generator == nil {
		return nil, fmt.Errorf("scoring: text generator is required")
	}
	return &LLMScorer{generator: generator}, nil
}

// Score prompts the model and parses its JSON verdict into a MemoryScore.
func (s *LLMScorer) Score(ctx context.Context, content string) (types.MemoryScore, error) {
	raw, err := s.generator.Complete(ctx, fmt.Sprintf(scorePrompt, content))
	if err != nil {
		return types.MemoryScore{}, fmt.Errorf("scoring: completion failed: %w", err)
	}

	score, err := ParseScoreResponse(raw)
	if err != nil {
		return types.MemoryScore{}, fmt.Errorf("scoring: %w", err)
	}
	return score, nil
}
