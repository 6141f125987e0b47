package scoring

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// scoreResponse is the wire form of the model's verdict.
type scoreResponse struct {
	Relevance          float64 `json:"relevance"`
	Stability          float64 `json:"stability"`
	Explicitness       float64 `json:"explicitness"`
	MemoryNature       string  `json:"memory_nature"`
	StorySignificance  string  `json:"story_significance"`
	EmotionalResonance string  `json:"emotional_resonance"`
	KeepOrRelease      string  `json:"keep_or_release"`
}

// ParseScoreResponse decodes a model response into a MemoryScore.
// Continuous axes are clamped into [0,1]. Unrecognized categorical values
// are not an error here: the classifier is total and treats them as
// non-persistent, so they pass through as-is.
func ParseScoreResponse(raw string) (types.MemoryScore, error) {
	var resp scoreResponse
	if err := json.Unmarshal([]byte(ExtractJSON(raw)), &resp); err != nil {
		return types.MemoryScore{}, fmt.Errorf("failed to parse score response: %w", err)
	}

	return types.MemoryScore{
		Relevance:          types.Clamp01(resp.Relevance),
		Stability:          types.Clamp01(resp.Stability),
		Explicitness:       types.Clamp01(resp.Explicitness),
		MemoryNature:       types.MemoryNature(resp.MemoryNature),
		StorySignificance:  types.StorySignificance(resp.StorySignificance),
		EmotionalResonance: types.EmotionalResonance(resp.EmotionalResonance),
		KeepOrRelease:      types.KeepOrRelease(resp.KeepOrRelease),
	}, nil
}

// ExtractJSON extracts the first complete JSON object from a string that
// may contain extra text. This handles models that add explanations or
// markdown fences around the JSON despite instructions.
func ExtractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text // no JSON found, let the parser fail with context
	}

	braceCount := 0
	inString := false
	escape := false

	for i := start; i < len(text); i++ {
		char := text[i]

		if escape {
			escape = false
			continue
		}
		if char == '\\' {
			escape = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			switch char {
			case '{':
				braceCount++
			case '}':
				braceCount--
				if braceCount == 0 {
					return text[start : i+1]
				}
			}
		}
	}

	return text[start:]
}
