package pii

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/keepsake-ai/keepsake/internal/llm"
	"github.com/keepsake-ai/keepsake/internal/scoring"
	"github.com/keepsake-ai/keepsake/pkg/types"
)

const detectPrompt = `Find personally identifiable or sensitive information in the text below.

Respond with ONLY a JSON object, no explanations:
{
  "items": [
    {"text": "<exact substring from the text>", "type": "<PERSON|EMAIL|PHONE|SSN|CREDIT_CARD|MEDICATION|HEALTH|LOCATION|ADDRESS|OTHER>", "confidence": <0.0-1.0>, "risk_level": "low" | "medium" | "high"}
  ]
}

Use an empty items array when nothing sensitive is present. The "text" field
must be copied verbatim so it can be located in the original.

Text:
%s`

type detectResponse struct {
	Items []struct {
		Text       string  `json:"text"`
		Type       string  `json:"type"`
		Confidence float64 `json:"confidence"`
		RiskLevel  string  `json:"risk_level"`
	} `json:"items"`
}

// LLMDetector finds sensitive spans with an LLM and maps the model's
// verbatim quotes back to byte offsets in the original content. Quotes
// that cannot be located are dropped rather than guessed.
type LLMDetector struct {
	generator llm.TextGenerator
}

// NewLLMDetector creates a detector backed by the given text generator.
func NewLLMDetector(generator llm.TextGenerator) (*LLMDetector, error) {
	if generator == nil {
		return nil, fmt.Errorf("pii: text generator is required")
	}
	return &LLMDetector{generator: generator}, nil
}

// Detect prompts the model and converts its quotes into offset spans.
func (d *LLMDetector) Detect(ctx context.Context, content string) ([]types.DetectedItem, error) {
	raw, err := d.generator.Complete(ctx, fmt.Sprintf(detectPrompt, content))
	if err != nil {
		return nil, fmt.Errorf("pii: completion failed: %w", err)
	}

	var resp detectResponse
	if err := json.Unmarshal([]byte(scoring.ExtractJSON(raw)), &resp); err != nil {
		return nil, fmt.Errorf("pii: failed to parse detection response: %w", err)
	}

	var items []types.DetectedItem
	cursor := 0
	for _, it := range resp.Items {
		if it.Text == "" {
			continue
		}
		risk := types.RiskLevel(it.RiskLevel)
		if !types.IsValidRiskLevel(risk) {
			// Unknown risk from the model is treated as high, not dropped:
			// failing closed keeps unreviewed PII out of the long-term tier.
			risk = types.RiskHigh
		}

		// Search from the running cursor first so repeated quotes map to
		// successive occurrences, then fall back to a full scan.
		start := strings.Index(content[cursor:], it.Text)
		if start >= 0 {
			start += cursor
		} else {
			start = strings.Index(content, it.Text)
		}
		if start < 0 {
			continue
		}
		end := start + len(it.Text)
		cursor = end

		entityType := strings.ToUpper(strings.TrimSpace(it.Type))
		if entityType == "" {
			entityType = "OTHER"
		}

		items = append(items, types.DetectedItem{
			ID:         fmt.Sprintf("%s-%d", strings.ToLower(entityType), start),
			Text:       it.Text,
			Type:       entityType,
			Span:       types.Span{Start: start, End: end},
			Confidence: types.Clamp01(it.Confidence),
			RiskLevel:  risk,
		})
	}

	return dropOverlaps(items), nil
}
