// Package pii provides the PII detection capability: finding sensitive
// spans in raw content and rating each by risk. A rule-based detector
// works offline and deterministically; an LLM-backed detector covers
// entity classes the rules cannot see. The entity-recognition model
// itself is external.
package pii

import (
	"context"
	"sort"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// Detector finds sensitive spans in content. Implementations return the
// detected items only; Evaluate derives the consent verdict against the
// configured risk threshold.
type Detector interface {
	Detect(ctx context.Context, content string) ([]types.DetectedItem, error)
}

// Evaluate builds a PIIDetectionResult from detected items. NeedsConsent
// is true iff any item is at or above the threshold. Items are sorted by
// span start for stable downstream processing.
func Evaluate(items []types.DetectedItem, threshold types.RiskLevel) types.PIIDetectionResult {
	sort.Slice(items, func(i, j int) bool {
		return items[i].Span.Start < items[j].Span.Start
	})

	result := types.PIIDetectionResult{
		HasPII:        len(items) > 0,
		DetectedItems: items,
	}
	for _, it := range items {
		if it.RiskLevel.AtLeast(threshold) {
			result.NeedsConsent = true
			break
		}
	}
	return result
}

// NoopDetector never detects anything. Used when detection is disabled and
// as the zero-risk test double.
type NoopDetector struct{}

// Detect returns no items.
func (NoopDetector) Detect(_ context.Context, _ string) ([]types.DetectedItem, error) {
	return nil, nil
}
