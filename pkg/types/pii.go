package types

import "sort"

// RiskLevel rates how sensitive a detected span is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// riskRank orders risk levels for threshold comparisons. Unknown levels
// rank below low so malformed detector output never forces consent.
var riskRank = map[RiskLevel]int{
	RiskLow:    1,
	RiskMedium: 2,
	RiskHigh:   3,
}

// IsValidRiskLevel reports whether the value is a recognized risk level.
func IsValidRiskLevel(r RiskLevel) bool {
	_, ok := riskRank[r]
	return ok
}

// AtLeast reports whether r is at or above the given threshold.
func (r RiskLevel) AtLeast(threshold RiskLevel) bool {
	return riskRank[r] >= riskRank[threshold]
}

// Span marks a half-open [Start, End) byte range within the original content.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DetectedItem is one sensitive span found by the PII detector.
type DetectedItem struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Type       string    `json:"type"` // entity class, e.g. PERSON, MEDICATION
	Span       Span      `json:"span"`
	Confidence float64   `json:"confidence"`
	RiskLevel  RiskLevel `json:"risk_level"`
}

// PIIDetectionResult is the detector's verdict for one content string.
// NeedsConsent is true iff any detected item is at or above the configured
// consent risk threshold.
type PIIDetectionResult struct {
	HasPII        bool           `json:"has_pii"`
	NeedsConsent  bool           `json:"needs_consent"`
	DetectedItems []DetectedItem `json:"detected_items"`
}

// SensitiveTypes returns the distinct entity classes present in the result,
// sorted for stable metadata and audit output.
func (r PIIDetectionResult) SensitiveTypes() []string {
	seen := make(map[string]struct{}, len(r.DetectedItems))
	out := make([]string, 0, len(r.DetectedItems))
	for _, it := range r.DetectedItems {
		if _, ok := seen[it.Type]; ok {
			continue
		}
		seen[it.Type] = struct{}{}
		out = append(out, it.Type)
	}
	sort.Strings(out)
	return out
}
