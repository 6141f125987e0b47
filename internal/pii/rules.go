package pii

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// rulePattern binds a compiled regex to an entity class and risk level.
// Group selects which capture group carries the sensitive span (0 = whole
// match) so lead-in phrases like "my name is" stay out of the span.
type rulePattern struct {
	entityType string
	risk       types.RiskLevel
	confidence float64
	re         *regexp.Regexp
	group      int
}

var rulePatterns = []rulePattern{
	{
		entityType: "EMAIL",
		risk:       types.RiskMedium,
		confidence: 0.95,
		re:         regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`),
	},
	{
		entityType: "PHONE",
		risk:       types.RiskMedium,
		confidence: 0.85,
		re:         regexp.MustCompile(`(?:\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`),
	},
	{
		entityType: "SSN",
		risk:       types.RiskHigh,
		confidence: 0.95,
		re:         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		entityType: "CREDIT_CARD",
		risk:       types.RiskHigh,
		confidence: 0.9,
		re:         regexp.MustCompile(`\b(?:\d[ \-]?){13,16}\b`),
	},
	{
		entityType: "PERSON",
		risk:       types.RiskHigh,
		confidence: 0.8,
		re:         regexp.MustCompile(`(?:[Mm]y name is|[Ii] am|[Ii]'m|[Cc]all me)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`),
		group:      1,
	},
	{
		entityType: "ADDRESS",
		risk:       types.RiskMedium,
		confidence: 0.7,
		re:         regexp.MustCompile(`\b\d+\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr)\b`),
	},
}

// medicationLexicon lists medication names treated as high-risk health
// data. Matching is case-insensitive on word boundaries.
var medicationLexicon = []string{
	"zoloft", "prozac", "xanax", "lexapro", "adderall", "ritalin",
	"lithium", "seroquel", "wellbutrin", "ativan", "klonopin", "valium",
	"metformin", "insulin", "warfarin", "prednisone", "sertraline",
	"fluoxetine", "alprazolam", "escitalopram",
}

var medicationRe = regexp.MustCompile(`(?i)\b(` + strings.Join(medicationLexicon, "|") + `)\b`)

// RuleDetector finds sensitive spans with regular expressions and a
// medication lexicon. It is fully offline and deterministic, which makes
// it the default detector and the fallback when no LLM is configured.
type RuleDetector struct{}

// NewRuleDetector creates a rule-based detector.
func NewRuleDetector() *RuleDetector {
	return &RuleDetector{}
}

// Detect scans content against every rule pattern. Item IDs are derived
// from the entity class and span start so repeated detection of the same
// content yields the same IDs.
func (d *RuleDetector) Detect(_ context.Context, content string) ([]types.DetectedItem, error) {
	var items []types.DetectedItem

	for _, p := range rulePatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(content, -1) {
			start, end := m[2*p.group], m[2*p.group+1]
			if start < 0 || end <= start {
				continue
			}
			items = append(items, makeItem(content, p.entityType, start, end, p.confidence, p.risk))
		}
	}

	for _, m := range medicationRe.FindAllStringIndex(content, -1) {
		items = append(items, makeItem(content, "MEDICATION", m[0], m[1], 0.9, types.RiskHigh))
	}

	return dropOverlaps(items), nil
}

func makeItem(content, entityType string, start, end int, confidence float64, risk types.RiskLevel) types.DetectedItem {
	return types.DetectedItem{
		ID:         fmt.Sprintf("%s-%d", strings.ToLower(entityType), start),
		Text:       content[start:end],
		Type:       entityType,
		Span:       types.Span{Start: start, End: end},
		Confidence: confidence,
		RiskLevel:  risk,
	}
}

// dropOverlaps removes items whose span overlaps an earlier-starting item,
// keeping the longer span on ties. Two patterns matching the same digits
// (phone vs credit card) would otherwise double-redact.
func dropOverlaps(items []types.DetectedItem) []types.DetectedItem {
	if len(items) < 2 {
		return items
	}

	sorted := make([]types.DetectedItem, len(items))
	copy(sorted, items)
	// Longer span first on equal start so the more specific match survives.
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			si, sj := sorted[i].Span, sorted[j].Span
			if sj.Start < si.Start || (sj.Start == si.Start && sj.End > si.End) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	out := sorted[:1]
	for _, it := range sorted[1:] {
		if it.Span.Start < out[len(out)-1].Span.End {
			continue
		}
		out = append(out, it)
	}
	return out
}
