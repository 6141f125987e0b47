// Package redact applies resolved consent actions to content: anonymizing
// spans with canonical placeholders or removing them outright. Redaction is
// a pure function and idempotent.
package redact

import (
	"sort"
	"strings"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

// Apply rewrites content according to the resolved actions.
//
// Spans are processed in reverse start order so earlier edits never
// invalidate later offsets, which also resolves overlapping spans. Each
// span is verified against the current content before editing: a span that
// no longer matches (already redacted, or stale offsets) is skipped, which
// makes a second application of the same actions a no-op.
func Apply(content string, items []types.DetectedItem, actions map[string]types.ConsentAction) string {
	if len(items) == 0 || len(actions) == 0 {
		return content
	}

	sorted := make([]types.DetectedItem, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Span.Start > sorted[j].Span.Start
	})

	removed := false
	for _, it := range sorted {
		action, ok := actions[it.ID]
		if !ok || action == types.ActionKeep {
			continue
		}
		start, end := it.Span.Start, it.Span.End
		if start < 0 || end > len(content) || start >= end {
			continue
		}
		if content[start:end] != it.Text {
			continue
		}

		switch action {
		case types.ActionAnonymize:
			content = content[:start] + Placeholder(it.Type) + content[end:]
		case types.ActionRemove:
			left, right := content[:start], content[end:]
			if strings.HasSuffix(left, " ") && strings.HasPrefix(right, " ") {
				right = strings.TrimLeft(right, " ")
			}
			content = left + right
			removed = true
		}
	}

	// Only removals can leave dangling whitespace; kept or anonymized
	// content keeps the caller's spacing exactly.
	if removed {
		content = strings.TrimSpace(content)
	}
	return content
}

// Placeholder returns the canonical anonymization placeholder for an
// entity class, e.g. "<PERSON>".
func Placeholder(entityType string) string {
	return "<" + strings.ToUpper(entityType) + ">"
}
