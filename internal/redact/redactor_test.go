package redact

import (
	"testing"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

func item(id, text, entityType string, start int) types.DetectedItem {
	return types.DetectedItem{
		ID:   id,
		Text: text,
		Type: entityType,
		Span: types.Span{Start: start, End: start + len(text)},
	}
}

func TestApplyAnonymizesSpans(t *testing.T) {
	content := "My name is Sarah Johnson and I take Zoloft"
	items := []types.DetectedItem{
		item("person-11", "Sarah Johnson", "PERSON", 11),
		item("medication-36", "Zoloft", "MEDICATION", 36),
	}
	actions := map[string]types.ConsentAction{
		"person-11":     types.ActionAnonymize,
		"medication-36": types.ActionAnonymize,
	}

	got := Apply(content, items, actions)
	want := "My name is <PERSON> and I take <MEDICATION>"
	if got != want {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestApplyRemoveCollapsesWhitespace(t *testing.T) {
	content := "contact me at jane@example.com please"
	items := []types.DetectedItem{item("email-14", "jane@example.com", "EMAIL", 14)}
	actions := map[string]types.ConsentAction{"email-14": types.ActionRemove}

	got := Apply(content, items, actions)
	want := "contact me at please"
	if got != want {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestApplyRemoveAtEndTrims(t *testing.T) {
	content := "my ssn is 123-45-6789"
	items := []types.DetectedItem{item("ssn-10", "123-45-6789", "SSN", 10)}
	actions := map[string]types.ConsentAction{"ssn-10": types.ActionRemove}

	if got := Apply(content, items, actions); got != "my ssn is" {
		t.Errorf("Apply = %q, want %q", got, "my ssn is")
	}
}

func TestApplyKeepLeavesContentUntouched(t *testing.T) {
	content := "My name is Sarah Johnson"
	items := []types.DetectedItem{item("person-11", "Sarah Johnson", "PERSON", 11)}
	actions := map[string]types.ConsentAction{"person-11": types.ActionKeep}

	if got := Apply(content, items, actions); got != content {
		t.Errorf("Apply = %q, want unchanged content", got)
	}
}

func TestApplyKeepPreservesWhitespace(t *testing.T) {
	content := "  My name is Sarah Johnson  "
	items := []types.DetectedItem{item("person-13", "Sarah Johnson", "PERSON", 13)}
	actions := map[string]types.ConsentAction{"person-13": types.ActionKeep}

	if got := Apply(content, items, actions); got != content {
		t.Errorf("keep must not alter content, got %q", got)
	}
}

func TestApplyMixedActions(t *testing.T) {
	content := "My name is Sarah Johnson and I take Zoloft"
	items := []types.DetectedItem{
		item("person-11", "Sarah Johnson", "PERSON", 11),
		item("medication-36", "Zoloft", "MEDICATION", 36),
	}
	actions := map[string]types.ConsentAction{
		"person-11":     types.ActionKeep,
		"medication-36": types.ActionAnonymize,
	}

	got := Apply(content, items, actions)
	want := "My name is Sarah Johnson and I take <MEDICATION>"
	if got != want {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	content := "My name is Sarah Johnson and I take Zoloft"
	items := []types.DetectedItem{
		item("person-11", "Sarah Johnson", "PERSON", 11),
		item("medication-36", "Zoloft", "MEDICATION", 36),
	}
	actions := map[string]types.ConsentAction{
		"person-11":     types.ActionAnonymize,
		"medication-36": types.ActionRemove,
	}

	once := Apply(content, items, actions)
	twice := Apply(once, items, actions)
	if once != twice {
		t.Errorf("redaction not idempotent: %q then %q", once, twice)
	}
}

func TestApplySkipsStaleSpans(t *testing.T) {
	// Offsets no longer match the text: content was edited elsewhere.
	content := "short"
	items := []types.DetectedItem{item("person-40", "Sarah Johnson", "PERSON", 40)}
	actions := map[string]types.ConsentAction{"person-40": types.ActionAnonymize}

	if got := Apply(content, items, actions); got != content {
		t.Errorf("stale span should be skipped, got %q", got)
	}
}

func TestApplyOverlappingSpansReverseOrder(t *testing.T) {
	content := "call 555-867-5309 now"
	items := []types.DetectedItem{
		item("phone-5", "555-867-5309", "PHONE", 5),
		item("other-9", "867-5309", "OTHER", 9),
	}
	actions := map[string]types.ConsentAction{
		"phone-5": types.ActionAnonymize,
		"other-9": types.ActionAnonymize,
	}

	// The inner span is edited first (reverse start order); the outer span
	// then no longer matches and is skipped rather than corrupting offsets.
	got := Apply(content, items, actions)
	want := "call 555-<OTHER> now"
	if got != want {
		t.Errorf("Apply = %q, want %q", got, want)
	}
}

func TestApplyNoActionsIsNoop(t *testing.T) {
	content := "anything at all"
	if got := Apply(content, nil, nil); got != content {
		t.Errorf("Apply with no work should return input, got %q", got)
	}
}
