package consent

import (
	"errors"
	"testing"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

func twoItemResult() types.PIIDetectionResult {
	return types.PIIDetectionResult{
		HasPII:       true,
		NeedsConsent: true,
		DetectedItems: []types.DetectedItem{
			{ID: "person-11", Type: "PERSON", RiskLevel: types.RiskHigh},
			{ID: "medication-37", Type: "MEDICATION", RiskLevel: types.RiskHigh},
		},
	}
}

func TestResolveRemovePIIOnly(t *testing.T) {
	res, err := Resolve(twoItemResult(), types.ConsentDecision{Choice: types.ChoiceRemovePIIOnly})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.DeleteItem {
		t.Error("remove_pii_only must not delete the item")
	}
	if len(res.Actions) != 2 {
		t.Fatalf("expected actions for both items, got %d", len(res.Actions))
	}
	for id, action := range res.Actions {
		if action != types.ActionAnonymize {
			t.Errorf("item %s: expected anonymize, got %s", id, action)
		}
	}
}

func TestResolveKeepOriginalRecordsApproval(t *testing.T) {
	res, err := Resolve(twoItemResult(), types.ConsentDecision{Choice: types.ChoiceKeepOriginal})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.ApprovedPII {
		t.Error("keep_original must record user approval")
	}
	for id, action := range res.Actions {
		if action != types.ActionKeep {
			t.Errorf("item %s: expected keep, got %s", id, action)
		}
	}
}

func TestResolveRemoveEntirely(t *testing.T) {
	res, err := Resolve(twoItemResult(), types.ConsentDecision{Choice: types.ChoiceRemoveEntirely})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !res.DeleteItem {
		t.Error("remove_entirely must mark the item for deletion")
	}
	if len(res.Actions) != 0 {
		t.Error("remove_entirely should skip per-item actions")
	}
}

func TestResolveGranular(t *testing.T) {
	res, err := Resolve(twoItemResult(), types.ConsentDecision{Actions: map[string]types.ConsentAction{
		"person-11":     types.ActionAnonymize,
		"medication-37": types.ActionRemove,
	}})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Actions["person-11"] != types.ActionAnonymize || res.Actions["medication-37"] != types.ActionRemove {
		t.Errorf("unexpected actions: %+v", res.Actions)
	}
}

func TestResolveRejectsInvalidAction(t *testing.T) {
	_, err := Resolve(twoItemResult(), types.ConsentDecision{Actions: map[string]types.ConsentAction{
		"person-11":     "shred",
		"medication-37": types.ActionKeep,
	}})
	if !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestResolveRejectsUnknownItem(t *testing.T) {
	_, err := Resolve(twoItemResult(), types.ConsentDecision{Actions: map[string]types.ConsentAction{
		"person-11":     types.ActionKeep,
		"medication-37": types.ActionKeep,
		"ghost-99":      types.ActionKeep,
	}})
	if !errors.Is(err, ErrUnknownItem) {
		t.Errorf("expected ErrUnknownItem, got %v", err)
	}
}

func TestResolveRejectsIncompleteDecision(t *testing.T) {
	_, err := Resolve(twoItemResult(), types.ConsentDecision{Actions: map[string]types.ConsentAction{
		"person-11": types.ActionKeep,
	}})
	if !errors.Is(err, ErrIncompleteDecision) {
		t.Errorf("expected ErrIncompleteDecision, got %v", err)
	}
}

func TestResolveRejectsUnknownChoice(t *testing.T) {
	_, err := Resolve(twoItemResult(), types.ConsentDecision{Choice: "forget_everything"})
	if !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("expected ErrInvalidDecision, got %v", err)
	}
}

func TestResolveRejectsEmptyAndMixedDecisions(t *testing.T) {
	if _, err := Resolve(twoItemResult(), types.ConsentDecision{}); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("empty decision: expected ErrInvalidDecision, got %v", err)
	}

	mixed := types.ConsentDecision{
		Choice:  types.ChoiceKeepOriginal,
		Actions: map[string]types.ConsentAction{"person-11": types.ActionKeep},
	}
	if _, err := Resolve(twoItemResult(), mixed); !errors.Is(err, ErrInvalidDecision) {
		t.Errorf("mixed decision: expected ErrInvalidDecision, got %v", err)
	}
}

func TestImplicitKeepCoversAllItems(t *testing.T) {
	res := ImplicitKeep(twoItemResult())
	if len(res.Actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(res.Actions))
	}
	for _, action := range res.Actions {
		if action != types.ActionKeep {
			t.Errorf("expected keep, got %s", action)
		}
	}
}

func TestDefaultRemoveIsRemoveEntirely(t *testing.T) {
	if DefaultRemove().Choice != types.ChoiceRemoveEntirely {
		t.Error("sweep default must be remove_entirely")
	}
}
