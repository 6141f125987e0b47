// Package consent resolves per-item consent decisions against a PII
// detection result. It validates caller-supplied decisions and expands
// coarse whole-item choices into the granular per-span actions the
// redactor consumes.
package consent

import (
	"errors"
	"fmt"

	"github.com/keepsake-ai/keepsake/pkg/types"
)

var (
	// ErrInvalidDecision indicates a malformed decision: no choice and no
	// actions, both at once, or an unrecognized choice or action value.
	ErrInvalidDecision = errors.New("invalid consent decision")

	// ErrUnknownItem indicates a granular decision referencing a detected
	// item id that does not exist for this memory.
	ErrUnknownItem = errors.New("consent decision references unknown detected item")

	// ErrIncompleteDecision indicates a granular decision that leaves some
	// detected items without an action.
	ErrIncompleteDecision = errors.New("consent decision does not cover all detected items")
)

// Resolution is a fully resolved set of consent actions for one memory
// item. Exactly what the redactor and storage router need: every detected
// item has an action, or the whole item is marked for deletion.
type Resolution struct {
	// Actions maps every DetectedItem.ID to its resolved action. Empty when
	// DeleteItem is set.
	Actions map[string]types.ConsentAction

	// Choice is the coarse choice that produced this resolution, empty for
	// granular decisions.
	Choice types.ConsentChoice

	// DeleteItem marks the whole memory for removal from every tier.
	DeleteItem bool

	// ApprovedPII records that the user explicitly chose to keep detected
	// PII; surfaces as the userApprovedPii metadata key for audit purposes.
	ApprovedPII bool
}

// Resolve validates a decision against the detection result and expands it
// into a Resolution. Rejections are synchronous and leave no state behind:
// a rejected decision must cause no transition.
func Resolve(result types.PIIDetectionResult, decision types.ConsentDecision) (Resolution, error) {
	hasChoice := decision.Choice != ""
	hasActions := len(decision.Actions) > 0

	if hasChoice == hasActions {
		return Resolution{}, fmt.Errorf("%w: exactly one of choice or actions must be set", ErrInvalidDecision)
	}

	if hasChoice {
		return resolveChoice(result, decision.Choice)
	}
	return resolveGranular(result, decision.Actions)
}

// ImplicitKeep is the automatic resolution for items that never needed
// consent: every detected item keeps its original text.
func ImplicitKeep(result types.PIIDetectionResult) Resolution {
	actions := make(map[string]types.ConsentAction, len(result.DetectedItems))
	for _, it := range result.DetectedItems {
		actions[it.ID] = types.ActionKeep
	}
	return Resolution{Actions: actions}
}

// DefaultRemove is the resolution applied by the expiry sweep when a
// pending item is never resolved by the user: the whole item is removed.
func DefaultRemove() types.ConsentDecision {
	return types.ConsentDecision{Choice: types.ChoiceRemoveEntirely}
}

func resolveChoice(result types.PIIDetectionResult, choice types.ConsentChoice) (Resolution, error) {
	if !types.IsValidConsentChoice(choice) {
		return Resolution{}, fmt.Errorf("%w: unknown choice %q", ErrInvalidDecision, choice)
	}

	res := Resolution{Choice: choice}
	switch choice {
	case types.ChoiceRemoveEntirely:
		res.DeleteItem = true
	case types.ChoiceRemovePIIOnly:
		res.Actions = uniformActions(result, types.ActionAnonymize)
	case types.ChoiceKeepOriginal:
		res.Actions = uniformActions(result, types.ActionKeep)
		res.ApprovedPII = true
	}
	return res, nil
}

func resolveGranular(result types.PIIDetectionResult, actions map[string]types.ConsentAction) (Resolution, error) {
	known := make(map[string]struct{}, len(result.DetectedItems))
	for _, it := range result.DetectedItems {
		known[it.ID] = struct{}{}
	}

	resolved := make(map[string]types.ConsentAction, len(actions))
	for id, action := range actions {
		if !types.IsValidConsentAction(action) {
			return Resolution{}, fmt.Errorf("%w: action %q for item %s", ErrInvalidDecision, action, id)
		}
		if _, ok := known[id]; !ok {
			return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		resolved[id] = action
	}

	if len(resolved) != len(known) {
		return Resolution{}, fmt.Errorf("%w: %d of %d items covered", ErrIncompleteDecision, len(resolved), len(known))
	}

	return Resolution{Actions: resolved}, nil
}

func uniformActions(result types.PIIDetectionResult, action types.ConsentAction) map[string]types.ConsentAction {
	actions := make(map[string]types.ConsentAction, len(result.DetectedItems))
	for _, it := range result.DetectedItems {
		actions[it.ID] = action
	}
	return actions
}
