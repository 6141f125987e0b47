package types

// ConsentAction is the resolved fate of a single detected item.
type ConsentAction string

const (
	ActionKeep      ConsentAction = "keep"
	ActionAnonymize ConsentAction = "anonymize"
	ActionRemove    ConsentAction = "remove"
)

// IsValidConsentAction reports whether the value is a recognized action.
func IsValidConsentAction(a ConsentAction) bool {
	switch a {
	case ActionKeep, ActionAnonymize, ActionRemove:
		return true
	}
	return false
}

// ConsentChoice is a coarse whole-item decision. Each choice expands to a
// full set of per-item actions (see the consent resolver).
type ConsentChoice string

const (
	// ChoiceRemoveEntirely deletes the item from every tier.
	ChoiceRemoveEntirely ConsentChoice = "remove_entirely"

	// ChoiceRemovePIIOnly anonymizes every detected item regardless of risk
	// and keeps the rest of the content.
	ChoiceRemovePIIOnly ConsentChoice = "remove_pii_only"

	// ChoiceKeepOriginal keeps all detected items untouched and records the
	// user's explicit approval for audit purposes.
	ChoiceKeepOriginal ConsentChoice = "keep_original"
)

// IsValidConsentChoice reports whether the value is a recognized choice.
func IsValidConsentChoice(c ConsentChoice) bool {
	switch c {
	case ChoiceRemoveEntirely, ChoiceRemovePIIOnly, ChoiceKeepOriginal:
		return true
	}
	return false
}

// ConsentState tracks a memory item through the consent workflow.
type ConsentState string

const (
	// ConsentDetected is the initial state: a detection result has just been
	// produced for the item.
	ConsentDetected ConsentState = "detected"

	// ConsentPending means the item is withheld from the long-term tier until
	// an explicit decision resolves it.
	ConsentPending ConsentState = "pending_consent"

	// ConsentResolved means every detected item has an action (or a coarse
	// choice has been applied).
	ConsentResolved ConsentState = "resolved"
)

// IsValidConsentTransition validates consent state transitions.
//
// Valid transitions:
//
//	detected -> pending_consent  (detection required consent)
//	detected -> resolved         (no consent needed, implicit keep)
//	pending_consent -> resolved  (explicit decision applied)
//	resolved -> resolved         (re-resolution, last decision wins)
func IsValidConsentTransition(current, next ConsentState) bool {
	switch current {
	case ConsentDetected:
		return next == ConsentPending || next == ConsentResolved
	case ConsentPending:
		return next == ConsentResolved
	case ConsentResolved:
		return next == ConsentResolved
	default:
		return false
	}
}

// ConsentDecision resolves a pending item. Exactly one of Choice or Actions
// must be populated: Choice applies a coarse whole-item decision, Actions
// maps every DetectedItem.ID to its granular action.
type ConsentDecision struct {
	Choice  ConsentChoice            `json:"choice,omitempty"`
	Actions map[string]ConsentAction `json:"actions,omitempty"`
}
