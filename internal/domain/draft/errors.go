package draft

import "errors"

var (
	// ErrRuleViolation matches every *RuleError via errors.Is.
	ErrRuleViolation = errors.New("draft rule violation")
	// ErrInvariantViolation marks corrupt or impossible draft state.
	ErrInvariantViolation = errors.New("draft invariant violation")
)

// RuleError is a rejected precondition. Message is shown to drafters as-is.
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string {
	return e.Message
}

func (e *RuleError) Is(target error) bool {
	return target == ErrRuleViolation
}

var (
	ErrPlayerNotAvailable  = &RuleError{Message: "Player not available"}
	ErrBucketRuleViolation = &RuleError{Message: "Bucket rule violation"}
	ErrNoEventsToUndo      = &RuleError{Message: "No events to undo"}
	ErrTimeExpired         = &RuleError{Message: "Time expired"}
	ErrNotYourTurn         = &RuleError{Message: "Not your turn"}
	ErrDraftNotLive        = &RuleError{Message: "Draft is not live"}
	ErrDraftNotSetup       = &RuleError{Message: "Draft is not in setup"}
	ErrDraftNotPaused      = &RuleError{Message: "Draft is not paused"}
	ErrDraftCompleted      = &RuleError{Message: "Draft already completed"}
	ErrTeamNotFound        = &RuleError{Message: "Team not found"}
	ErrDraftOrderEmpty     = &RuleError{Message: "Draft order is empty"}
	ErrSettingsLocked      = &RuleError{Message: "Settings can only change in setup or paused"}
)

// AsRuleError extracts the rule violation carried by err, if any.
func AsRuleError(err error) (*RuleError, bool) {
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr, true
	}
	return nil, false
}
