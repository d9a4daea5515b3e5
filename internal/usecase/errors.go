package usecase

import (
	"errors"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// RuleMessage returns the drafter-facing text of a rejected draft action.
func RuleMessage(err error) (string, bool) {
	ruleErr, ok := draft.AsRuleError(err)
	if !ok {
		return "", false
	}
	return ruleErr.Message, true
}
