package ledger

import "errors"

// Sentinel errors surfaced by fund-movement and lifecycle operations. The
// HTTP layer maps these to status codes with errors.Is.
var (
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInsufficientFunds     = errors.New("insufficient funds in account")
	ErrInsufficientGoalFunds = errors.New("insufficient funds in savings goal")
	ErrGoalLocked            = errors.New("savings goal is still locked")
	ErrGoalNotMutable        = errors.New("savings goal does not accept this action in its current status")
	ErrGoalDeleted           = errors.New("savings goal has been deleted")
	ErrNotFound              = errors.New("not found")
	ErrNotReady              = errors.New("savings goal has not reached its target")
	ErrAlreadyTerminal       = errors.New("savings goal is already completed")
	ErrAlreadyUnlocked       = errors.New("savings goal is already unlocked")
	ErrConcurrencyConflict   = errors.New("conflicting concurrent update")
	ErrConfigurationInvalid  = errors.New("invalid savings goal configuration")
)
