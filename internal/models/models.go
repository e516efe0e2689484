package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's main balance. Savings goals ring-fence parts of the
// user's money separately from Balance; the two never overlap.
type Account struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// SavingsGoal is a named, lock-policed pot of money owned by one account.
type SavingsGoal struct {
	ID            int64           `json:"id"`
	AccountID     int64           `json:"account_id"`
	Name          string          `json:"name"`
	LockType      LockType        `json:"lock_type"`
	TargetAmount  *decimal.Decimal `json:"target_amount,omitempty"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Status        GoalStatus      `json:"status"`

	DepositAmount      *decimal.Decimal  `json:"deposit_amount,omitempty"`
	DepositFrequency   *DepositFrequency `json:"deposit_frequency,omitempty"`
	CustomIntervalDays *int              `json:"custom_interval_days,omitempty"`
	LastDepositDate    *time.Time        `json:"last_deposit_date,omitempty"`

	Emoji       string `json:"emoji,omitempty"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Deleted reports whether the goal has been soft-deleted.
func (g *SavingsGoal) Deleted() bool {
	return g.DeletedAt != nil
}

// HasAutoDeposit reports whether the goal carries a complete recurring
// deposit configuration.
func (g *SavingsGoal) HasAutoDeposit() bool {
	return g.DepositAmount != nil && g.DepositFrequency != nil
}

// Transaction is an immutable ledger entry. Every balance or goal-amount
// change writes exactly one of these; they are the only input to trend
// reconstruction.
type Transaction struct {
	ID        int64           `json:"id"`
	AccountID int64           `json:"account_id"`
	GoalID    *int64          `json:"savings_goal_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TransactionType `json:"type"`
	Date      time.Time       `json:"transaction_date"`
}

type LockType string

const (
	TimeBased   LockType = "time_based"
	AmountBased LockType = "amount_based"
)

func (lt LockType) Valid() bool {
	return lt == TimeBased || lt == AmountBased
}

type GoalStatus string

const (
	StatusInProgress GoalStatus = "in_progress"
	StatusMarkDone   GoalStatus = "mark_done"
	StatusUnlocked   GoalStatus = "unlocked"
	StatusCompleted  GoalStatus = "completed"
)

type DepositFrequency string

const (
	FrequencyMonthly DepositFrequency = "monthly"
	FrequencyWeekly  DepositFrequency = "weekly"
	FrequencyCustom  DepositFrequency = "custom"
)

func (f DepositFrequency) Valid() bool {
	return f == FrequencyMonthly || f == FrequencyWeekly || f == FrequencyCustom
}

// IntervalDays returns how many whole days must elapse between automatic
// deposits. Custom frequency takes its interval from the goal config.
func (f DepositFrequency) IntervalDays(customDays *int) int {
	switch f {
	case FrequencyMonthly:
		return 30
	case FrequencyWeekly:
		return 7
	case FrequencyCustom:
		if customDays != nil {
			return *customDays
		}
		return 1
	}
	return 0
}

type TransactionType string

const (
	TxDeposit          TransactionType = "deposit"
	TxWithdrawal       TransactionType = "withdrawal"
	TxTransferToGoal   TransactionType = "transfer_to_goal"
	TxTransferFromGoal TransactionType = "transfer_from_goal"
)
