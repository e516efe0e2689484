package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

// Service implements the fund-movement operations and the goal lifecycle on
// top of a Store. Every mutating method runs as one atomic Update against
// the owning account.
type Service struct {
	store Store
	clock Clock
}

func NewService(store Store, clock Clock) *Service {
	return &Service{store: store, clock: clock}
}

func (s *Service) CreateAccount(ctx context.Context, userID int64) (models.Account, error) {
	return s.store.CreateAccount(ctx, userID)
}

func (s *Service) Account(ctx context.Context, userID int64) (models.Account, error) {
	return s.store.AccountByUser(ctx, userID)
}

// Goals returns the account's goals without the soft-deleted ones.
func (s *Service) Goals(ctx context.Context, userID int64) ([]models.SavingsGoal, error) {
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Goals(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.SavingsGoal, 0, len(all))
	for _, g := range all {
		if !g.Deleted() {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *Service) Goal(ctx context.Context, userID, goalID int64) (models.SavingsGoal, error) {
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.SavingsGoal{}, err
	}
	return s.store.Goal(ctx, acc.ID, goalID)
}

func (s *Service) Transactions(ctx context.Context, userID int64) ([]models.Transaction, error) {
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Transactions(ctx, acc.ID)
}

func (s *Service) GoalTransactions(ctx context.Context, userID, goalID int64) ([]models.Transaction, error) {
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Goal(ctx, acc.ID, goalID); err != nil {
		return nil, err
	}
	return s.store.GoalTransactions(ctx, acc.ID, goalID)
}

// ---------------------------------------------------------------
// Fund movement: account balance
// ---------------------------------------------------------------

func (s *Service) Deposit(ctx context.Context, userID int64, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, ErrInvalidAmount
	}
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.Account{}, err
	}

	var out models.Account
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		a := u.Account()
		a.Balance = a.Balance.Add(amount)
		out = *a
		return u.Record(models.Transaction{
			Amount: amount,
			Type:   models.TxDeposit,
			Date:   s.clock.Now(),
		})
	})
	return out, err
}

func (s *Service) Withdraw(ctx context.Context, userID int64, amount decimal.Decimal) (models.Account, error) {
	if !amount.IsPositive() {
		return models.Account{}, ErrInvalidAmount
	}
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.Account{}, err
	}

	var out models.Account
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		a := u.Account()
		if amount.GreaterThan(a.Balance) {
			return ErrInsufficientFunds
		}
		a.Balance = a.Balance.Sub(amount)
		out = *a
		return u.Record(models.Transaction{
			Amount: amount,
			Type:   models.TxWithdrawal,
			Date:   s.clock.Now(),
		})
	})
	return out, err
}

// ---------------------------------------------------------------
// Fund movement: goal transfers
// ---------------------------------------------------------------

// TransferToGoal moves money from the account balance into a goal. For
// amount-based goals the effective amount is capped at what is left to reach
// the target; the recorded transaction carries the capped value.
func (s *Service) TransferToGoal(ctx context.Context, userID, goalID int64, amount decimal.Decimal) (models.SavingsGoal, error) {
	if !amount.IsPositive() {
		return models.SavingsGoal{}, ErrInvalidAmount
	}
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.SavingsGoal{}, err
	}

	var out models.SavingsGoal
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		g, err := u.Goal(goalID)
		if err != nil {
			return err
		}
		if g.Deleted() {
			return ErrGoalDeleted
		}
		if g.Status != models.StatusInProgress {
			return ErrGoalNotMutable
		}
		a := u.Account()
		if amount.GreaterThan(a.Balance) {
			return ErrInsufficientFunds
		}

		now := s.clock.Now()
		effective := cappedDeposit(g, amount)
		if effective.IsPositive() {
			a.Balance = a.Balance.Sub(effective)
			g.CurrentAmount = g.CurrentAmount.Add(effective)
			if g.LockType == models.TimeBased {
				g.LastDepositDate = &now
			}
			gid := g.ID
			if err := u.Record(models.Transaction{
				GoalID: &gid,
				Amount: effective,
				Type:   models.TxTransferToGoal,
				Date:   now,
			}); err != nil {
				return err
			}
		}
		advanceOnTarget(g, now)
		out = *g
		return nil
	})
	return out, err
}

// TransferFromGoal moves money out of a goal back to the balance. It is only
// allowed once the goal's lock policy is satisfied or the goal has been
// explicitly unlocked.
func (s *Service) TransferFromGoal(ctx context.Context, userID, goalID int64, amount decimal.Decimal) (models.SavingsGoal, error) {
	if !amount.IsPositive() {
		return models.SavingsGoal{}, ErrInvalidAmount
	}
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.SavingsGoal{}, err
	}

	var out models.SavingsGoal
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		g, err := u.Goal(goalID)
		if err != nil {
			return err
		}
		if g.Deleted() {
			return ErrGoalDeleted
		}
		now := s.clock.Now()
		switch g.Status {
		case models.StatusCompleted, models.StatusMarkDone:
			return ErrGoalNotMutable
		case models.StatusInProgress:
			if !targetReached(g, now) {
				return ErrGoalLocked
			}
		}
		if amount.GreaterThan(g.CurrentAmount) {
			return ErrInsufficientGoalFunds
		}

		a := u.Account()
		g.CurrentAmount = g.CurrentAmount.Sub(amount)
		a.Balance = a.Balance.Add(amount)
		gid := g.ID
		if err := u.Record(models.Transaction{
			GoalID: &gid,
			Amount: amount,
			Type:   models.TxTransferFromGoal,
			Date:   now,
		}); err != nil {
			return err
		}
		out = *g
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------
// Goal lifecycle
// ---------------------------------------------------------------

// Unlock releases a goal before its lock policy is satisfied. If the target
// turns out to be reached the goal goes to mark_done and keeps its funds for
// explicit confirmation; otherwise the funds are swept back immediately.
func (s *Service) Unlock(ctx context.Context, userID, goalID int64) (models.SavingsGoal, error) {
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.SavingsGoal{}, err
	}

	var out models.SavingsGoal
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		g, err := u.Goal(goalID)
		if err != nil {
			return err
		}
		if g.Deleted() {
			return ErrGoalDeleted
		}
		switch g.Status {
		case models.StatusCompleted:
			return ErrAlreadyTerminal
		case models.StatusUnlocked:
			return ErrAlreadyUnlocked
		case models.StatusMarkDone:
			return ErrGoalNotMutable
		}

		now := s.clock.Now()
		if targetReached(g, now) {
			g.Status = models.StatusMarkDone
		} else {
			g.Status = models.StatusUnlocked
			if err := sweep(u, g, now); err != nil {
				return err
			}
		}
		out = *g
		return nil
	})
	return out, err
}

// MarkAsDone confirms a goal that has reached its target, sweeps any
// remaining funds back to the balance and completes the goal.
func (s *Service) MarkAsDone(ctx context.Context, userID, goalID int64) (models.SavingsGoal, error) {
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.SavingsGoal{}, err
	}

	var out models.SavingsGoal
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		g, err := u.Goal(goalID)
		if err != nil {
			return err
		}
		if g.Deleted() {
			return ErrGoalDeleted
		}
		if g.Status != models.StatusMarkDone {
			return ErrNotReady
		}

		now := s.clock.Now()
		if err := sweep(u, g, now); err != nil {
			return err
		}
		g.Status = models.StatusCompleted
		g.CompletedAt = &now
		out = *g
		return nil
	})
	return out, err
}

// DeleteGoal soft-deletes a goal: remaining funds are swept back and the goal
// is frozen in completed status. Deletion is allowed from any live status.
func (s *Service) DeleteGoal(ctx context.Context, userID, goalID int64) (models.SavingsGoal, error) {
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.SavingsGoal{}, err
	}

	var out models.SavingsGoal
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		g, err := u.Goal(goalID)
		if err != nil {
			return err
		}
		if g.Deleted() {
			return ErrGoalDeleted
		}

		now := s.clock.Now()
		if err := sweep(u, g, now); err != nil {
			return err
		}
		g.DeletedAt = &now
		g.Status = models.StatusCompleted
		if g.CompletedAt == nil {
			g.CompletedAt = &now
		}
		out = *g
		return nil
	})
	return out, err
}

// ---------------------------------------------------------------
// Scheduler entry point
// ---------------------------------------------------------------

// ProcessAutoDeposits runs one scheduler pass over a single account: every
// non-deleted in-progress goal with a complete recurring-deposit config gets
// its reach-target check and, when the interval has elapsed, its deposit.
// All mutations for the account commit atomically. An uncovered deposit is
// logged and skipped without advancing lastDepositDate, so it is retried on
// the next cycle.
func (s *Service) ProcessAutoDeposits(ctx context.Context, accountID int64) error {
	return s.store.Update(ctx, accountID, func(u Unit) error {
		now := s.clock.Now()
		for _, g := range u.Goals() {
			if g.Deleted() || g.Status != models.StatusInProgress || !g.HasAutoDeposit() {
				continue
			}

			// First eligible run establishes the baseline.
			if g.LastDepositDate == nil {
				g.LastDepositDate = &now
			}

			if advanceOnTarget(g, now) {
				continue
			}

			interval := g.DepositFrequency.IntervalDays(g.CustomIntervalDays)
			elapsed := wholeDays(now.Sub(*g.LastDepositDate))
			if elapsed < interval {
				continue
			}

			amount := cappedDeposit(g, *g.DepositAmount)
			if !amount.IsPositive() {
				continue
			}

			a := u.Account()
			if a.Balance.LessThan(amount) {
				slog.Warn("auto deposit skipped: insufficient funds",
					"account_id", accountID,
					"goal_id", g.ID,
					"amount", amount.StringFixed(2),
					"balance", a.Balance.StringFixed(2))
				continue
			}

			a.Balance = a.Balance.Sub(amount)
			g.CurrentAmount = g.CurrentAmount.Add(amount)
			g.LastDepositDate = &now
			gid := g.ID
			if err := u.Record(models.Transaction{
				GoalID: &gid,
				Amount: amount,
				Type:   models.TxTransferToGoal,
				Date:   now,
			}); err != nil {
				return err
			}
			advanceOnTarget(g, now)
		}
		return nil
	})
}

// AutoDepositAccounts lists the accounts the scheduler has to visit.
func (s *Service) AutoDepositAccounts(ctx context.Context) ([]int64, error) {
	return s.store.AutoDepositAccounts(ctx)
}

// ---------------------------------------------------------------
// State machine helpers
// ---------------------------------------------------------------

// targetReached reports whether the goal's lock condition is satisfied.
func targetReached(g *models.SavingsGoal, now time.Time) bool {
	switch g.LockType {
	case models.AmountBased:
		return g.TargetAmount != nil && g.CurrentAmount.GreaterThanOrEqual(*g.TargetAmount)
	case models.TimeBased:
		return g.TargetDate != nil && !g.TargetDate.After(now)
	}
	return false
}

// advanceOnTarget applies the reach-target transition: amount-based goals go
// to mark_done awaiting confirmation, time-based goals past their date become
// unlocked.
func advanceOnTarget(g *models.SavingsGoal, now time.Time) bool {
	if !targetReached(g, now) {
		return false
	}
	switch g.LockType {
	case models.AmountBased:
		g.Status = models.StatusMarkDone
	case models.TimeBased:
		if g.Status == models.StatusInProgress {
			g.Status = models.StatusUnlocked
		}
	}
	return true
}

// sweep moves a goal's remaining funds back to the balance, recording a
// transfer_from_goal transaction when there is anything to move.
func sweep(u Unit, g *models.SavingsGoal, now time.Time) error {
	if !g.CurrentAmount.IsPositive() {
		return nil
	}
	amount := g.CurrentAmount
	a := u.Account()
	a.Balance = a.Balance.Add(amount)
	g.CurrentAmount = decimal.Zero
	gid := g.ID
	return u.Record(models.Transaction{
		GoalID: &gid,
		Amount: amount,
		Type:   models.TxTransferFromGoal,
		Date:   now,
	})
}

// cappedDeposit limits a deposit into an amount-based goal to the remaining
// distance to the target, so the goal never overshoots.
func cappedDeposit(g *models.SavingsGoal, amount decimal.Decimal) decimal.Decimal {
	if g.LockType == models.AmountBased && g.TargetAmount != nil {
		remaining := g.TargetAmount.Sub(g.CurrentAmount)
		if amount.GreaterThan(remaining) {
			return remaining
		}
	}
	return amount
}

func wholeDays(d time.Duration) int {
	return int(d.Hours() / 24)
}
