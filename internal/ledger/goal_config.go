package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

// CreateGoalParams carries everything a caller can specify when opening a
// goal. Exactly one of TargetAmount / TargetDate must be set, matching the
// lock type.
type CreateGoalParams struct {
	Name     string
	LockType models.LockType

	TargetAmount *decimal.Decimal
	TargetDate   *time.Time

	DepositAmount      *decimal.Decimal
	DepositFrequency   *models.DepositFrequency
	CustomIntervalDays *int

	Emoji       string
	Color       string
	Description string

	// InitialPayment makes a one-off transfer into the goal right after
	// creation. InitialAutoDeposit instead applies the first recurring
	// deposit immediately. At most one of the two may be used.
	InitialPayment     *decimal.Decimal
	InitialAutoDeposit bool
}

func configErr(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrConfigurationInvalid)...)
}

func (p CreateGoalParams) validate(now time.Time) error {
	if p.Name == "" {
		return configErr("goal name is required")
	}
	if len(p.Name) > 100 {
		return configErr("goal name cannot exceed 100 characters")
	}
	if len(p.Description) > 500 {
		return configErr("description cannot exceed 500 characters")
	}
	if !p.LockType.Valid() {
		return configErr("unknown lock type %q", p.LockType)
	}

	switch p.LockType {
	case models.AmountBased:
		if p.TargetAmount == nil || !p.TargetAmount.IsPositive() {
			return configErr("target amount is required for amount-based goals and must be greater than zero")
		}
		if p.TargetDate != nil {
			return configErr("target date must not be set for amount-based goals")
		}
	case models.TimeBased:
		if p.TargetDate == nil {
			return configErr("target date is required for time-based goals")
		}
		if !p.TargetDate.After(now) {
			return configErr("target date must be in the future")
		}
		if p.TargetAmount != nil {
			return configErr("target amount must not be set for time-based goals")
		}
	}

	if p.DepositFrequency != nil {
		if !p.DepositFrequency.Valid() {
			return configErr("unknown deposit frequency %q", *p.DepositFrequency)
		}
		if p.DepositAmount == nil || !p.DepositAmount.IsPositive() {
			return configErr("deposit amount must be greater than zero when a deposit frequency is set")
		}
		if *p.DepositFrequency == models.FrequencyCustom && (p.CustomIntervalDays == nil || *p.CustomIntervalDays <= 0) {
			return configErr("custom deposit interval must be greater than zero for custom frequency")
		}
	} else if p.DepositAmount != nil {
		return configErr("deposit frequency is required when a deposit amount is set")
	}

	if p.InitialPayment != nil && p.InitialAutoDeposit {
		return configErr("cannot combine an initial manual payment with an initial automatic deposit")
	}
	if p.InitialPayment != nil && !p.InitialPayment.IsPositive() {
		return configErr("initial payment must be greater than zero")
	}
	if p.InitialAutoDeposit && p.DepositAmount == nil {
		return configErr("a deposit amount is required for an initial automatic deposit")
	}
	return nil
}

// CreateGoal opens a goal in in_progress and, when requested, funds it with
// an initial transfer in the same atomic unit.
func (s *Service) CreateGoal(ctx context.Context, userID int64, p CreateGoalParams) (models.SavingsGoal, error) {
	now := s.clock.Now()
	if err := p.validate(now); err != nil {
		return models.SavingsGoal{}, err
	}
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return models.SavingsGoal{}, err
	}

	var out models.SavingsGoal
	err = s.store.Update(ctx, acc.ID, func(u Unit) error {
		g := &models.SavingsGoal{
			Name:          p.Name,
			LockType:      p.LockType,
			TargetAmount:  p.TargetAmount,
			TargetDate:    p.TargetDate,
			CurrentAmount: decimal.Zero,
			Status:        models.StatusInProgress,
			DepositAmount: p.DepositAmount,
			Emoji:         p.Emoji,
			Color:         p.Color,
			Description:   p.Description,
			CreatedAt:     now,
		}
		if p.DepositFrequency != nil {
			f := *p.DepositFrequency
			g.DepositFrequency = &f
			if f == models.FrequencyCustom {
				g.CustomIntervalDays = p.CustomIntervalDays
			}
			t := now
			g.LastDepositDate = &t
		}
		if err := u.AddGoal(g); err != nil {
			return err
		}

		var first *decimal.Decimal
		switch {
		case p.InitialPayment != nil:
			first = p.InitialPayment
		case p.InitialAutoDeposit:
			first = p.DepositAmount
		}
		if first != nil {
			amount := cappedDeposit(g, *first)
			a := u.Account()
			if a.Balance.LessThan(amount) {
				return fmt.Errorf("initial goal payment: %w", ErrInsufficientFunds)
			}
			if amount.IsPositive() {
				a.Balance = a.Balance.Sub(amount)
				g.CurrentAmount = g.CurrentAmount.Add(amount)
				gid := g.ID
				if err := u.Record(models.Transaction{
					GoalID: &gid,
					Amount: amount,
					Type:   models.TxTransferToGoal,
					Date:   now,
				}); err != nil {
					return err
				}
			}
			advanceOnTarget(g, now)
		}
		out = *g
		return nil
	})
	return out, err
}

// UpdateGoalParams uses nil for "leave unchanged". DepositFrequency accepts
// the usual frequencies plus "disabled", which clears the whole recurring
// deposit configuration.
type UpdateGoalParams struct {
	Name               *string
	TargetAmount       *decimal.Decimal
	TargetDate         *time.Time
	DepositAmount      *decimal.Decimal
	DepositFrequency   *string
	CustomIntervalDays *int
	Emoji              *string
	Color              *string
	Description        *string
}

// FrequencyDisabled turns automatic deposits off when passed as the
// frequency in an update.
const FrequencyDisabled = "disabled"

// UpdateGoal edits a goal that is still in progress. The lock type is
// immutable; targets can only tighten in their own lock type's dimension.
func (s *Service) UpdateGoal(ctx context.Context, userID, goalID int64, p UpdateGoalParams) (models.SavingsGoal, error) {
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
		now := s.clock.Now()

		if p.Name != nil {
			if *p.Name == "" {
				return configErr("goal name cannot be empty")
			}
			if len(*p.Name) > 100 {
				return configErr("goal name cannot exceed 100 characters")
			}
			g.Name = *p.Name
		}

		if p.TargetAmount != nil {
			if g.LockType != models.AmountBased {
				return configErr("target amount can only be set on amount-based goals")
			}
			if !p.TargetAmount.IsPositive() {
				return configErr("target amount must be greater than zero")
			}
			if p.TargetAmount.LessThan(g.CurrentAmount) {
				return configErr("target amount cannot be less than the current amount")
			}
			v := *p.TargetAmount
			g.TargetAmount = &v
		}

		if p.TargetDate != nil {
			if g.LockType != models.TimeBased {
				return configErr("target date can only be set on time-based goals")
			}
			if !p.TargetDate.After(now) {
				return configErr("target date must be in the future")
			}
			v := *p.TargetDate
			g.TargetDate = &v
		}

		if p.DepositFrequency != nil {
			switch *p.DepositFrequency {
			case FrequencyDisabled:
				g.DepositAmount = nil
				g.DepositFrequency = nil
				g.CustomIntervalDays = nil
				g.LastDepositDate = nil
			case string(models.FrequencyMonthly), string(models.FrequencyWeekly), string(models.FrequencyCustom):
				freq := models.DepositFrequency(*p.DepositFrequency)
				if p.DepositAmount == nil && g.DepositAmount == nil {
					return configErr("deposit amount is required when a frequency is set")
				}
				if freq == models.FrequencyCustom {
					days := p.CustomIntervalDays
					if days == nil {
						days = g.CustomIntervalDays
					}
					if days == nil || *days <= 0 {
						return configErr("custom deposit interval must be greater than zero for custom frequency")
					}
					g.CustomIntervalDays = days
				} else {
					g.CustomIntervalDays = nil
				}
				g.DepositFrequency = &freq
			default:
				return configErr("unknown deposit frequency %q", *p.DepositFrequency)
			}
		}

		if p.CustomIntervalDays != nil {
			if *p.CustomIntervalDays <= 0 {
				return configErr("custom deposit interval must be greater than zero")
			}
			if g.DepositFrequency == nil || *g.DepositFrequency != models.FrequencyCustom {
				return configErr("set frequency to custom to specify custom interval days")
			}
			v := *p.CustomIntervalDays
			g.CustomIntervalDays = &v
		}

		if p.DepositAmount != nil {
			if !p.DepositAmount.IsPositive() {
				return configErr("deposit amount must be greater than zero")
			}
			if g.LockType == models.AmountBased && g.TargetAmount != nil && p.DepositAmount.GreaterThan(*g.TargetAmount) {
				return configErr("deposit amount cannot exceed the target amount")
			}
			if g.DepositFrequency == nil {
				return configErr("deposit frequency must be set before a deposit amount")
			}
			v := *p.DepositAmount
			g.DepositAmount = &v
			t := now
			g.LastDepositDate = &t
		}

		if p.Emoji != nil {
			if *p.Emoji == "" {
				return configErr("emoji cannot be empty")
			}
			g.Emoji = *p.Emoji
		}
		if p.Color != nil {
			if *p.Color == "" {
				return configErr("color cannot be empty")
			}
			g.Color = *p.Color
		}
		if p.Description != nil {
			if len(*p.Description) > 500 {
				return configErr("description cannot exceed 500 characters")
			}
			g.Description = *p.Description
		}

		out = *g
		return nil
	})
	return out, err
}
