package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

// SavingsTrendPoint is one sample of the account-level savings trend.
type SavingsTrendPoint struct {
	PeriodEnd    time.Time       `json:"period_end"`
	TotalSavings decimal.Decimal `json:"total_savings"`
	Difference   decimal.Decimal `json:"difference"`
}

// GoalTrendPoint is one sample of a single goal's trend. TargetPace is the
// straight-line amount a time-based goal should have accumulated by the
// period end; it is only present when the goal carries both a target date
// and a target amount.
type GoalTrendPoint struct {
	PeriodEnd         time.Time        `json:"period_end"`
	CumulativeSavings decimal.Decimal  `json:"cumulative_savings"`
	Difference        decimal.Decimal  `json:"difference"`
	TargetPace        *decimal.Decimal `json:"target_cumulative_savings,omitempty"`
}

type GoalTrend struct {
	PeriodType string           `json:"period_type"`
	Points     []GoalTrendPoint `json:"trend_data"`
}

var validPeriodTypes = map[string]bool{
	"day": true, "week": true, "month": true, "year": true,
}

// SavingsTrend reconstructs the total ring-fenced savings across all of the
// user's goals for the last `periods` periods ending now. Historical samples
// are rebuilt purely from the transfer transactions; the newest sample uses
// the live goal amounts.
func (s *Service) SavingsTrend(ctx context.Context, userID int64, periodType string, periods int) ([]SavingsTrendPoint, error) {
	if periods <= 0 {
		return nil, fmt.Errorf("periods must be greater than zero: %w", ErrConfigurationInvalid)
	}
	if !validPeriodTypes[periodType] {
		return nil, fmt.Errorf("period type must be day, week, month or year: %w", ErrConfigurationInvalid)
	}

	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := s.store.Goals(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	txns, err := s.store.Transactions(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	byGoal := make(map[int64][]models.Transaction)
	for _, t := range txns {
		if t.GoalID == nil {
			continue
		}
		if t.Type != models.TxTransferToGoal && t.Type != models.TxTransferFromGoal {
			continue
		}
		byGoal[*t.GoalID] = append(byGoal[*t.GoalID], t)
	}

	now := s.clock.Now()
	points := make([]SavingsTrendPoint, 0, periods)
	for i := periods - 1; i >= 0; i-- {
		end := periodEnd(periodType, now, i)

		total := decimal.Zero
		for _, g := range goals {
			if g.CreatedAt.After(end) {
				continue
			}
			if g.CompletedAt != nil && g.CompletedAt.Before(end) {
				continue
			}
			if g.DeletedAt != nil && g.DeletedAt.Before(end) {
				continue
			}

			var amount decimal.Decimal
			if i == 0 {
				amount = g.CurrentAmount
			} else {
				amount = sumTransfers(byGoal[g.ID], end)
			}
			if amount.IsNegative() {
				amount = decimal.Zero
			}
			total = total.Add(amount)
		}

		points = append(points, SavingsTrendPoint{PeriodEnd: end, TotalSavings: total})
	}

	// The account-level view starts its delta series at zero.
	for i := 1; i < len(points); i++ {
		points[i].Difference = points[i].TotalSavings.Sub(points[i-1].TotalSavings)
	}
	return points, nil
}

// GoalTrend reconstructs one goal's accumulation over its natural period
// granularity, derived from the goal's duration or deposit cadence.
func (s *Service) GoalTrend(ctx context.Context, userID, goalID int64, periods int) (GoalTrend, error) {
	if periods <= 0 {
		return GoalTrend{}, fmt.Errorf("periods must be greater than zero: %w", ErrConfigurationInvalid)
	}
	acc, err := s.store.AccountByUser(ctx, userID)
	if err != nil {
		return GoalTrend{}, err
	}
	g, err := s.store.Goal(ctx, acc.ID, goalID)
	if err != nil {
		return GoalTrend{}, err
	}
	txns, err := s.store.GoalTransactions(ctx, acc.ID, goalID)
	if err != nil {
		return GoalTrend{}, err
	}

	periodType := goalPeriodType(&g)
	now := s.clock.Now()
	points := make([]GoalTrendPoint, 0, periods)
	for i := periods - 1; i >= 0; i-- {
		end := periodEnd(periodType, now, i)
		if g.CompletedAt != nil && end.After(*g.CompletedAt) {
			end = *g.CompletedAt
		}

		var cum decimal.Decimal
		if i == 0 {
			cum = g.CurrentAmount
		} else {
			cum = sumTransfers(txns, end)
		}
		if cum.IsNegative() {
			cum = decimal.Zero
		}

		p := GoalTrendPoint{PeriodEnd: end, CumulativeSavings: cum}
		if g.LockType == models.TimeBased && g.TargetDate != nil && g.TargetAmount != nil {
			if pace := targetPace(&g, end); pace != nil {
				p.TargetPace = pace
			}
		}
		points = append(points, p)
	}

	// Unlike the account view, a goal's first delta is its own value: it
	// represents the initial accumulation.
	if len(points) > 0 {
		points[0].Difference = points[0].CumulativeSavings
	}
	for i := 1; i < len(points); i++ {
		points[i].Difference = points[i].CumulativeSavings.Sub(points[i-1].CumulativeSavings)
	}
	return GoalTrend{PeriodType: periodType, Points: points}, nil
}

// sumTransfers folds the goal's transfer transactions up to and including t:
// inflows add, outflows subtract.
func sumTransfers(txns []models.Transaction, t time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txns {
		if tx.Date.After(t) {
			continue
		}
		switch tx.Type {
		case models.TxTransferToGoal:
			sum = sum.Add(tx.Amount)
		case models.TxTransferFromGoal:
			sum = sum.Sub(tx.Amount)
		}
	}
	return sum
}

// periodEnd returns the end of the i-th period back from now. The most
// recent sample (i == 0) ends exactly now.
func periodEnd(periodType string, now time.Time, i int) time.Time {
	if i == 0 {
		return now
	}
	switch periodType {
	case "day":
		d := now.AddDate(0, 0, -i)
		return endOfDay(d)
	case "week":
		// Weeks end on Sunday.
		daysSinceSunday := int(now.Weekday())
		d := now.AddDate(0, 0, -daysSinceSunday-(i-1)*7)
		return endOfDay(d)
	case "month":
		d := now.AddDate(0, -i, 0)
		firstOfNext := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
		return firstOfNext.Add(-time.Millisecond)
	case "year":
		y := now.Year() - i
		return time.Date(y, 12, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	}
	return now
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// goalPeriodType picks the granularity a goal's trend renders at: short
// time-based goals day by day, long ones by month, amount-based goals by
// their deposit cadence.
func goalPeriodType(g *models.SavingsGoal) string {
	if g.LockType == models.TimeBased && g.TargetDate != nil {
		days := g.TargetDate.Sub(g.CreatedAt).Hours() / 24
		switch {
		case days <= 30:
			return "day"
		case days <= 180:
			return "week"
		default:
			return "month"
		}
	}
	if g.DepositFrequency != nil {
		switch *g.DepositFrequency {
		case models.FrequencyWeekly:
			return "week"
		case models.FrequencyMonthly:
			return "month"
		case models.FrequencyCustom:
			if g.CustomIntervalDays != nil {
				switch {
				case *g.CustomIntervalDays <= 7:
					return "day"
				case *g.CustomIntervalDays <= 30:
					return "week"
				}
			}
			return "month"
		}
	}
	return "month"
}

// targetPace is the pro-rata share of the target amount a time-based goal
// should hold by t, interpolated linearly between creation and target date.
func targetPace(g *models.SavingsGoal, t time.Time) *decimal.Decimal {
	total := g.TargetDate.Sub(g.CreatedAt).Hours()
	if total <= 0 {
		zero := decimal.Zero
		return &zero
	}
	elapsed := t.Sub(g.CreatedAt).Hours()
	ratio := decimal.NewFromFloat(elapsed / total)
	pace := ratio.Mul(*g.TargetAmount)
	return &pace
}
