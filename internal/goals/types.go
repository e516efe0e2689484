package goals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

type GoalView struct {
	ID                 int64                    `json:"id"`
	Name               string                   `json:"name"`
	Description        string                   `json:"description,omitempty"`
	Emoji              string                   `json:"emoji,omitempty"`
	Color              string                   `json:"color,omitempty"`
	LockType           models.LockType          `json:"lock_type"`
	Status             models.GoalStatus        `json:"status"`
	CurrentAmount      decimal.Decimal          `json:"current_amount"`
	TargetAmount       *decimal.Decimal         `json:"target_amount,omitempty"`
	TargetDate         *time.Time               `json:"target_date,omitempty"`
	DepositAmount      *decimal.Decimal         `json:"deposit_amount,omitempty"`
	DepositFrequency   *models.DepositFrequency `json:"deposit_frequency,omitempty"`
	CustomIntervalDays *int                     `json:"custom_interval_days,omitempty"`
	LastDepositDate    *time.Time               `json:"last_deposit_date,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	CompletedAt        *time.Time               `json:"completed_at,omitempty"`
}

func newGoalView(g models.SavingsGoal) GoalView {
	return GoalView{
		ID:                 g.ID,
		Name:               g.Name,
		Description:        g.Description,
		Emoji:              g.Emoji,
		Color:              g.Color,
		LockType:           g.LockType,
		Status:             g.Status,
		CurrentAmount:      g.CurrentAmount,
		TargetAmount:       g.TargetAmount,
		TargetDate:         g.TargetDate,
		DepositAmount:      g.DepositAmount,
		DepositFrequency:   g.DepositFrequency,
		CustomIntervalDays: g.CustomIntervalDays,
		LastDepositDate:    g.LastDepositDate,
		CreatedAt:          g.CreatedAt,
		CompletedAt:        g.CompletedAt,
	}
}

func goalViews(gs []models.SavingsGoal) []GoalView {
	out := make([]GoalView, 0, len(gs))
	for _, g := range gs {
		out = append(out, newGoalView(g))
	}
	return out
}
