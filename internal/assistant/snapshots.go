package assistant

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/ledger"
	"github.com/Osama-Null/growmesh-API/internal/models"
)

// The agent service receives read-only snapshots; nothing it answers can
// mutate the ledger.

func goalSnapshot(g models.SavingsGoal) map[string]any {
	snap := map[string]any{
		"id":             g.ID,
		"name":           g.Name,
		"lock_type":      g.LockType,
		"status":         g.Status,
		"current_amount": g.CurrentAmount,
		"created_at":     g.CreatedAt,
	}
	if g.Description != "" {
		snap["description"] = g.Description
	}
	if g.TargetAmount != nil {
		snap["target_amount"] = *g.TargetAmount
	}
	if g.TargetDate != nil {
		snap["target_date"] = *g.TargetDate
	}
	if g.DepositAmount != nil && g.DepositFrequency != nil {
		snap["deposit_amount"] = *g.DepositAmount
		snap["deposit_frequency"] = *g.DepositFrequency
	}
	if g.CompletedAt != nil {
		snap["completed_at"] = *g.CompletedAt
	}
	return snap
}

func goalSnapshots(gs []models.SavingsGoal) []map[string]any {
	out := make([]map[string]any, 0, len(gs))
	for _, g := range gs {
		out = append(out, goalSnapshot(g))
	}
	return out
}

func transactionSnapshots(txns []models.Transaction) []map[string]any {
	out := make([]map[string]any, 0, len(txns))
	for _, t := range txns {
		snap := map[string]any{
			"amount": t.Amount,
			"type":   t.Type,
			"date":   t.Date,
		}
		if t.GoalID != nil {
			snap["goal_id"] = *t.GoalID
		}
		out = append(out, snap)
	}
	return out
}

func homeSnapshot(ctx context.Context, svc *ledger.Service, userID int64) (map[string]any, error) {
	acct, err := svc.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := svc.Goals(ctx, userID)
	if err != nil {
		return nil, err
	}

	saved := decimal.Zero
	for _, g := range goals {
		saved = saved.Add(g.CurrentAmount)
	}
	return map[string]any{
		"balance":     acct.Balance,
		"total_saved": saved,
		"goals":       goalSnapshots(goals),
	}, nil
}
