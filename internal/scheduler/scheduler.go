package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/Osama-Null/growmesh-API/internal/ledger"
)

// Scheduler drives recurring goal deposits. One instance runs per process;
// each cycle visits every account that has at least one eligible goal and
// lets the ledger service apply due deposits. A failure on one account is
// logged and does not stop the cycle.
type Scheduler struct {
	svc      *ledger.Service
	interval time.Duration
}

func New(svc *ledger.Service, interval time.Duration) *Scheduler {
	return &Scheduler{svc: svc, interval: interval}
}

// Run loops until ctx is cancelled. The first cycle runs immediately;
// cancellation is honored between cycles and between accounts, never in the
// middle of a fund movement.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("deposit scheduler started", "interval", s.interval.String())

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("deposit scheduler stopped")
			return
		case <-ticker.C:
			s.RunCycle(ctx)
		}
	}
}

// RunCycle performs one pass over all accounts with auto-deposit goals.
func (s *Scheduler) RunCycle(ctx context.Context) {
	accounts, err := s.svc.AutoDepositAccounts(ctx)
	if err != nil {
		slog.Error("deposit cycle: listing accounts failed", "error", err)
		return
	}

	processed := 0
	for _, id := range accounts {
		if ctx.Err() != nil {
			return
		}
		if err := s.svc.ProcessAutoDeposits(ctx, id); err != nil {
			slog.Error("deposit cycle: account failed", "account_id", id, "error", err)
			continue
		}
		processed++
	}
	if len(accounts) > 0 {
		slog.Info("deposit cycle finished", "accounts", len(accounts), "processed", processed)
	}
}
