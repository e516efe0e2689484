package ledger

import (
	"context"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

// Store is the durable holder of accounts, savings goals and transactions.
// Reads return copies; all mutation goes through Update, which serializes
// read-modify-write per account so concurrent fund movements on the same
// account never interleave.
type Store interface {
	CreateAccount(ctx context.Context, userID int64) (models.Account, error)
	AccountByUser(ctx context.Context, userID int64) (models.Account, error)
	Goal(ctx context.Context, accountID, goalID int64) (models.SavingsGoal, error)
	Goals(ctx context.Context, accountID int64) ([]models.SavingsGoal, error)
	Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error)
	GoalTransactions(ctx context.Context, accountID, goalID int64) ([]models.Transaction, error)

	// AutoDepositAccounts lists ids of accounts owning at least one
	// non-deleted in-progress goal with a recurring deposit configured.
	AutoDepositAccounts(ctx context.Context) ([]int64, error)

	// Update runs fn inside one atomic unit scoped to accountID. If fn
	// returns an error nothing is persisted. Serialization failures are
	// retried a bounded number of times before surfacing
	// ErrConcurrencyConflict.
	Update(ctx context.Context, accountID int64, fn func(u Unit) error) error
}

// Unit is the mutable view handed to Update callbacks. Mutations through the
// returned pointers plus any recorded transactions commit together or not at
// all.
type Unit interface {
	Account() *models.Account
	Goal(goalID int64) (*models.SavingsGoal, error)
	Goals() []*models.SavingsGoal
	AddGoal(g *models.SavingsGoal) error
	Record(t models.Transaction) error
}
