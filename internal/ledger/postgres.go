package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

// PostgresStore is the durable Store. Per-account serialization comes from
// row locks: every Update selects the account row FOR UPDATE, so concurrent
// fund movements on the same account queue behind each other while different
// accounts proceed in parallel. Serialization failures are retried a bounded
// number of times before surfacing ErrConcurrencyConflict.
type PostgresStore struct {
	db *sql.DB
}

const updateRetries = 3

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateAccount(ctx context.Context, userID int64) (models.Account, error) {
	var acc models.Account
	acc.UserID = userID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (user_id, balance, created_at)
		VALUES ($1, 0, now())
		RETURNING id, balance, created_at
	`, userID).Scan(&acc.ID, &acc.Balance, &acc.CreatedAt)
	if err != nil {
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}
	return acc, nil
}

func (s *PostgresStore) AccountByUser(ctx context.Context, userID int64) (models.Account, error) {
	var acc models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at
		FROM accounts
		WHERE user_id = $1
	`, userID).Scan(&acc.ID, &acc.UserID, &acc.Balance, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, fmt.Errorf("account for user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("load account: %w", err)
	}
	return acc, nil
}

const goalColumns = `
	id, account_id, name, lock_type, target_amount, target_date,
	current_amount, status, deposit_amount, deposit_frequency,
	custom_interval_days, last_deposit_date, emoji, color, description,
	created_at, completed_at, deleted_at`

func (s *PostgresStore) Goal(ctx context.Context, accountID, goalID int64) (models.SavingsGoal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+`
		FROM savings_goals
		WHERE id = $1 AND account_id = $2
	`, goalID, accountID)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SavingsGoal{}, fmt.Errorf("savings goal %d: %w", goalID, ErrNotFound)
	}
	if err != nil {
		return models.SavingsGoal{}, fmt.Errorf("load savings goal: %w", err)
	}
	return g, nil
}

func (s *PostgresStore) Goals(ctx context.Context, accountID int64) ([]models.SavingsGoal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+goalColumns+`
		FROM savings_goals
		WHERE account_id = $1
		ORDER BY id
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("load savings goals: %w", err)
	}
	defer rows.Close()

	var out []models.SavingsGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan savings goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT id, account_id, savings_goal_id, amount, type, transaction_date
		FROM transactions
		WHERE account_id = $1
		ORDER BY id
	`, accountID)
}

func (s *PostgresStore) GoalTransactions(ctx context.Context, accountID, goalID int64) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT id, account_id, savings_goal_id, amount, type, transaction_date
		FROM transactions
		WHERE account_id = $1 AND savings_goal_id = $2
		ORDER BY id
	`, accountID, goalID)
}

func (s *PostgresStore) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var goalID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.AccountID, &goalID, &t.Amount, &t.Type, &t.Date); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if goalID.Valid {
			t.GoalID = &goalID.Int64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AutoDepositAccounts(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT account_id
		FROM savings_goals
		WHERE deleted_at IS NULL
		  AND status = $1
		  AND deposit_amount IS NOT NULL
		  AND deposit_frequency IS NOT NULL
		ORDER BY account_id
	`, models.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("list auto-deposit accounts: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, accountID int64, fn func(u Unit) error) error {
	var lastErr error
	for attempt := 0; attempt < updateRetries; attempt++ {
		err := s.updateOnce(ctx, accountID, fn)
		if err == nil || !retriable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", ErrConcurrencyConflict, lastErr)
}

func (s *PostgresStore) updateOnce(ctx context.Context, accountID int64, fn func(u Unit) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	u := &pgUnit{ctx: ctx, tx: tx}
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, balance, created_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`, accountID).Scan(&u.account.ID, &u.account.UserID, &u.account.Balance, &u.account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock account: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT `+goalColumns+`
		FROM savings_goals
		WHERE account_id = $1
		ORDER BY id
		FOR UPDATE
	`, accountID)
	if err != nil {
		return fmt.Errorf("lock savings goals: %w", err)
	}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			rows.Close()
			return fmt.Errorf("scan savings goal: %w", err)
		}
		u.goals = append(u.goals, &g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if err := fn(u); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = $1 WHERE id = $2
	`, u.account.Balance, u.account.ID); err != nil {
		return fmt.Errorf("write account: %w", err)
	}
	for _, g := range u.goals {
		if err := u.writeGoal(g); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// retriable reports whether the error is a Postgres serialization failure or
// deadlock worth another attempt.
func retriable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}
	return false
}

type pgUnit struct {
	ctx     context.Context
	tx      *sql.Tx
	account models.Account
	goals   []*models.SavingsGoal
}

func (u *pgUnit) Account() *models.Account { return &u.account }

func (u *pgUnit) Goal(goalID int64) (*models.SavingsGoal, error) {
	for _, g := range u.goals {
		if g.ID == goalID {
			return g, nil
		}
	}
	return nil, fmt.Errorf("savings goal %d: %w", goalID, ErrNotFound)
}

func (u *pgUnit) Goals() []*models.SavingsGoal { return u.goals }

func (u *pgUnit) AddGoal(g *models.SavingsGoal) error {
	g.AccountID = u.account.ID
	err := u.tx.QueryRowContext(u.ctx, `
		INSERT INTO savings_goals (
			account_id, name, lock_type, target_amount, target_date,
			current_amount, status, deposit_amount, deposit_frequency,
			custom_interval_days, last_deposit_date, emoji, color,
			description, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		RETURNING id
	`,
		g.AccountID, g.Name, g.LockType, nullDecimal(g.TargetAmount), nullTime(g.TargetDate),
		g.CurrentAmount, g.Status, nullDecimal(g.DepositAmount), nullFrequency(g.DepositFrequency),
		nullInt(g.CustomIntervalDays), nullTime(g.LastDepositDate), g.Emoji, g.Color,
		g.Description, g.CreatedAt,
	).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("insert savings goal: %w", err)
	}
	u.goals = append(u.goals, g)
	return nil
}

func (u *pgUnit) Record(t models.Transaction) error {
	t.AccountID = u.account.ID
	err := u.tx.QueryRowContext(u.ctx, `
		INSERT INTO transactions (account_id, savings_goal_id, amount, type, transaction_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, t.AccountID, nullID(t.GoalID), t.Amount, t.Type, t.Date).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (u *pgUnit) writeGoal(g *models.SavingsGoal) error {
	_, err := u.tx.ExecContext(u.ctx, `
		UPDATE savings_goals SET
			name = $1, target_amount = $2, target_date = $3,
			current_amount = $4, status = $5, deposit_amount = $6,
			deposit_frequency = $7, custom_interval_days = $8,
			last_deposit_date = $9, emoji = $10, color = $11,
			description = $12, completed_at = $13, deleted_at = $14
		WHERE id = $15
	`,
		g.Name, nullDecimal(g.TargetAmount), nullTime(g.TargetDate),
		g.CurrentAmount, g.Status, nullDecimal(g.DepositAmount),
		nullFrequency(g.DepositFrequency), nullInt(g.CustomIntervalDays),
		nullTime(g.LastDepositDate), g.Emoji, g.Color,
		g.Description, nullTime(g.CompletedAt), nullTime(g.DeletedAt),
		g.ID,
	)
	if err != nil {
		return fmt.Errorf("write savings goal: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (models.SavingsGoal, error) {
	var (
		g            models.SavingsGoal
		targetAmount decimal.NullDecimal
		targetDate   sql.NullTime
		depositAmt   decimal.NullDecimal
		frequency    sql.NullString
		customDays   sql.NullInt64
		lastDeposit  sql.NullTime
		completedAt  sql.NullTime
		deletedAt    sql.NullTime
	)
	err := row.Scan(
		&g.ID, &g.AccountID, &g.Name, &g.LockType, &targetAmount, &targetDate,
		&g.CurrentAmount, &g.Status, &depositAmt, &frequency,
		&customDays, &lastDeposit, &g.Emoji, &g.Color, &g.Description,
		&g.CreatedAt, &completedAt, &deletedAt,
	)
	if err != nil {
		return models.SavingsGoal{}, err
	}
	if targetAmount.Valid {
		g.TargetAmount = &targetAmount.Decimal
	}
	if targetDate.Valid {
		g.TargetDate = &targetDate.Time
	}
	if depositAmt.Valid {
		g.DepositAmount = &depositAmt.Decimal
	}
	if frequency.Valid {
		f := models.DepositFrequency(frequency.String)
		g.DepositFrequency = &f
	}
	if customDays.Valid {
		d := int(customDays.Int64)
		g.CustomIntervalDays = &d
	}
	if lastDeposit.Valid {
		g.LastDepositDate = &lastDeposit.Time
	}
	if completedAt.Valid {
		g.CompletedAt = &completedAt.Time
	}
	if deletedAt.Valid {
		g.DeletedAt = &deletedAt.Time
	}
	return g, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullID(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func nullFrequency(f *models.DepositFrequency) sql.NullString {
	if f == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*f), Valid: true}
}
