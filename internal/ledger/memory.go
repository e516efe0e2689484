package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

// MemoryStore keeps the whole ledger in process memory: an arena of accounts
// keyed by id, each with its goals and an append-only transaction log.
// Per-account mutual exclusion comes from one mutex per account held for the
// duration of an Update.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[int64]*memAccount
	byUser   map[int64]int64

	nextAccountID int64
	nextGoalID    int64
	nextTxID      int64
}

type memAccount struct {
	mu      sync.Mutex
	account models.Account
	goals   map[int64]*models.SavingsGoal
	txns    []models.Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[int64]*memAccount),
		byUser:   make(map[int64]int64),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, userID int64) (models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUser[userID]; exists {
		return models.Account{}, fmt.Errorf("account for user %d already exists", userID)
	}

	s.nextAccountID++
	acc := models.Account{ID: s.nextAccountID, UserID: userID, CreatedAt: time.Now().UTC()}
	s.accounts[acc.ID] = &memAccount{
		account: acc,
		goals:   make(map[int64]*models.SavingsGoal),
	}
	s.byUser[userID] = acc.ID
	return acc, nil
}

func (s *MemoryStore) AccountByUser(ctx context.Context, userID int64) (models.Account, error) {
	s.mu.RLock()
	id, ok := s.byUser[userID]
	s.mu.RUnlock()
	if !ok {
		return models.Account{}, fmt.Errorf("account for user %d: %w", userID, ErrNotFound)
	}
	ma := s.get(id)
	ma.mu.Lock()
	defer ma.mu.Unlock()
	return ma.account, nil
}

func (s *MemoryStore) Goal(ctx context.Context, accountID, goalID int64) (models.SavingsGoal, error) {
	ma := s.get(accountID)
	if ma == nil {
		return models.SavingsGoal{}, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	ma.mu.Lock()
	defer ma.mu.Unlock()
	g, ok := ma.goals[goalID]
	if !ok {
		return models.SavingsGoal{}, fmt.Errorf("savings goal %d: %w", goalID, ErrNotFound)
	}
	return cloneGoal(g), nil
}

func (s *MemoryStore) Goals(ctx context.Context, accountID int64) ([]models.SavingsGoal, error) {
	ma := s.get(accountID)
	if ma == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	ma.mu.Lock()
	defer ma.mu.Unlock()

	out := make([]models.SavingsGoal, 0, len(ma.goals))
	for _, g := range ma.goals {
		out = append(out, cloneGoal(g))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	ma := s.get(accountID)
	if ma == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	ma.mu.Lock()
	defer ma.mu.Unlock()
	out := make([]models.Transaction, len(ma.txns))
	copy(out, ma.txns)
	return out, nil
}

func (s *MemoryStore) GoalTransactions(ctx context.Context, accountID, goalID int64) ([]models.Transaction, error) {
	ma := s.get(accountID)
	if ma == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}
	ma.mu.Lock()
	defer ma.mu.Unlock()
	var out []models.Transaction
	for _, t := range ma.txns {
		if t.GoalID != nil && *t.GoalID == goalID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) AutoDepositAccounts(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []int64
	for _, id := range ids {
		ma := s.get(id)
		ma.mu.Lock()
		for _, g := range ma.goals {
			if !g.Deleted() && g.Status == models.StatusInProgress && g.HasAutoDeposit() {
				out = append(out, id)
				break
			}
		}
		ma.mu.Unlock()
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, accountID int64, fn func(u Unit) error) error {
	ma := s.get(accountID)
	if ma == nil {
		return fmt.Errorf("account %d: %w", accountID, ErrNotFound)
	}

	ma.mu.Lock()
	defer ma.mu.Unlock()

	u := &memUnit{store: s, src: ma}
	u.account = ma.account
	u.goals = make(map[int64]*models.SavingsGoal, len(ma.goals))
	for id, g := range ma.goals {
		c := cloneGoal(g)
		u.goals[id] = &c
	}

	if err := fn(u); err != nil {
		return err
	}

	// Commit: swap in the mutated copies and append recorded transactions.
	ma.account = u.account
	ma.goals = u.goals
	ma.txns = append(ma.txns, u.pending...)
	return nil
}

func (s *MemoryStore) get(accountID int64) *memAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[accountID]
}

func cloneGoal(g *models.SavingsGoal) models.SavingsGoal {
	c := *g
	if g.TargetAmount != nil {
		v := *g.TargetAmount
		c.TargetAmount = &v
	}
	if g.TargetDate != nil {
		v := *g.TargetDate
		c.TargetDate = &v
	}
	if g.DepositAmount != nil {
		v := *g.DepositAmount
		c.DepositAmount = &v
	}
	if g.DepositFrequency != nil {
		v := *g.DepositFrequency
		c.DepositFrequency = &v
	}
	if g.CustomIntervalDays != nil {
		v := *g.CustomIntervalDays
		c.CustomIntervalDays = &v
	}
	if g.LastDepositDate != nil {
		v := *g.LastDepositDate
		c.LastDepositDate = &v
	}
	if g.CompletedAt != nil {
		v := *g.CompletedAt
		c.CompletedAt = &v
	}
	if g.DeletedAt != nil {
		v := *g.DeletedAt
		c.DeletedAt = &v
	}
	return c
}

type memUnit struct {
	store   *MemoryStore
	src     *memAccount
	account models.Account
	goals   map[int64]*models.SavingsGoal
	pending []models.Transaction
}

func (u *memUnit) Account() *models.Account { return &u.account }

func (u *memUnit) Goal(goalID int64) (*models.SavingsGoal, error) {
	g, ok := u.goals[goalID]
	if !ok {
		return nil, fmt.Errorf("savings goal %d: %w", goalID, ErrNotFound)
	}
	return g, nil
}

func (u *memUnit) Goals() []*models.SavingsGoal {
	out := make([]*models.SavingsGoal, 0, len(u.goals))
	for _, g := range u.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (u *memUnit) AddGoal(g *models.SavingsGoal) error {
	u.store.mu.Lock()
	u.store.nextGoalID++
	g.ID = u.store.nextGoalID
	u.store.mu.Unlock()

	g.AccountID = u.account.ID
	u.goals[g.ID] = g
	return nil
}

func (u *memUnit) Record(t models.Transaction) error {
	u.store.mu.Lock()
	u.store.nextTxID++
	t.ID = u.store.nextTxID
	u.store.mu.Unlock()

	t.AccountID = u.account.ID
	u.pending = append(u.pending, t)
	return nil
}
