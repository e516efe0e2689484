package accounts

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/auth"
	"github.com/Osama-Null/growmesh-API/internal/ledger"
	"github.com/Osama-Null/growmesh-API/internal/models"
)

func GetInfoHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		acct, err := svc.Account(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		goals, err := svc.Goals(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		saved := decimal.Zero
		for _, g := range goals {
			saved = saved.Add(g.CurrentAmount)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"account_id":  acct.ID,
			"balance":     acct.Balance,
			"total_saved": saved,
			"goal_count":  len(goals),
			"created_at":  acct.CreatedAt,
		})
	}
}

func DepositHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		acct, err := svc.Deposit(r.Context(), uid, body.Amount)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"account_id": acct.ID,
			"balance":    acct.Balance,
		})
	}
}

func WithdrawHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		acct, err := svc.Withdraw(r.Context(), uid, body.Amount)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"account_id": acct.ID,
			"balance":    acct.Balance,
		})
	}
}

func GetTransactionsHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		txns, err := svc.Transactions(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transactionViews(txns))
	}
}

func GetTransactionsByGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		goalID, err := strconv.ParseInt(r.PathValue("goalId"), 10, 64)
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}

		txns, err := svc.GoalTransactions(r.Context(), uid, goalID)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(transactionViews(txns))
	}
}

func transactionViews(txns []models.Transaction) []map[string]any {
	out := make([]map[string]any, 0, len(txns))
	for _, t := range txns {
		v := map[string]any{
			"id":     t.ID,
			"amount": t.Amount,
			"type":   t.Type,
			"date":   t.Date,
		}
		if t.GoalID != nil {
			v["goal_id"] = *t.GoalID
		}
		out = append(out, v)
	}
	return out
}
