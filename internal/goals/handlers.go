package goals

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Osama-Null/growmesh-API/internal/auth"
	"github.com/Osama-Null/growmesh-API/internal/ledger"
	"github.com/Osama-Null/growmesh-API/internal/models"
)

func requestUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return uid, ok
}

func pathGoalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid goal id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

type createGoalBody struct {
	Name               string           `json:"name"`
	LockType           string           `json:"lock_type"`
	TargetAmount       *decimal.Decimal `json:"target_amount"`
	TargetDate         *time.Time       `json:"target_date"`
	DepositAmount      *decimal.Decimal `json:"deposit_amount"`
	DepositFrequency   *string          `json:"deposit_frequency"`
	CustomIntervalDays *int             `json:"custom_interval_days"`
	Emoji              string           `json:"emoji"`
	Color              string           `json:"color"`
	Description        string           `json:"description"`
	InitialPayment     *decimal.Decimal `json:"initial_payment"`
	InitialAutoDeposit bool             `json:"initial_auto_deposit"`
}

func CreateGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}

		var body createGoalBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		p := ledger.CreateGoalParams{
			Name:               body.Name,
			LockType:           models.LockType(body.LockType),
			TargetAmount:       body.TargetAmount,
			TargetDate:         body.TargetDate,
			DepositAmount:      body.DepositAmount,
			CustomIntervalDays: body.CustomIntervalDays,
			Emoji:              body.Emoji,
			Color:              body.Color,
			Description:        body.Description,
			InitialPayment:     body.InitialPayment,
			InitialAutoDeposit: body.InitialAutoDeposit,
		}
		if body.DepositFrequency != nil {
			f := models.DepositFrequency(*body.DepositFrequency)
			p.DepositFrequency = &f
		}

		g, err := svc.CreateGoal(r.Context(), uid, p)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(newGoalView(g))
	}
}

func GetAllGoalsHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}

		gs, err := svc.Goals(r.Context(), uid)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goalViews(gs))
	}
}

func GetGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		g, err := svc.Goal(r.Context(), uid, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newGoalView(g))
	}
}

type updateGoalBody struct {
	Name               *string          `json:"name"`
	TargetAmount       *decimal.Decimal `json:"target_amount"`
	TargetDate         *time.Time       `json:"target_date"`
	DepositAmount      *decimal.Decimal `json:"deposit_amount"`
	DepositFrequency   *string          `json:"deposit_frequency"`
	CustomIntervalDays *int             `json:"custom_interval_days"`
	Emoji              *string          `json:"emoji"`
	Color              *string          `json:"color"`
	Description        *string          `json:"description"`
}

func UpdateGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		var body updateGoalBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.UpdateGoal(r.Context(), uid, id, ledger.UpdateGoalParams{
			Name:               body.Name,
			TargetAmount:       body.TargetAmount,
			TargetDate:         body.TargetDate,
			DepositAmount:      body.DepositAmount,
			DepositFrequency:   body.DepositFrequency,
			CustomIntervalDays: body.CustomIntervalDays,
			Emoji:              body.Emoji,
			Color:              body.Color,
			Description:        body.Description,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newGoalView(g))
	}
}

func DeleteGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		g, err := svc.DeleteGoal(r.Context(), uid, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":       true,
			"goal_id":  g.ID,
			"returned": g.CurrentAmount.IsZero(),
		})
	}
}

func DepositToGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.TransferToGoal(r.Context(), uid, id, body.Amount)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newGoalView(g))
	}
}

func WithdrawFromGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		var body struct {
			Amount decimal.Decimal `json:"amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		g, err := svc.TransferFromGoal(r.Context(), uid, id, body.Amount)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newGoalView(g))
	}
}

func UnlockGoalHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		g, err := svc.Unlock(r.Context(), uid, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newGoalView(g))
	}
}

func MarkAsDoneHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		g, err := svc.MarkAsDone(r.Context(), uid, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(newGoalView(g))
	}
}

func SavingsTrendHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}

		periodType := r.URL.Query().Get("period_type")
		if periodType == "" {
			periodType = "month"
		}
		periods := 6
		if raw := r.URL.Query().Get("periods"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "periods must be a positive integer", http.StatusBadRequest)
				return
			}
			periods = n
		}

		points, err := svc.SavingsTrend(r.Context(), uid, periodType, periods)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"period_type": periodType,
			"points":      points,
		})
	}
}

func GoalTrendHandler(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := requestUser(w, r)
		if !ok {
			return
		}
		id, ok := pathGoalID(w, r)
		if !ok {
			return
		}

		periods := 6
		if raw := r.URL.Query().Get("periods"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "periods must be a positive integer", http.StatusBadRequest)
				return
			}
			periods = n
		}

		trend, err := svc.GoalTrend(r.Context(), uid, id, periods)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"period_type": trend.PeriodType,
			"points":      trend.Points,
		})
	}
}
