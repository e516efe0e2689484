package accounts

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Osama-Null/growmesh-API/internal/auth"
	"github.com/Osama-Null/growmesh-API/internal/ledger"
	"github.com/Osama-Null/growmesh-API/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestMux(t *testing.T) (*http.ServeMux, *ledger.Service) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := ledger.NewService(ledger.NewMemoryStore(), clock)
	_, err := svc.CreateAccount(t.Context(), 1)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("GET /account/get-info", GetInfoHandler(svc))
	mux.Handle("POST /account/deposit", DepositHandler(svc))
	mux.Handle("POST /account/withdraw", WithdrawHandler(svc))
	mux.Handle("GET /transactions/get-all", GetTransactionsHandler(svc))
	mux.Handle("GET /transactions/get-by-goal/{goalId}", GetTransactionsByGoalHandler(svc))
	return mux, svc
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	req = req.WithContext(auth.WithUserID(req.Context(), 1))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestDepositAndWithdrawEndpoints(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/account/deposit", `{"amount":"150.50"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Balance decimal.Decimal `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Balance.Equal(decimal.RequireFromString("150.50")))

	rec = doJSON(t, mux, http.MethodPost, "/account/withdraw", `{"amount":"50.50"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Balance.Equal(decimal.NewFromInt(100)))

	rec = doJSON(t, mux, http.MethodPost, "/account/withdraw", `{"amount":"1000"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/account/deposit", `{"amount":"-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetInfoEndpoint(t *testing.T) {
	mux, svc := newTestMux(t)
	ctx := t.Context()

	_, err := svc.Deposit(ctx, 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	target := decimal.NewFromInt(500)
	g, err := svc.CreateGoal(ctx, 1, ledger.CreateGoalParams{
		Name:         "pot",
		LockType:     models.AmountBased,
		TargetAmount: &target,
	})
	require.NoError(t, err)
	_, err = svc.TransferToGoal(ctx, 1, g.ID, decimal.NewFromInt(40))
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/account/get-info", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Balance    decimal.Decimal `json:"balance"`
		TotalSaved decimal.Decimal `json:"total_saved"`
		GoalCount  int             `json:"goal_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Balance.Equal(decimal.NewFromInt(60)))
	assert.True(t, body.TotalSaved.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 1, body.GoalCount)
}

func TestTransactionEndpoints(t *testing.T) {
	mux, svc := newTestMux(t)
	ctx := t.Context()

	_, err := svc.Deposit(ctx, 1, decimal.NewFromInt(100))
	require.NoError(t, err)
	target := decimal.NewFromInt(500)
	g, err := svc.CreateGoal(ctx, 1, ledger.CreateGoalParams{
		Name:         "pot",
		LockType:     models.AmountBased,
		TargetAmount: &target,
	})
	require.NoError(t, err)
	_, err = svc.TransferToGoal(ctx, 1, g.ID, decimal.NewFromInt(25))
	require.NoError(t, err)

	rec := doJSON(t, mux, http.MethodGet, "/transactions/get-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 2)

	rec = doJSON(t, mux, http.MethodGet, "/transactions/get-by-goal/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var byGoal []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &byGoal))
	require.Len(t, byGoal, 1)
	assert.Equal(t, "transfer_to_goal", byGoal[0]["type"])

	rec = doJSON(t, mux, http.MethodGet, "/transactions/get-by-goal/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/transactions/get-by-goal/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountEndpointsRequireAuth(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/account/get-info", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
