package goals

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
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestMux(t *testing.T) (*http.ServeMux, *ledger.Service) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := ledger.NewService(ledger.NewMemoryStore(), clock)
	_, err := svc.CreateAccount(t.Context(), 1)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("POST /savings-goals/create", CreateGoalHandler(svc))
	mux.Handle("GET /savings-goals/get-all", GetAllGoalsHandler(svc))
	mux.Handle("GET /savings-goals/get/{id}", GetGoalHandler(svc))
	mux.Handle("PUT /savings-goals/update/{id}", UpdateGoalHandler(svc))
	mux.Handle("DELETE /savings-goals/delete/{id}", DeleteGoalHandler(svc))
	mux.Handle("POST /savings-goals/deposit/{id}", DepositToGoalHandler(svc))
	mux.Handle("POST /savings-goals/withdraw/{id}", WithdrawFromGoalHandler(svc))
	mux.Handle("POST /savings-goals/unlock/{id}", UnlockGoalHandler(svc))
	mux.Handle("POST /savings-goals/mark-as-done/{id}", MarkAsDoneHandler(svc))
	mux.Handle("GET /savings-goals/savings-trend", SavingsTrendHandler(svc))
	mux.Handle("GET /savings-goals/trend/{id}", GoalTrendHandler(svc))
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

func fundAccount(t *testing.T, svc *ledger.Service, amount string) {
	t.Helper()
	_, err := svc.Deposit(t.Context(), 1, mustDecimal(amount))
	require.NoError(t, err)
}

func TestCreateGoalEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/savings-goals/create",
		`{"name":"laptop","lock_type":"amount_based","target_amount":"500"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var got GoalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "laptop", got.Name)
	assert.Equal(t, "in_progress", string(got.Status))
	require.NotNil(t, got.TargetAmount)
	assert.True(t, got.TargetAmount.Equal(mustDecimal("500")))
}

func TestCreateGoalEndpointRejectsBadConfig(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/savings-goals/create",
		`{"name":"broken","lock_type":"amount_based"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/savings-goals/create", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoalDepositAndWithdrawEndpoints(t *testing.T) {
	mux, svc := newTestMux(t)
	fundAccount(t, svc, "200")

	rec := doJSON(t, mux, http.MethodPost, "/savings-goals/create",
		`{"name":"bike","lock_type":"amount_based","target_amount":"100"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var g GoalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))

	rec = doJSON(t, mux, http.MethodPost, "/savings-goals/deposit/1", `{"amount":"60"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.True(t, g.CurrentAmount.Equal(mustDecimal("60")))

	// Still locked: the target is not reached.
	rec = doJSON(t, mux, http.MethodPost, "/savings-goals/withdraw/1", `{"amount":"10"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Overshooting deposit caps at the target and flips the goal.
	rec = doJSON(t, mux, http.MethodPost, "/savings-goals/deposit/1", `{"amount":"100"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.True(t, g.CurrentAmount.Equal(mustDecimal("100")))
	assert.Equal(t, "mark_done", string(g.Status))

	rec = doJSON(t, mux, http.MethodPost, "/savings-goals/mark-as-done/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, "completed", string(g.Status))
	assert.True(t, g.CurrentAmount.IsZero())
}

func TestGoalUnlockEndpoint(t *testing.T) {
	mux, svc := newTestMux(t)
	fundAccount(t, svc, "100")

	rec := doJSON(t, mux, http.MethodPost, "/savings-goals/create",
		`{"name":"locked","lock_type":"amount_based","target_amount":"300","initial_payment":"50"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPost, "/savings-goals/unlock/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var g GoalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, "unlocked", string(g.Status))
	assert.True(t, g.CurrentAmount.IsZero())

	rec = doJSON(t, mux, http.MethodPost, "/savings-goals/unlock/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGoalEndpointsHandleMissingGoal(t *testing.T) {
	mux, _ := newTestMux(t)

	assert.Equal(t, http.StatusNotFound, doJSON(t, mux, http.MethodGet, "/savings-goals/get/42", "").Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, mux, http.MethodPost, "/savings-goals/unlock/42", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, mux, http.MethodGet, "/savings-goals/get/abc", "").Code)
}

func TestDeleteGoalEndpoint(t *testing.T) {
	mux, svc := newTestMux(t)
	fundAccount(t, svc, "100")

	rec := doJSON(t, mux, http.MethodPost, "/savings-goals/create",
		`{"name":"gone","lock_type":"amount_based","target_amount":"300","initial_payment":"30"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/savings-goals/delete/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/savings-goals/delete/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/savings-goals/get-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var gs []GoalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &gs))
	assert.Empty(t, gs)
}

func TestUpdateGoalEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/savings-goals/create",
		`{"name":"old","lock_type":"amount_based","target_amount":"300"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodPut, "/savings-goals/update/1",
		`{"name":"new","emoji":"🌱"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var g GoalView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	assert.Equal(t, "new", g.Name)
	assert.Equal(t, "🌱", g.Emoji)
}

func TestSavingsTrendEndpoint(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodGet, "/savings-goals/savings-trend?period_type=month&periods=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		PeriodType string            `json:"period_type"`
		Points     []json.RawMessage `json:"points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "month", body.PeriodType)
	assert.Len(t, body.Points, 3)

	rec = doJSON(t, mux, http.MethodGet, "/savings-goals/savings-trend?period_type=century", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doJSON(t, mux, http.MethodGet, "/savings-goals/savings-trend?periods=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodGet, "/savings-goals/get-all", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
