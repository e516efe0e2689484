package ledger

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Osama-Null/growmesh-API/internal/models"
)

func strp(s string) *string { return &s }

func intp(i int) *int { return &i }

func TestCreateGoalValidation(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	future := clock.Now().AddDate(0, 1, 0)

	cases := []struct {
		name   string
		params CreateGoalParams
	}{
		{"missing name", CreateGoalParams{LockType: models.AmountBased, TargetAmount: dptr("10")}},
		{"name too long", CreateGoalParams{Name: strings.Repeat("x", 101), LockType: models.AmountBased, TargetAmount: dptr("10")}},
		{"description too long", CreateGoalParams{Name: "g", Description: strings.Repeat("x", 501), LockType: models.AmountBased, TargetAmount: dptr("10")}},
		{"bad lock type", CreateGoalParams{Name: "g", LockType: "forever", TargetAmount: dptr("10")}},
		{"amount goal without target", CreateGoalParams{Name: "g", LockType: models.AmountBased}},
		{"amount goal with zero target", CreateGoalParams{Name: "g", LockType: models.AmountBased, TargetAmount: dptr("0")}},
		{"amount goal with date", CreateGoalParams{Name: "g", LockType: models.AmountBased, TargetAmount: dptr("10"), TargetDate: tptr(future)}},
		{"time goal without date", CreateGoalParams{Name: "g", LockType: models.TimeBased}},
		{"time goal with past date", CreateGoalParams{Name: "g", LockType: models.TimeBased, TargetDate: tptr(clock.Now().AddDate(0, 0, -1))}},
		{"time goal with amount", CreateGoalParams{Name: "g", LockType: models.TimeBased, TargetDate: tptr(future), TargetAmount: dptr("10")}},
		{"frequency without amount", CreateGoalParams{Name: "g", LockType: models.TimeBased, TargetDate: tptr(future), DepositFrequency: fptr(models.FrequencyWeekly)}},
		{"amount without frequency", CreateGoalParams{Name: "g", LockType: models.TimeBased, TargetDate: tptr(future), DepositAmount: dptr("5")}},
		{"custom without interval", CreateGoalParams{Name: "g", LockType: models.TimeBased, TargetDate: tptr(future), DepositAmount: dptr("5"), DepositFrequency: fptr(models.FrequencyCustom)}},
		{"both initial payments", CreateGoalParams{Name: "g", LockType: models.TimeBased, TargetDate: tptr(future), DepositAmount: dptr("5"), DepositFrequency: fptr(models.FrequencyWeekly), InitialPayment: dptr("5"), InitialAutoDeposit: true}},
		{"initial auto without amount", CreateGoalParams{Name: "g", LockType: models.TimeBased, TargetDate: tptr(future), InitialAutoDeposit: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateGoal(ctx, testUser, tc.params)
			assert.ErrorIs(t, err, ErrConfigurationInvalid)
		})
	}
}

func TestCreateGoalInitialPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "100")

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalParams{
		Name:           "seeded",
		LockType:       models.AmountBased,
		TargetAmount:   dptr("200"),
		InitialPayment: dptr("40"),
	})
	require.NoError(t, err)
	assert.True(t, g.CurrentAmount.Equal(d("40")))

	txns, err := svc.GoalTransactions(ctx, testUser, g.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TxTransferToGoal, txns[0].Type)

	acct, err := svc.Account(ctx, testUser)
	require.NoError(t, err)
	assert.True(t, acct.Balance.Equal(d("60")))

	// Uncovered initial payments fail the whole creation.
	_, err = svc.CreateGoal(ctx, testUser, CreateGoalParams{
		Name:           "too big",
		LockType:       models.AmountBased,
		TargetAmount:   dptr("500"),
		InitialPayment: dptr("400"),
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	gs, err := svc.Goals(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, gs, 1, "failed creation leaves no goal behind")
}

func TestCreateGoalInitialAutoDeposit(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "100")

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalParams{
		Name:               "auto seeded",
		LockType:           models.TimeBased,
		TargetDate:         tptr(clock.Now().AddDate(0, 6, 0)),
		DepositAmount:      dptr("15"),
		DepositFrequency:   fptr(models.FrequencyMonthly),
		InitialAutoDeposit: true,
	})
	require.NoError(t, err)
	assert.True(t, g.CurrentAmount.Equal(d("15")))
	require.NotNil(t, g.LastDepositDate)
	assert.True(t, g.LastDepositDate.Equal(clock.Now()))
}

func TestUpdateGoal(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "100")

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalParams{
		Name:         "start",
		LockType:     models.AmountBased,
		TargetAmount: dptr("100"),
	})
	require.NoError(t, err)
	_, err = svc.TransferToGoal(ctx, testUser, g.ID, d("50"))
	require.NoError(t, err)

	g, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{
		Name:        strp("renamed"),
		Description: strp("new description"),
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", g.Name)
	assert.Equal(t, "new description", g.Description)

	// Targets can only move in their own lock type's dimension.
	_, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{TargetDate: tptr(clock.Now().AddDate(0, 1, 0))})
	assert.ErrorIs(t, err, ErrConfigurationInvalid)
	_, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{TargetAmount: dptr("40")})
	assert.ErrorIs(t, err, ErrConfigurationInvalid, "target cannot drop below the saved amount")

	g, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{TargetAmount: dptr("80")})
	require.NoError(t, err)
	assert.True(t, g.TargetAmount.Equal(d("80")))
}

func TestUpdateGoalRecurringConfig(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "100")

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalParams{
		Name:         "cfg",
		LockType:     models.AmountBased,
		TargetAmount: dptr("300"),
	})
	require.NoError(t, err)

	_, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{DepositFrequency: strp("weekly")})
	assert.ErrorIs(t, err, ErrConfigurationInvalid, "frequency needs an amount")

	g, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{
		DepositFrequency:   strp("custom"),
		DepositAmount:      dptr("10"),
		CustomIntervalDays: intp(3),
	})
	require.NoError(t, err)
	require.NotNil(t, g.DepositFrequency)
	assert.Equal(t, models.FrequencyCustom, *g.DepositFrequency)
	require.NotNil(t, g.CustomIntervalDays)
	assert.Equal(t, 3, *g.CustomIntervalDays)
	require.NotNil(t, g.LastDepositDate)
	assert.True(t, g.LastDepositDate.Equal(clock.Now()))

	g, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{DepositFrequency: strp(FrequencyDisabled)})
	require.NoError(t, err)
	assert.Nil(t, g.DepositAmount)
	assert.Nil(t, g.DepositFrequency)
	assert.Nil(t, g.CustomIntervalDays)
	assert.Nil(t, g.LastDepositDate)

	_, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{DepositFrequency: strp("hourly")})
	assert.ErrorIs(t, err, ErrConfigurationInvalid)
}

func TestUpdateGoalOnlyWhileInProgress(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "100")

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalParams{
		Name:         "done soon",
		LockType:     models.AmountBased,
		TargetAmount: dptr("20"),
	})
	require.NoError(t, err)
	_, err = svc.TransferToGoal(ctx, testUser, g.ID, d("20"))
	require.NoError(t, err)

	_, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{Name: strp("renamed")})
	assert.ErrorIs(t, err, ErrGoalNotMutable)
}

func TestUpdateGoalTimeBasedDate(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()

	g, err := svc.CreateGoal(ctx, testUser, CreateGoalParams{
		Name:       "dated",
		LockType:   models.TimeBased,
		TargetDate: tptr(clock.Now().AddDate(0, 1, 0)),
	})
	require.NoError(t, err)

	_, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{TargetDate: tptr(clock.Now().Add(-time.Hour))})
	assert.ErrorIs(t, err, ErrConfigurationInvalid)

	newDate := clock.Now().AddDate(0, 3, 0)
	g, err = svc.UpdateGoal(ctx, testUser, g.ID, UpdateGoalParams{TargetDate: tptr(newDate)})
	require.NoError(t, err)
	require.NotNil(t, g.TargetDate)
	assert.True(t, g.TargetDate.Equal(newDate))
}
