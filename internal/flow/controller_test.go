package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/session"
	"github.com/Veraticus/mindspend/internal/testutil"
)

func guestSession(t *testing.T, withProfile bool) *session.Session {
	t.Helper()
	ctx := context.Background()
	s, err := session.New(ctx, session.Config{Device: testutil.SetupDeviceStore(t)})
	require.NoError(t, err)
	require.NoError(t, s.ContinueAsGuest(ctx))
	if withProfile {
		require.NoError(t, s.SaveProfile(ctx, testutil.Profile(testutil.WithEmergencyGoal(50000))))
	}
	return s
}

func listRecords(t *testing.T, s *session.Session) []model.PurchaseRecord {
	t.Helper()
	store, err := s.Records()
	require.NoError(t, err)
	records, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	return records
}

func runCheck(t *testing.T, c *Controller, price float64, label string) {
	t.Helper()
	require.NoError(t, c.SubmitPrice(price, label, model.CategoryTech))
	assert.Equal(t, StepCoolOff, c.Step())
	require.NoError(t, c.CompleteCoolOff())
	assert.Equal(t, StepResults, c.Step())
}

func TestController_StartsFromSession(t *testing.T) {
	signedOut, err := session.New(context.Background(), session.Config{Device: testutil.SetupDeviceStore(t)})
	require.NoError(t, err)
	assert.Equal(t, StepWelcome, NewController(signedOut).Step())

	assert.Equal(t, StepSetup, NewController(guestSession(t, false)).Step())
	assert.Equal(t, StepPrice, NewController(guestSession(t, true)).Step())
}

func TestController_OnboardingToPrice(t *testing.T) {
	ctx := context.Background()
	s, err := session.New(ctx, session.Config{Device: testutil.SetupDeviceStore(t)})
	require.NoError(t, err)
	c := NewController(s)

	c.GetStarted()
	assert.Equal(t, StepAuth, c.Step())

	require.NoError(t, s.ContinueAsGuest(ctx))
	c.AuthSucceeded()
	assert.Equal(t, StepSetup, c.Step())

	require.Error(t, c.CompleteSetup(ctx, model.Profile{}))
	assert.Equal(t, StepSetup, c.Step())

	require.NoError(t, c.CompleteSetup(ctx, testutil.Profile()))
	assert.Equal(t, StepPrice, c.Step())
}

func TestController_SavesOncePerResultsView(t *testing.T) {
	s := guestSession(t, true)
	c := NewController(s)
	ctx := context.Background()

	runCheck(t, c, 1000, "phone")

	first, err := c.Results(ctx)
	require.NoError(t, err)
	assert.True(t, first.Saved)
	assert.NotEmpty(t, first.RecordID)
	assert.Equal(t, "50h", first.Result.WorkTime)

	// Re-rendering the same results view does not save again.
	again, err := c.Results(ctx)
	require.NoError(t, err)
	assert.False(t, again.Saved)
	assert.Len(t, listRecords(t, s), 1)

	records := listRecords(t, s)
	assert.Equal(t, model.DecisionUndecided, records[0].Decision)
	assert.Equal(t, 3000, records[0].Calculations.TimeInMinutes)
	assert.Equal(t, model.CategoryTech, records[0].Category)

	// A new activation with the same price and label is a new check.
	c.NewPrice()
	assert.Nil(t, c.Check())
	runCheck(t, c, 1000, "phone")
	next, err := c.Results(ctx)
	require.NoError(t, err)
	assert.True(t, next.Saved)
	assert.Len(t, listRecords(t, s), 2)
}

func TestController_HistoryViewNeverSaves(t *testing.T) {
	s := guestSession(t, true)
	c := NewController(s)
	ctx := context.Background()

	runCheck(t, c, 40, "shoes")
	_, err := c.Results(ctx)
	require.NoError(t, err)
	records := listRecords(t, s)
	require.Len(t, records, 1)

	c.OpenInsights()
	c.ViewHistory(records[0])
	assert.True(t, c.State().ViewingHistory)

	out, err := c.Results(ctx)
	require.NoError(t, err)
	assert.False(t, out.Saved)
	assert.Equal(t, "shoes", out.Result.Label)
	assert.Len(t, listRecords(t, s), 1)

	c.NewPrice()
	assert.False(t, c.State().ViewingHistory)
}

func TestController_CancelCoolOff(t *testing.T) {
	s := guestSession(t, true)
	c := NewController(s)

	require.NoError(t, c.SubmitPrice(15, "", ""))
	assert.Equal(t, model.CategoryOther, c.Check().Category)
	c.CancelCoolOff()
	assert.Equal(t, StepPrice, c.Step())

	assert.ErrorIs(t, c.CompleteCoolOff(), ErrWrongStep)
	assert.Empty(t, listRecords(t, s))
}

func TestController_RejectsInvalidPrice(t *testing.T) {
	c := NewController(guestSession(t, true))

	assert.ErrorIs(t, c.SubmitPrice(0, "x", ""), model.ErrInvalidPrice)
	assert.ErrorIs(t, c.SubmitPrice(-3, "x", ""), model.ErrInvalidPrice)
	assert.ErrorIs(t, c.SubmitPrice(3, "x", "boats"), model.ErrInvalidCategory)
	assert.Equal(t, StepPrice, c.Step())
}

func TestController_LogoAndReset(t *testing.T) {
	s := guestSession(t, true)
	c := NewController(s)

	c.OpenProfile()
	assert.Equal(t, StepProfile, c.Step())
	c.LogoReset()
	assert.Equal(t, StepPrice, c.Step())

	c.ResetSettings()
	assert.Equal(t, StepWelcome, c.Step())
	assert.False(t, s.HasProfile())

	c.LogoReset()
	assert.Equal(t, StepSetup, c.Step())
}
