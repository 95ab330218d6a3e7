package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/cloud"
	"github.com/Veraticus/mindspend/internal/identity"
	"github.com/Veraticus/mindspend/internal/storage"
	"github.com/Veraticus/mindspend/internal/testutil"
)

type fixture struct {
	device *testutil.DeviceStore
	ids    *testutil.FakeIdentity
	cloud  *testutil.FakeCloud
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		device: testutil.SetupDeviceStore(t),
		ids:    testutil.NewFakeIdentity(),
		cloud:  testutil.NewFakeCloud(),
		now:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.ids.Now = func() time.Time { return f.now }
	return f
}

func (f *fixture) config() Config {
	return Config{
		Device:   f.device,
		Identity: f.ids,
		Cloud:    f.cloud,
		Now:      func() time.Time { return f.now },
	}
}

func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	s, err := New(context.Background(), f.config())
	require.NoError(t, err)
	return s
}

func TestNew_SignedOut(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)

	assert.Equal(t, StateSignedOut, s.State())
	assert.False(t, s.HasIdentity())
	assert.Nil(t, s.User())
	assert.Nil(t, s.Profile())

	_, err := s.Records()
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.ErrorIs(t, s.SaveProfile(context.Background(), testutil.Profile()), ErrNoIdentity)
}

func TestNew_RequiresDevice(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestGuest_PersistsAcrossSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	require.NoError(t, s.ContinueAsGuest(ctx))
	assert.True(t, s.IsGuest())
	assert.Equal(t, "true", f.device.MustGet(storage.KeyGuestMode))
	assert.False(t, s.HasProfile())

	require.NoError(t, s.SaveProfile(ctx, testutil.Profile()))
	records, err := s.Records()
	require.NoError(t, err)
	_, err = records.Create(ctx, testutil.NewRecord(25, "book"))
	require.NoError(t, err)

	restored := f.open(t)
	assert.True(t, restored.IsGuest())
	require.NotNil(t, restored.Profile())
	assert.Equal(t, testutil.Profile(), *restored.Profile())

	records, err = restored.Records()
	require.NoError(t, err)
	list, err := records.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, f.now.Equal(list[0].Timestamp))
}

func TestSignOut_RemovesIdentityKeysOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	require.NoError(t, s.ContinueAsGuest(ctx))
	require.NoError(t, s.SaveProfile(ctx, testutil.Profile()))
	records, err := s.Records()
	require.NoError(t, err)
	_, err = records.Create(ctx, testutil.NewRecord(25, "book"))
	require.NoError(t, err)

	require.NoError(t, s.SignOut(ctx))
	assert.Equal(t, StateSignedOut, s.State())
	assert.Nil(t, s.Profile())
	assert.False(t, f.device.Has(storage.KeyGuestMode))
	assert.False(t, f.device.Has(storage.KeyProfile))
	assert.True(t, f.device.Has(storage.KeyPurchaseHistory))

	assert.Equal(t, StateSignedOut, f.open(t).State())
}

func TestSignUp_RequiresVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	require.NoError(t, s.SignUp(ctx, "a@example.com", "secret1"))
	assert.True(t, s.IsAuthenticated())
	assert.True(t, s.NeedsVerification())
	assert.Equal(t, 1, f.ids.Sent)
	assert.True(t, f.device.Has(storage.KeySessionToken))

	_, err := s.Records()
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, s.SendVerification(ctx))
	assert.Equal(t, 2, f.ids.Sent)

	f.ids.Verify("a@example.com")
	require.NoError(t, s.RefreshUser(ctx))
	assert.False(t, s.NeedsVerification())

	_, err = s.Records()
	require.NoError(t, err)
}

func TestSignUp_ClassifiedFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	err := s.SignUp(ctx, "a@example.com", "123")
	assert.Equal(t, identity.KindWeakSecret, identity.KindOf(err))

	require.NoError(t, s.SignUp(ctx, "a@example.com", "secret1"))
	require.NoError(t, s.SignOut(ctx))

	err = s.SignUp(ctx, "a@example.com", "secret1")
	assert.Equal(t, identity.KindEmailInUse, identity.KindOf(err))
	assert.Equal(t, StateSignedOut, s.State())

	err = s.SignIn(ctx, "a@example.com", "wrong")
	assert.Equal(t, identity.KindInvalidCredential, identity.KindOf(err))
}

func TestSignIn_RestoresAcrossSessionsWithCloudProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	require.NoError(t, s.SignInWithGoogle(ctx, "g@example.com"))
	assert.False(t, s.NeedsVerification())
	require.NoError(t, s.SaveProfile(ctx, testutil.Profile(testutil.WithFreedomGoal(50000))))

	uid := s.User().UID
	doc, err := f.cloud.GetUser(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "g@example.com", doc.Email)
	assert.False(t, f.device.Has(storage.KeyProfile))

	restored := f.open(t)
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, uid, restored.User().UID)
	require.NotNil(t, restored.Profile())
	assert.Equal(t, 50000.0, *restored.Profile().FreedomGoal)
}

func TestSignIn_ReplacesGuestMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	require.NoError(t, s.ContinueAsGuest(ctx))
	require.NoError(t, s.SaveProfile(ctx, testutil.Profile()))
	require.NoError(t, s.SignInWithGoogle(ctx, "g@example.com"))

	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.HasProfile())
	assert.False(t, f.device.Has(storage.KeyGuestMode))
}

func TestRestore_DropsExpiredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)
	require.NoError(t, s.SignInWithGoogle(ctx, "g@example.com"))

	f.now = f.now.Add(2 * time.Hour)
	restored := f.open(t)
	assert.Equal(t, StateSignedOut, restored.State())
	assert.False(t, f.device.Has(storage.KeySessionToken))
}

func TestRestore_DropsRevokedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)
	require.NoError(t, s.SignUp(ctx, "a@example.com", "secret1"))

	require.NoError(t, f.ids.DeleteAccount(ctx, s.IDToken()))

	restored := f.open(t)
	assert.Equal(t, StateSignedOut, restored.State())
	assert.False(t, f.device.Has(storage.KeySessionToken))
}

func TestRestore_CorruptSessionFallsBackToGuest(t *testing.T) {
	f := newFixture(t)
	f.device.MustSet(storage.KeySessionToken, "{not json")
	f.device.MustSet(storage.KeyGuestMode, "true")

	s := f.open(t)
	assert.True(t, s.IsGuest())
	assert.False(t, f.device.Has(storage.KeySessionToken))
}

func TestGuestOnlyConfig(t *testing.T) {
	f := newFixture(t)
	s, err := New(context.Background(), Config{Device: f.device})
	require.NoError(t, err)

	assert.False(t, s.CloudEnabled())
	assert.ErrorIs(t, s.SignIn(context.Background(), "a@example.com", "secret1"), ErrCloudUnavailable)
	require.NoError(t, s.ContinueAsGuest(context.Background()))
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	require.NoError(t, s.SignInWithGoogle(ctx, "g@example.com"))
	require.NoError(t, s.SaveProfile(ctx, testutil.Profile()))
	uid := s.User().UID

	require.NoError(t, s.DeleteAccount(ctx))
	assert.Equal(t, StateSignedOut, s.State())
	assert.False(t, f.ids.Exists("g@example.com"))
	assert.False(t, f.device.Has(storage.KeySessionToken))

	_, err := f.cloud.GetUser(ctx, uid)
	assert.ErrorIs(t, err, cloud.ErrNotFound)
}

func TestDeleteAccount_StaleSessionChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)

	require.NoError(t, s.SignInWithGoogle(ctx, "g@example.com"))
	f.ids.DeleteErr = &identity.Error{Op: "delete account", Kind: identity.KindRequiresFreshAuth, Err: errors.New("CREDENTIAL_TOO_OLD_LOGIN_AGAIN")}

	err := s.DeleteAccount(ctx)
	assert.Equal(t, identity.KindRequiresFreshAuth, identity.KindOf(err))
	assert.True(t, s.IsAuthenticated())
	assert.True(t, f.ids.Exists("g@example.com"))
	assert.True(t, f.device.Has(storage.KeySessionToken))
}

func TestUpdateGoalsAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.open(t)
	require.NoError(t, s.ContinueAsGuest(ctx))

	emergency := 10000.0
	assert.ErrorIs(t, s.UpdateGoals(ctx, &emergency, nil), ErrNoProfile)

	require.NoError(t, s.SaveProfile(ctx, testutil.Profile()))
	require.NoError(t, s.UpdateGoals(ctx, &emergency, nil))

	p := s.Profile()
	require.NotNil(t, p.EmergencyFundGoal)
	assert.Equal(t, 10000.0, *p.EmergencyFundGoal)
	assert.Nil(t, p.FreedomGoal)
	assert.Equal(t, 20.0, p.HourlyWage)

	// Mutating the returned copy leaves the session alone.
	*p.EmergencyFundGoal = 1
	assert.Equal(t, 10000.0, *s.Profile().EmergencyFundGoal)

	s.Reset()
	assert.False(t, s.HasProfile())
	assert.True(t, s.IsGuest())
}
