// Package session holds the explicit per-user context: who is signed in, the
// current profile, and the record and profile stores chosen for that identity.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/mindspend/internal/history"
	"github.com/Veraticus/mindspend/internal/identity"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/storage"
)

// State is the identity state of a session.
type State string

// Session states.
const (
	StateSignedOut     State = "signed_out"
	StateGuest         State = "guest"
	StateAuthenticated State = "authenticated"
)

// Session errors.
var (
	ErrCloudUnavailable = errors.New("account features are not configured")
	ErrNoIdentity       = errors.New("no signed-in user or guest session")
	ErrNoProfile        = errors.New("profile is not set up")
	ErrNotAuthenticated = errors.New("not signed in to an account")
	ErrEmailNotVerified = errors.New("email address is not verified yet")
)

// CloudDB is the cloud document store as the session uses it.
type CloudDB interface {
	history.PurchaseDB
	history.UserDB
	DeleteUser(ctx context.Context, uid string) error
}

// Config wires a session to its backends. Only Device is required; without
// Identity and Cloud the session supports guest mode only.
type Config struct {
	Device   storage.KeyValueStore
	Identity identity.Provider
	Cloud    CloudDB
	Cache    history.ProfileCache
	Logger   *slog.Logger
	Now      func() time.Time
}

// Session is one user's context. It is not safe for concurrent use.
type Session struct {
	records  history.Store
	profiles history.ProfileStore
	creds    *identity.Credentials
	profile  *model.Profile
	logger   *slog.Logger
	cfg      Config
	state    State
}

// New restores the persisted session: a saved sign-in first, then guest mode.
func New(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Device == nil {
		return nil, errors.New("session requires a device store")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Session{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "session"),
		state:  StateSignedOut,
	}

	restored, err := s.restoreAccount(ctx)
	if err != nil {
		return nil, err
	}
	if restored {
		return s, nil
	}

	guest, err := cfg.Device.Get(ctx, storage.KeyGuestMode)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to read guest flag: %w", err)
	}
	if guest == "true" {
		if err := s.activateGuest(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// CloudEnabled reports whether account sign-in is available.
func (s *Session) CloudEnabled() bool {
	return s.cfg.Identity != nil && s.cfg.Cloud != nil
}

// State returns the identity state.
func (s *Session) State() State {
	return s.state
}

// IsGuest reports whether the session is in guest mode.
func (s *Session) IsGuest() bool {
	return s.state == StateGuest
}

// IsAuthenticated reports whether an account is signed in.
func (s *Session) IsAuthenticated() bool {
	return s.state == StateAuthenticated
}

// HasIdentity reports whether the user is signed in or a guest.
func (s *Session) HasIdentity() bool {
	return s.state != StateSignedOut
}

// User returns the signed-in user, or nil.
func (s *Session) User() *identity.User {
	if s.creds == nil {
		return nil
	}
	u := s.creds.User
	return &u
}

// IDToken returns the signed-in user's id token, or "".
func (s *Session) IDToken() string {
	if s.creds == nil {
		return ""
	}
	return s.creds.IDToken
}

// NeedsVerification reports whether the signed-in user must verify their email
// before the profile and history become available.
func (s *Session) NeedsVerification() bool {
	return s.creds != nil && s.creds.User.NeedsVerification()
}

// Records returns the record store for this identity.
func (s *Session) Records() (history.Store, error) {
	if s.records == nil {
		if s.NeedsVerification() {
			return nil, ErrEmailNotVerified
		}
		return nil, ErrNoIdentity
	}
	return s.records, nil
}

// Profile returns a copy of the current profile, or nil when none is set up.
func (s *Session) Profile() *model.Profile {
	if s.profile == nil {
		return nil
	}
	p := s.profile.Clone()
	return &p
}

// HasProfile reports whether a profile is set up.
func (s *Session) HasProfile() bool {
	return s.profile != nil
}

// SaveProfile validates and replaces the profile.
func (s *Session) SaveProfile(ctx context.Context, p model.Profile) error {
	if s.profiles == nil {
		return ErrNoIdentity
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return err
	}
	saved := p.Clone()
	s.profile = &saved
	s.logger.Info("Profile saved", "state", s.state)
	return nil
}

// UpdateGoals replaces only the two goal fields of the current profile.
func (s *Session) UpdateGoals(ctx context.Context, emergency, freedom *float64) error {
	if s.profile == nil {
		return ErrNoProfile
	}
	return s.SaveProfile(ctx, s.profile.WithGoals(emergency, freedom))
}

// Reset forgets the in-memory profile so the next step is setup. Stored data
// is overwritten by the next save.
func (s *Session) Reset() {
	s.profile = nil
}

// ContinueAsGuest switches to device-local guest mode.
func (s *Session) ContinueAsGuest(ctx context.Context) error {
	if err := s.cfg.Device.Set(ctx, storage.KeyGuestMode, "true"); err != nil {
		return fmt.Errorf("failed to enable guest mode: %w", err)
	}
	return s.activateGuest(ctx)
}

// SignUp creates an account. The verification email is sent by the provider.
func (s *Session) SignUp(ctx context.Context, email, password string) error {
	if !s.CloudEnabled() {
		return ErrCloudUnavailable
	}
	creds, err := s.cfg.Identity.SignUp(ctx, email, password)
	if err != nil {
		return err
	}
	return s.activateAccount(ctx, creds)
}

// SignIn signs in with email and password.
func (s *Session) SignIn(ctx context.Context, email, password string) error {
	if !s.CloudEnabled() {
		return ErrCloudUnavailable
	}
	creds, err := s.cfg.Identity.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	return s.activateAccount(ctx, creds)
}

// SignInWithGoogle signs in with a Google id token.
func (s *Session) SignInWithGoogle(ctx context.Context, googleIDToken string) error {
	if !s.CloudEnabled() {
		return ErrCloudUnavailable
	}
	creds, err := s.cfg.Identity.SignInWithGoogle(ctx, googleIDToken)
	if err != nil {
		return err
	}
	return s.activateAccount(ctx, creds)
}

// SendVerification re-sends the verification email.
func (s *Session) SendVerification(ctx context.Context) error {
	if s.creds == nil {
		return ErrNotAuthenticated
	}
	return s.cfg.Identity.SendVerification(ctx, s.creds.IDToken)
}

// RefreshUser re-reads the account, picking up a completed email verification.
func (s *Session) RefreshUser(ctx context.Context) error {
	if s.creds == nil {
		return ErrNotAuthenticated
	}
	user, err := s.cfg.Identity.Lookup(ctx, s.creds.IDToken)
	if err != nil {
		return err
	}
	creds := *s.creds
	creds.User = *user
	return s.activateAccount(ctx, &creds)
}

// SignOut ends the session and removes the persisted identity and profile.
// Device history is kept.
func (s *Session) SignOut(ctx context.Context) error {
	if err := s.cfg.Device.Remove(ctx, storage.KeyGuestMode, storage.KeyProfile, storage.KeySessionToken); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	s.logger.Info("Signed out", "state", s.state)
	s.clear()
	return nil
}

// DeleteAccount deletes the identity and its cloud data, then signs out.
// A stale sign-in fails with identity.KindRequiresFreshAuth and changes nothing.
func (s *Session) DeleteAccount(ctx context.Context) error {
	if s.creds == nil || !s.CloudEnabled() {
		return ErrNotAuthenticated
	}
	uid := s.creds.User.UID

	if err := s.cfg.Identity.DeleteAccount(ctx, s.creds.IDToken); err != nil {
		return err
	}
	if err := s.cfg.Cloud.DeleteUser(ctx, uid); err != nil {
		s.logger.Error("Account deleted but its data could not be removed", "uid", uid, "error", err)
	}
	if s.cfg.Cache != nil {
		if err := s.cfg.Cache.Invalidate(ctx, uid); err != nil {
			s.logger.Warn("Profile cache invalidation failed", "uid", uid, "error", err)
		}
	}
	return s.SignOut(ctx)
}

func (s *Session) clear() {
	s.state = StateSignedOut
	s.creds = nil
	s.profile = nil
	s.records = nil
	s.profiles = nil
}

// activateGuest selects the device stores.
func (s *Session) activateGuest(ctx context.Context) error {
	s.clear()
	s.state = StateGuest
	s.records = history.NewLocalStore(s.cfg.Device, history.WithLocalClock(s.cfg.Now))
	s.profiles = history.NewLocalProfileStore(s.cfg.Device)
	return s.loadProfile(ctx)
}

// activateAccount persists creds and selects the cloud stores. Unverified
// email accounts get no stores until verification completes.
func (s *Session) activateAccount(ctx context.Context, creds *identity.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.cfg.Device.Set(ctx, storage.KeySessionToken, string(data)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	// An account session replaces guest mode on this device.
	if err := s.cfg.Device.Remove(ctx, storage.KeyGuestMode); err != nil {
		return fmt.Errorf("failed to leave guest mode: %w", err)
	}

	s.clear()
	s.state = StateAuthenticated
	s.creds = creds
	s.logger.Info("Signed in", "uid", creds.User.UID, "verified", !creds.User.NeedsVerification())

	if creds.User.NeedsVerification() {
		return nil
	}

	owner := history.Owner{
		UID:         creds.User.UID,
		Email:       creds.User.Email,
		DisplayName: creds.User.DisplayName,
		PhotoURL:    creds.User.PhotoURL,
	}
	s.records = history.NewCloudStore(s.cfg.Cloud, owner.UID)
	s.profiles = history.NewCloudProfileStore(s.cfg.Cloud, s.cfg.Cache, owner)
	return s.loadProfile(ctx)
}

// restoreAccount resumes a saved sign-in. Expired or revoked sessions are dropped.
func (s *Session) restoreAccount(ctx context.Context) (bool, error) {
	raw, err := s.cfg.Device.Get(ctx, storage.KeySessionToken)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read session: %w", err)
	}

	var creds identity.Credentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil || creds.IDToken == "" {
		s.logger.Warn("Discarding unreadable saved session")
		return false, s.dropSavedSession(ctx)
	}
	if !s.CloudEnabled() {
		s.logger.Warn("Saved sign-in ignored because account features are not configured")
		return false, nil
	}
	if creds.Expired(s.cfg.Now()) {
		s.logger.Info("Saved sign-in expired, please sign in again", "uid", creds.User.UID)
		return false, s.dropSavedSession(ctx)
	}

	user, err := s.cfg.Identity.Lookup(ctx, creds.IDToken)
	switch {
	case identity.KindOf(err) == identity.KindRequiresFreshAuth:
		s.logger.Info("Saved sign-in is no longer valid", "uid", creds.User.UID)
		return false, s.dropSavedSession(ctx)
	case err != nil:
		s.logger.Warn("Could not refresh account, using saved details", "error", err)
	default:
		creds.User = *user
	}

	return true, s.activateAccount(ctx, &creds)
}

func (s *Session) dropSavedSession(ctx context.Context) error {
	if err := s.cfg.Device.Remove(ctx, storage.KeySessionToken); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Session) loadProfile(ctx context.Context) error {
	p, err := s.profiles.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	s.profile = p
	return nil
}
