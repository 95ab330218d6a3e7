package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/mindspend/internal/identity"
)

type fakeAccount struct {
	password string
	user     identity.User
}

// FakeIdentity is an in-memory identity.Provider. Tokens are "token-<uid>".
type FakeIdentity struct {
	// DeleteErr, when set, is returned by DeleteAccount.
	DeleteErr error
	accounts  map[string]*fakeAccount
	Now       func() time.Time
	TTL       time.Duration
	Sent      int
	next      int
	mu        sync.Mutex
}

// NewFakeIdentity creates an empty provider issuing one-hour tokens.
func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		accounts: make(map[string]*fakeAccount),
		Now:      time.Now,
		TTL:      time.Hour,
	}
}

func fail(op string, kind identity.Kind, code string) error {
	return &identity.Error{Op: op, Kind: kind, Err: errors.New(code)}
}

// SignUp implements identity.Provider.
func (f *FakeIdentity) SignUp(_ context.Context, email, password string) (*identity.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !strings.Contains(email, "@") {
		return nil, fail("sign up", identity.KindInvalidEmail, "INVALID_EMAIL")
	}
	if _, ok := f.accounts[email]; ok {
		return nil, fail("sign up", identity.KindEmailInUse, "EMAIL_EXISTS")
	}
	if len(password) < 6 {
		return nil, fail("sign up", identity.KindWeakSecret, "WEAK_PASSWORD")
	}

	acct := f.create(email, password, "password", false)
	f.Sent++
	return f.credentials(acct), nil
}

// SignIn implements identity.Provider.
func (f *FakeIdentity) SignIn(_ context.Context, email, password string) (*identity.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[email]
	if !ok || acct.password != password {
		return nil, fail("sign in", identity.KindInvalidCredential, "INVALID_LOGIN_CREDENTIALS")
	}
	return f.credentials(acct), nil
}

// SignInWithGoogle treats googleIDToken as the Google account's email.
func (f *FakeIdentity) SignInWithGoogle(_ context.Context, googleIDToken string) (*identity.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[googleIDToken]
	if !ok {
		acct = f.create(googleIDToken, "", identity.GoogleProviderID, false)
	}
	return f.credentials(acct), nil
}

// Lookup implements identity.Provider.
func (f *FakeIdentity) Lookup(_ context.Context, idToken string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acct := f.byToken(idToken)
	if acct == nil {
		return nil, fail("lookup", identity.KindRequiresFreshAuth, "INVALID_ID_TOKEN")
	}
	u := acct.user
	return &u, nil
}

// SendVerification implements identity.Provider.
func (f *FakeIdentity) SendVerification(_ context.Context, idToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.byToken(idToken) == nil {
		return fail("send verification", identity.KindRequiresFreshAuth, "INVALID_ID_TOKEN")
	}
	f.Sent++
	return nil
}

// DeleteAccount implements identity.Provider.
func (f *FakeIdentity) DeleteAccount(_ context.Context, idToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	acct := f.byToken(idToken)
	if acct == nil {
		return fail("delete account", identity.KindRequiresFreshAuth, "INVALID_ID_TOKEN")
	}
	delete(f.accounts, acct.user.Email)
	return nil
}

// Verify marks email as verified.
func (f *FakeIdentity) Verify(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acct, ok := f.accounts[email]; ok {
		acct.user.EmailVerified = true
	}
}

// Exists reports whether an account for email exists.
func (f *FakeIdentity) Exists(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.accounts[email]
	return ok
}

// TokenFor returns the id token the fake issues for email.
func (f *FakeIdentity) TokenFor(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acct, ok := f.accounts[email]; ok {
		return "token-" + acct.user.UID
	}
	return ""
}

func (f *FakeIdentity) create(email, password, provider string, verified bool) *fakeAccount {
	f.next++
	acct := &fakeAccount{
		password: password,
		user: identity.User{
			UID:           fmt.Sprintf("uid-%d", f.next),
			Email:         email,
			Providers:     []string{provider},
			EmailVerified: verified,
		},
	}
	f.accounts[email] = acct
	return acct
}

func (f *FakeIdentity) credentials(acct *fakeAccount) *identity.Credentials {
	return &identity.Credentials{
		IDToken:   "token-" + acct.user.UID,
		ExpiresAt: f.Now().Add(f.TTL),
		User:      acct.user,
	}
}

func (f *FakeIdentity) byToken(token string) *fakeAccount {
	for _, acct := range f.accounts {
		if "token-"+acct.user.UID == token {
			return acct
		}
	}
	return nil
}

var _ identity.Provider = (*FakeIdentity)(nil)
