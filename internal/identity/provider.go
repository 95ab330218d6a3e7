// Package identity signs users up and in, verifies their email and deletes
// accounts. Provider failures are reduced to a small set of Kinds.
package identity

import (
	"context"
	"time"
)

// GoogleProviderID identifies accounts linked through Google sign-in.
const GoogleProviderID = "google.com"

// User is the identity as seen by the rest of the application.
type User struct {
	UID           string   `json:"uid"`
	Email         string   `json:"email,omitempty"`
	DisplayName   string   `json:"displayName,omitempty"`
	PhotoURL      string   `json:"photoURL,omitempty"`
	Providers     []string `json:"providers,omitempty"`
	EmailVerified bool     `json:"emailVerified"`
}

// IsGoogle reports whether the account signs in through Google.
func (u User) IsGoogle() bool {
	for _, p := range u.Providers {
		if p == GoogleProviderID {
			return true
		}
	}
	return false
}

// NeedsVerification reports whether the user must verify their email before
// using the app. Google accounts are exempt.
func (u User) NeedsVerification() bool {
	return !u.IsGoogle() && !u.EmailVerified
}

// Credentials are the tokens returned by a successful sign-in.
type Credentials struct {
	ExpiresAt    time.Time `json:"expiresAt"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	User         User      `json:"user"`
}

// Expired reports whether the id token has passed its expiry.
func (c Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Provider is the identity service contract. Every error it returns is an *Error.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Credentials, error)
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	SignInWithGoogle(ctx context.Context, googleIDToken string) (*Credentials, error)
	Lookup(ctx context.Context, idToken string) (*User, error)
	SendVerification(ctx context.Context, idToken string) error
	DeleteAccount(ctx context.Context, idToken string) error
}
