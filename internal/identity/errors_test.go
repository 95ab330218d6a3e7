package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"email exists", &googleapi.Error{Code: 400, Message: "EMAIL_EXISTS"}, KindEmailInUse},
		{"weak password with detail", &googleapi.Error{Code: 400, Message: "WEAK_PASSWORD : Password should be at least 6 characters"}, KindWeakSecret},
		{"invalid email", &googleapi.Error{Code: 400, Message: "INVALID_EMAIL"}, KindInvalidEmail},
		{"wrong password", &googleapi.Error{Code: 400, Message: "INVALID_PASSWORD"}, KindInvalidCredential},
		{"unknown user", &googleapi.Error{Code: 400, Message: "EMAIL_NOT_FOUND"}, KindInvalidCredential},
		{"stale login", &googleapi.Error{Code: 400, Message: "CREDENTIAL_TOO_OLD_LOGIN_AGAIN"}, KindRequiresFreshAuth},
		{
			"code only in item",
			&googleapi.Error{Code: 400, Message: "bad request", Errors: []googleapi.ErrorItem{{Message: "INVALID_LOGIN_CREDENTIALS"}}},
			KindInvalidCredential,
		},
		{"sdk style code", errors.New("Firebase: Error (auth/email-already-in-use)."), KindEmailInUse},
		{"wrapped", fmt.Errorf("sign in: %w", &googleapi.Error{Code: 400, Message: "TOKEN_EXPIRED"}), KindRequiresFreshAuth},
		{"blocked", errors.New("POST https://example.test net::ERR_BLOCKED_BY_CLIENT"), KindNetworkBlocked},
		{"other", errors.New("connection refused"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestIsClientBlocked(t *testing.T) {
	assert.True(t, IsClientBlocked(errors.New("request was blocked by client")))
	assert.True(t, IsClientBlocked(errors.New("ERR_BLOCKED_BY_CLIENT")))
	assert.False(t, IsClientBlocked(errors.New("timeout")))
	assert.False(t, IsClientBlocked(nil))
}

func TestKindOf(t *testing.T) {
	err := wrap("sign up", &googleapi.Error{Code: 400, Message: "EMAIL_EXISTS"})
	assert.Equal(t, KindEmailInUse, KindOf(err))
	assert.Equal(t, KindEmailInUse, KindOf(fmt.Errorf("outer: %w", err)))
	assert.Contains(t, err.Error(), "sign up: email-in-use")

	var apiErr *googleapi.Error
	assert.ErrorAs(t, err, &apiErr)

	assert.NoError(t, wrap("noop", nil))
}

func TestKindMessage(t *testing.T) {
	assert.Equal(t, "Incorrect email or password.", KindInvalidCredential.Message())
	assert.Equal(t, "Something went wrong. Please try again.", Kind(99).Message())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestUser(t *testing.T) {
	google := User{UID: "g", Providers: []string{"google.com"}}
	assert.True(t, google.IsGoogle())
	assert.False(t, google.NeedsVerification())

	pending := User{UID: "p", Providers: []string{"password"}}
	assert.True(t, pending.NeedsVerification())

	pending.EmailVerified = true
	assert.False(t, pending.NeedsVerification())
}
