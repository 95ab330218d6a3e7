package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// Toolkit implements Provider on the Google Identity Toolkit relying-party API.
type Toolkit struct {
	svc    *identitytoolkit.Service
	logger *slog.Logger
	now    func() time.Time
}

// NewToolkit creates a client authenticated with the project's web API key.
// Extra options are appended, for example option.WithEndpoint in tests.
func NewToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Toolkit, error) {
	if apiKey == "" {
		return nil, errors.New("identity API key is required")
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity client: %w", err)
	}

	return &Toolkit{
		svc:    svc,
		logger: slog.Default().With("component", "identity"),
		now:    time.Now,
	}, nil
}

// SignUp creates an email and password account and sends the verification email.
func (t *Toolkit) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	resp, err := t.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrap("sign up", err)
	}

	creds := &Credentials{
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    t.expiry(resp.ExpiresIn),
		User: User{
			UID:         resp.LocalId,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			Providers:   []string{"password"},
		},
	}

	if err := t.SendVerification(ctx, creds.IDToken); err != nil {
		// The account exists; the user can resend from the verify step.
		t.logger.Warn("Failed to send verification email", "uid", creds.User.UID, "error", err)
	}

	t.logger.Info("Account created", "uid", creds.User.UID)
	return creds, nil
}

// SignIn signs in with email and password.
func (t *Toolkit) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	resp, err := t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrap("sign in", err)
	}

	return t.complete(ctx, "sign in", resp.IdToken, resp.RefreshToken, resp.ExpiresIn)
}

// SignInWithGoogle exchanges a Google id token for an account session.
func (t *Toolkit) SignInWithGoogle(ctx context.Context, googleIDToken string) (*Credentials, error) {
	body := url.Values{}
	body.Set("id_token", googleIDToken)
	body.Set("providerId", GoogleProviderID)

	resp, err := t.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body.Encode(),
		RequestUri:        "http://localhost",
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrap("google sign in", err)
	}
	if resp.ErrorMessage != "" {
		return nil, wrap("google sign in", errors.New(resp.ErrorMessage))
	}

	return t.complete(ctx, "google sign in", resp.IdToken, resp.RefreshToken, resp.ExpiresIn)
}

// Lookup returns the account behind idToken.
func (t *Toolkit) Lookup(ctx context.Context, idToken string) (*User, error) {
	if idToken == "" {
		return nil, &Error{Op: "lookup", Kind: KindRequiresFreshAuth, Err: ErrNotSignedIn}
	}

	resp, err := t.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		IdToken: idToken,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrap("lookup", err)
	}
	if len(resp.Users) == 0 {
		return nil, &Error{Op: "lookup", Kind: KindRequiresFreshAuth, Err: errors.New("USER_NOT_FOUND")}
	}

	info := resp.Users[0]
	user := &User{
		UID:           info.LocalId,
		Email:         info.Email,
		DisplayName:   info.DisplayName,
		PhotoURL:      info.PhotoUrl,
		EmailVerified: info.EmailVerified,
	}
	for _, p := range info.ProviderUserInfo {
		user.Providers = append(user.Providers, p.ProviderId)
	}
	return user, nil
}

// SendVerification emails a verification link to the signed-in user.
func (t *Toolkit) SendVerification(ctx context.Context, idToken string) error {
	_, err := t.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "VERIFY_EMAIL",
		IdToken:     idToken,
	}).Context(ctx).Do()
	return wrap("send verification", err)
}

// DeleteAccount permanently deletes the signed-in account.
// Stale sessions fail with KindRequiresFreshAuth.
func (t *Toolkit) DeleteAccount(ctx context.Context, idToken string) error {
	user, err := t.Lookup(ctx, idToken)
	if err != nil {
		return err
	}

	_, err = t.svc.Relyingparty.DeleteAccount(&identitytoolkit.IdentitytoolkitRelyingpartyDeleteAccountRequest{
		IdToken: idToken,
		LocalId: user.UID,
	}).Context(ctx).Do()
	if err != nil {
		return wrap("delete account", err)
	}

	t.logger.Info("Account deleted", "uid", user.UID)
	return nil
}

func (t *Toolkit) complete(ctx context.Context, op, idToken, refreshToken string, expiresIn int64) (*Credentials, error) {
	user, err := t.Lookup(ctx, idToken)
	if err != nil {
		var idErr *Error
		if errors.As(err, &idErr) {
			idErr.Op = op
		}
		return nil, err
	}
	return &Credentials{
		IDToken:      idToken,
		RefreshToken: refreshToken,
		ExpiresAt:    t.expiry(expiresIn),
		User:         *user,
	}, nil
}

func (t *Toolkit) expiry(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return t.now().Add(time.Duration(expiresIn) * time.Second)
}

var _ Provider = (*Toolkit)(nil)
