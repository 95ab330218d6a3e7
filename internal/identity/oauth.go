package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// DefaultCallbackAddr is where the loopback server waits for the OAuth redirect.
const DefaultCallbackAddr = "localhost:8080"

// DefaultLoginTimeout bounds how long the browser flow may take.
const DefaultLoginTimeout = 5 * time.Minute

// SignInScopes are the scopes needed to obtain a Google id token.
var SignInScopes = []string{"openid", "email", "profile"}

// ErrNoIDToken is returned when Google answers without an id_token.
var ErrNoIDToken = errors.New("google response did not include an id token")

// OAuthConfig configures an interactive Google OAuth flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	TokenFile    string // Where to save the token; empty disables persistence
	CallbackAddr string
	Scopes       []string
	Timeout      time.Duration
	// Open is called with the consent URL. Defaults to logging it.
	Open func(url string)
}

func (c OAuthConfig) oauth2Config() *oauth2.Config {
	addr := c.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = SignInScopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  "http://" + addr + "/callback",
		Scopes:       scopes,
	}
}

// AuthorizeInteractive runs the browser consent flow and exchanges the code
// for a token.
func AuthorizeInteractive(ctx context.Context, config OAuthConfig) (*oauth2.Token, error) {
	oauthConfig := config.oauth2Config()
	addr := config.CallbackAddr
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultLoginTimeout
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	state := uuid.NewString()
	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := query.Get("code")
		if code == "" {
			sendErr(errorChan, fmt.Errorf("no authorization code received"))
			_, _ = fmt.Fprint(w, callbackPage("Sign-in Failed", "No authorization code received. Please try again."))
			return
		}
		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprint(w, callbackPage("Signed In", "You can close this window and return to the terminal."))
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendErr(errorChan, fmt.Errorf("callback server failed: %w", err))
		}
	}()
	defer func() {
		if err := server.Shutdown(context.Background()); err != nil {
			slog.Warn("Error shutting down callback server", "error", err)
		}
	}()

	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	if config.Open != nil {
		config.Open(authURL)
	} else {
		slog.Info("Please visit this URL to sign in", "url", authURL)
	}

	var authCode string
	select {
	case authCode = <-codeChan:
		slog.Debug("Received authorization code")
	case err := <-errorChan:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(timeout):
		return nil, fmt.Errorf("sign-in timeout - no response received within %s", timeout)
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := SaveToken(config.TokenFile, token); err != nil {
			slog.Warn("Failed to save token to file", "error", err, "file", config.TokenFile)
		}
	}

	return token, nil
}

// GoogleIDToken runs the interactive flow and returns the id_token Google issued.
func GoogleIDToken(ctx context.Context, config OAuthConfig) (string, error) {
	token, err := AuthorizeInteractive(ctx, config)
	if err != nil {
		return "", err
	}
	return IDTokenFrom(token)
}

// IDTokenFrom extracts the id_token extra field from an OAuth token.
func IDTokenFrom(token *oauth2.Token) (string, error) {
	if token == nil {
		return "", ErrNoIDToken
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(token)
	return token, err
}

// SaveToken writes a token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// TokenSource returns a refreshing token source, loading a saved token or
// running the interactive flow when none is usable.
func TokenSource(ctx context.Context, config OAuthConfig) (oauth2.TokenSource, error) {
	oauthConfig := config.oauth2Config()

	if config.TokenFile != "" {
		token, err := LoadToken(config.TokenFile)
		if err == nil {
			if token.Valid() {
				return oauthConfig.TokenSource(ctx, token), nil
			}
			fresh, err := oauthConfig.TokenSource(ctx, token).Token()
			if err == nil {
				if err := SaveToken(config.TokenFile, fresh); err != nil {
					slog.Warn("Failed to save refreshed token", "error", err)
				}
				return oauthConfig.TokenSource(ctx, fresh), nil
			}
			slog.Info("Saved token could not be refreshed, signing in again", "error", err)
		}
	}

	token, err := AuthorizeInteractive(ctx, config)
	if err != nil {
		return nil, err
	}
	return oauthConfig.TokenSource(ctx, token), nil
}

func sendErr(ch chan<- error, err error) {
	select {
	case ch <- err:
	default:
	}
}

func callbackPage(title, body string) string {
	return fmt.Sprintf(`<html><body>
	<h1>%s</h1>
	<p>%s</p>
	<script>window.setTimeout(function(){window.close();}, 3000);</script>
</body></html>`, title, body)
}
