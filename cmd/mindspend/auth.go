package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/identity"
	"github.com/Veraticus/mindspend/internal/session"
)

// googleIDToken runs the browser sign-in. Tests replace it.
var googleIDToken = identity.GoogleIDToken

func guestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guest",
		Short: "Use mindspend on this device without an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.sess.ContinueAsGuest(ctx); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Guest mode on. Everything stays on this device."))
				return a.nextStepHint()
			})
		},
	}
}

func signupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account to keep your history in the cloud",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireCloud(); err != nil {
					return err
				}
				email, password, err := a.askCredentials(ctx, cmd)
				if err != nil {
					return err
				}
				if err := a.sess.SignUp(ctx, email, password); err != nil {
					return identityError(err)
				}
				a.println(cli.FormatSuccess("Account created for " + email))
				a.println(cli.FormatInfo("We sent a verification email. Once confirmed, run 'mindspend verify-email'."))
				return nil
			})
		},
	}
	cmd.Flags().String("email", "", "email address")
	return cmd
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password, or with Google",
		RunE: func(cmd *cobra.Command, _ []string) error {
			useGoogle, _ := cmd.Flags().GetBool("google")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.requireCloud(); err != nil {
					return err
				}
				if useGoogle {
					if err := a.loginWithGoogle(ctx); err != nil {
						return err
					}
				} else {
					email, password, err := a.askCredentials(ctx, cmd)
					if err != nil {
						return err
					}
					if err := a.sess.SignIn(ctx, email, password); err != nil {
						return identityError(err)
					}
				}

				user := a.sess.User()
				a.println(cli.FormatSuccess("Signed in as " + user.Email))
				return a.nextStepHint()
			})
		},
	}
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().Bool("google", false, "sign in with Google in the browser")
	return cmd
}

func (a *app) loginWithGoogle(ctx context.Context) error {
	oauthCfg := identity.OAuthConfig{
		ClientID:     a.cfg.Identity.ClientID,
		ClientSecret: a.cfg.Identity.ClientSecret,
		CallbackAddr: a.cfg.Identity.CallbackAddr,
		TokenFile:    a.cfg.Identity.TokenFile,
		Open: func(url string) {
			a.println(cli.FormatInfo("Open this link to sign in with Google:"))
			a.println(url)
		},
	}
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		return common.NewUserError("Google sign-in needs identity.client_id and identity.client_secret", common.ErrMissingConfig)
	}

	token, err := googleIDToken(ctx, oauthCfg)
	if err != nil {
		return common.NewUserError("Google sign-in did not complete", err)
	}
	if err := a.sess.SignInWithGoogle(ctx, token); err != nil {
		return identityError(err)
	}
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out or leave guest mode",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !a.sess.HasIdentity() {
					a.println(cli.FormatInfo("Not signed in."))
					return nil
				}
				if err := a.sess.SignOut(ctx); err != nil {
					return err
				}
				a.println(cli.FormatSuccess("Signed out."))
				return nil
			})
		},
	}
}

func verifyEmailCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Check email verification, or resend the verification email",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resend, _ := cmd.Flags().GetBool("resend")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !a.sess.IsAuthenticated() {
					return common.NewUserError("Sign in first with 'mindspend login'", session.ErrNotAuthenticated)
				}
				if resend {
					if err := a.sess.SendVerification(ctx); err != nil {
						return identityError(err)
					}
					a.println(cli.FormatSuccess("Verification email sent to " + a.sess.User().Email))
					return nil
				}

				if err := a.sess.RefreshUser(ctx); err != nil {
					return identityError(err)
				}
				if a.sess.NeedsVerification() {
					a.println(cli.FormatWarning("Not verified yet. Click the link in your inbox, or run 'mindspend verify-email --resend'."))
					return nil
				}
				a.println(cli.FormatSuccess("Email verified."))
				return a.nextStepHint()
			})
		},
	}
	cmd.Flags().Bool("resend", false, "send the verification email again")
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who is signed in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app) error {
				switch {
				case a.sess.IsGuest():
					a.println("Guest on this device")
				case a.sess.IsAuthenticated():
					user := a.sess.User()
					status := "verified"
					if a.sess.NeedsVerification() {
						status = "not verified"
					}
					a.println(fmt.Sprintf("%s (%s)", user.Email, status))
				default:
					a.println("Not signed in")
				}
				return nil
			})
		},
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your account",
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your account and its cloud data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			force, _ := cmd.Flags().GetBool("force")
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if !a.sess.IsAuthenticated() {
					return common.NewUserError("Sign in first with 'mindspend login'", session.ErrNotAuthenticated)
				}
				if !force {
					ok, err := a.prompter.Confirm(ctx, "Delete your account and all cloud history? This cannot be undone.", false)
					if err != nil {
						return err
					}
					if !ok {
						a.println(cli.FormatInfo("Nothing deleted."))
						return nil
					}
				}
				if err := a.sess.DeleteAccount(ctx); err != nil {
					return identityError(err)
				}
				a.println(cli.FormatSuccess("Account deleted."))
				return nil
			})
		},
	}
	deleteCmd.Flags().Bool("force", false, "do not ask for confirmation")
	cmd.AddCommand(deleteCmd)
	return cmd
}

func (a *app) askCredentials(ctx context.Context, cmd *cobra.Command) (string, string, error) {
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		var err error
		email, err = a.prompter.Ask(ctx, "Email")
		if err != nil {
			return "", "", err
		}
	}
	password, err := a.prompter.AskPassword(ctx, "Password")
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

// nextStepHint tells the user what to run after their identity changed.
func (a *app) nextStepHint() error {
	switch {
	case a.sess.NeedsVerification():
		a.println(cli.FormatInfo("Verify your email, then run 'mindspend verify-email'."))
	case !a.sess.HasProfile():
		a.println(cli.FormatInfo("Next: tell us about your income with 'mindspend setup'."))
	default:
		a.println(cli.FormatInfo("Ready. Try 'mindspend check 49.99'."))
	}
	return nil
}

// identityError turns a provider failure into its user-facing message.
func identityError(err error) error {
	if errors.Is(err, session.ErrCloudUnavailable) {
		return common.NewUserError("Accounts are not configured", err)
	}
	var idErr *identity.Error
	if !errors.As(err, &idErr) {
		return err
	}
	return common.NewUserError(identity.KindOf(err).Message(), err)
}
