package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/cloud"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/config"
	"github.com/Veraticus/mindspend/internal/history"
	"github.com/Veraticus/mindspend/internal/identity"
	"github.com/Veraticus/mindspend/internal/session"
	"github.com/Veraticus/mindspend/internal/storage"
)

// app is everything a command needs, opened once per invocation.
type app struct {
	cfg      *config.Config
	device   storage.KeyValueStore
	identity identity.Provider
	cloud    session.CloudDB
	cache    history.ProfileCache
	sess     *session.Session
	prompter *cli.Prompter
	out      io.Writer
	now      func() time.Time
	closers  []func() error
}

// openApp builds the app for cmd. Tests replace it.
var openApp = openAppFromConfig

func openAppFromConfig(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		prompter: cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
		out:      cmd.OutOrStdout(),
		now:      time.Now,
	}

	device, err := storage.NewSQLiteStorage(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open device storage: %w", err)
	}
	a.closers = append(a.closers, device.Close)
	if err := device.Migrate(ctx); err != nil {
		a.close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.device = device

	if err := a.connectCloud(ctx); err != nil {
		a.close()
		return nil, err
	}

	if err := a.startSession(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// connectCloud opens the account backends that are configured.
func (a *app) connectCloud(ctx context.Context) error {
	if a.cfg.Identity.APIKey == "" || !a.cfg.Cloud.Enabled() {
		slog.Debug("Account features disabled, guest mode only")
		return nil
	}

	toolkit, err := identity.NewToolkit(ctx, a.cfg.Identity.APIKey)
	if err != nil {
		return err
	}
	a.identity = toolkit

	db, err := cloud.Open(ctx, a.cfg.Cloud.DatabaseURL)
	if err != nil {
		return common.NewUserError("Could not reach the cloud database", err)
	}
	a.closers = append(a.closers, db.Close)
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate cloud database: %w", err)
	}
	a.cloud = db

	if a.cfg.Cloud.RedisURL != "" {
		client, err := cloud.OpenRedis(ctx, a.cfg.Cloud.RedisURL)
		if err != nil {
			slog.Warn("Profile cache unavailable, reading profiles from the database", "error", err)
			return nil
		}
		a.closers = append(a.closers, client.Close)
		a.cache = cloud.NewProfileCache(client, a.cfg.Cloud.ProfileTTL)
	}
	return nil
}

func (a *app) startSession(ctx context.Context) error {
	sessCfg := session.Config{
		Device: a.device,
		Now:    a.now,
		Logger: slog.Default(),
	}
	if a.identity != nil && a.cloud != nil {
		sessCfg.Identity = a.identity
		sessCfg.Cloud = a.cloud
	}
	if a.cache != nil {
		sessCfg.Cache = a.cache
	}

	sess, err := session.New(ctx, sessCfg)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	a.sess = sess
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
}

// withApp opens the app, runs fn and closes everything afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), a)
}

// println writes user-facing output.
func (a *app) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// records returns the record store, explaining what is missing otherwise.
func (a *app) records() (history.Store, error) {
	store, err := a.sess.Records()
	switch {
	case errors.Is(err, session.ErrEmailNotVerified):
		return nil, common.NewUserError("Verify your email first: run 'mindspend verify-email'", err)
	case errors.Is(err, session.ErrNoIdentity):
		return nil, common.NewUserError("Start with 'mindspend guest' or 'mindspend login'", err)
	case err != nil:
		return nil, err
	}
	return store, nil
}

// requireIdentity fails unless a user is signed in or in guest mode.
func (a *app) requireIdentity() error {
	if a.sess.NeedsVerification() {
		return common.NewUserError("Verify your email first: run 'mindspend verify-email'", session.ErrEmailNotVerified)
	}
	if !a.sess.HasIdentity() {
		return common.NewUserError("Start with 'mindspend guest' or 'mindspend login'", session.ErrNoIdentity)
	}
	return nil
}

// requireCloud fails when account features are not configured.
func (a *app) requireCloud() error {
	if !a.sess.CloudEnabled() {
		return common.NewUserError("Accounts are not configured; set identity.api_key and cloud.database_url", session.ErrCloudUnavailable)
	}
	return nil
}
