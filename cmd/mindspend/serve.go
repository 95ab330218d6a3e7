package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Veraticus/mindspend/internal/api"
	"github.com/Veraticus/mindspend/internal/certs"
	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/session"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for web and mobile clients",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if a.identity == nil || a.cloud == nil {
					return common.NewUserError("The API needs identity.api_key and cloud.database_url", session.ErrCloudUnavailable)
				}

				addr := a.cfg.Server.Addr
				if cmd.Flags().Changed("addr") {
					addr, _ = cmd.Flags().GetString("addr")
				}
				if !slog.Default().Enabled(ctx, slog.LevelDebug) {
					gin.SetMode(gin.ReleaseMode)
				}

				cfg := api.Config{
					Identity:       a.identity,
					Store:          a.cloud,
					Logger:         slog.Default().With("component", "api"),
					Now:            a.now,
					AllowedOrigins: a.cfg.Server.AllowedOrigins,
				}
				if a.cache != nil {
					cfg.Cache = a.cache
				}
				server, err := api.NewServer(cfg)
				if err != nil {
					return err
				}

				useTLS := a.cfg.Server.TLS
				if cmd.Flags().Changed("tls") {
					useTLS, _ = cmd.Flags().GetBool("tls")
				}
				if !useTLS {
					a.println(cli.FormatInfo("Listening on http://" + addr))
					return server.Run(ctx, addr)
				}

				store := certs.NewStore(a.cfg.Server.CertDir)
				tlsConfig, err := store.TLSConfig()
				if err != nil {
					return fmt.Errorf("failed to prepare TLS certificate: %w", err)
				}
				a.println(cli.FormatInfo("Listening on https://" + addr))
				a.println(cli.SubtleStyle.Render("Self-signed certificate: " + store.CertFile()))
				return server.RunTLS(ctx, addr, tlsConfig)
			})
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed certificate (default from server.tls)")
	return cmd
}
