package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/cloud"
	"github.com/Veraticus/mindspend/internal/config"
	"github.com/Veraticus/mindspend/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Bring the device database and, when configured, the cloud database up to the current schema.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetBool("status")
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			device, err := storage.NewSQLiteStorage(cfg.Storage.Path)
			if err != nil {
				return fmt.Errorf("failed to open device storage: %w", err)
			}
			defer func() { _ = device.Close() }()
			if err := migrateStore(ctx, out, "Device", device, storage.ExpectedSchemaVersion, status); err != nil {
				return err
			}

			if !cfg.Cloud.Enabled() {
				return nil
			}
			db, err := cloud.Open(ctx, cfg.Cloud.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to open cloud database: %w", err)
			}
			defer func() { _ = db.Close() }()
			return migrateStore(ctx, out, "Cloud", db, cloud.ExpectedSchemaVersion, status)
		},
	}
	cmd.Flags().Bool("status", false, "only report schema versions")
	return cmd
}

type migrator interface {
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
}

func migrateStore(ctx context.Context, out io.Writer, name string, m migrator, expected int, statusOnly bool) error {
	if !statusOnly {
		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate %s database: %w", name, err)
		}
	}
	version, err := m.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to read %s schema version: %w", name, err)
	}

	line := fmt.Sprintf("%s database: schema version %d of %d", name, version, expected)
	if version >= expected {
		line = cli.FormatSuccess(line)
	} else {
		line = cli.FormatWarning(line)
	}
	_, err = fmt.Fprintln(out, line)
	return err
}
