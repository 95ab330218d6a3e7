package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/mindspend/internal/cli"
	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/config"
	"github.com/Veraticus/mindspend/internal/insights"
	"github.com/Veraticus/mindspend/internal/sheets"
)

// newExporter opens the spreadsheet writer. Tests replace it.
var newExporter = func(ctx context.Context, cfg sheets.Config) (sheets.Exporter, error) {
	return sheets.NewWriter(ctx, cfg, slog.Default().With("component", "sheets"))
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export your history",
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write your history and summary to a Google Sheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
			if err != nil {
				return common.NewUserError("Google Sheets export is not configured", err)
			}
			if id, _ := cmd.Flags().GetString("spreadsheet"); id != "" {
				sheetsCfg.SpreadsheetID = id
			}

			return withApp(cmd, func(ctx context.Context, a *app) error {
				store, err := a.records()
				if err != nil {
					return err
				}
				records, err := store.List(ctx, 0)
				if err != nil {
					return fmt.Errorf("failed to load history: %w", err)
				}

				now := a.now()
				data := sheets.BuildExport(records, insights.Summarize(records, now), now)

				exporter, err := newExporter(ctx, *sheetsCfg)
				if err != nil {
					return err
				}
				id, err := exporter.Write(ctx, data)
				if err != nil {
					return err
				}
				a.println(cli.FormatSuccess(fmt.Sprintf("Exported %d checks", len(data.History))))
				a.println("https://docs.google.com/spreadsheets/d/" + id)
				return nil
			})
		},
	}
	sheetsCmd.Flags().String("spreadsheet", "", "ID of an existing spreadsheet to write to")

	cmd.AddCommand(sheetsCmd)
	return cmd
}
