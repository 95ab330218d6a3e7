package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Veraticus/mindspend/internal/common"
	"github.com/Veraticus/mindspend/internal/identity"
)

// Exporter writes an export somewhere and returns where it went.
type Exporter interface {
	Write(ctx context.Context, data ExportData) (string, error)
}

// Writer implements Exporter for Google Sheets.
type Writer struct {
	service *sheets.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Google Sheets writer, running the OAuth consent flow
// when no usable token is saved.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tokenSource, err := tokenSourceFor(ctx, config)
	if err != nil {
		return nil, err
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return NewWriterWithService(srv, config, logger), nil
}

// NewWriterWithService wraps an existing Sheets client.
func NewWriterWithService(srv *sheets.Service, config Config, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{service: srv, config: config, logger: logger.With("component", "sheets")}
}

func tokenSourceFor(ctx context.Context, config Config) (oauth2.TokenSource, error) {
	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return jwtConfig.TokenSource(ctx), nil
	}

	return identity.TokenSource(ctx, identity.OAuthConfig{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		TokenFile:    config.TokenFile,
		Scopes:       []string{sheets.SpreadsheetsScope},
	})
}

// Write replaces the History and Summary tabs with data.
func (w *Writer) Write(ctx context.Context, data ExportData) (string, error) {
	w.logger.Info("starting export", "records", len(data.History))

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	var spreadsheet *sheets.Spreadsheet
	err := common.WithRetry(ctx, func() error {
		var err error
		spreadsheet, err = w.getOrCreateSpreadsheet(ctx)
		return err
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	id := spreadsheet.SpreadsheetId

	err = common.WithRetry(ctx, func() error {
		return w.writeData(ctx, id, data)
	}, retryOpts)
	if err != nil {
		return "", fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		if err := w.applyFormatting(ctx, spreadsheet); err != nil {
			// Data is written; formatting is cosmetic.
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("export completed", "spreadsheet_id", id, "rows_written", len(data.History))
	return id, nil
}

// getOrCreateSpreadsheet opens the configured spreadsheet, adding any
// missing tab, or creates a new one.
func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (*sheets.Spreadsheet, error) {
	if w.config.SpreadsheetID == "" {
		created, err := w.service.Spreadsheets.Create(&sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: HistoryTab}},
				{Properties: &sheets.SheetProperties{Title: SummaryTab}},
			},
		}).Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("unable to create spreadsheet: %w", err)
		}
		w.logger.Info("created new spreadsheet", "id", created.SpreadsheetId, "url", created.SpreadsheetUrl)
		return created, nil
	}

	existing, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
	}

	var missing []*sheets.Request
	for _, tab := range []string{HistoryTab, SummaryTab} {
		if sheetID(existing, tab) < 0 {
			missing = append(missing, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: tab}},
			})
		}
	}
	if len(missing) == 0 {
		return existing, nil
	}

	resp, err := w.service.Spreadsheets.BatchUpdate(existing.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests:                     missing,
		IncludeSpreadsheetInResponse: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to add tabs: %w", err)
	}
	if resp.UpdatedSpreadsheet != nil {
		return resp.UpdatedSpreadsheet, nil
	}
	return existing, nil
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, data ExportData) error {
	_, err := w.service.Spreadsheets.Values.BatchClear(spreadsheetID, &sheets.BatchClearValuesRequest{
		Ranges: []string{HistoryTab + "!A:Z", SummaryTab + "!A:Z"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear tabs: %w", err)
	}

	_, err = w.service.Spreadsheets.Values.BatchUpdate(spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*sheets.ValueRange{
			{Range: HistoryTab + "!A1", Values: historyValues(data.History)},
			{Range: SummaryTab + "!A1", Values: summaryValues(data)},
		},
	}).Context(ctx).Do()
	return err
}

func historyValues(rows []HistoryRow) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, []any{"Date", "Label", "Category", "Price", "Work time", "Minutes", "Decision", "Regret"})
	for _, r := range rows {
		values = append(values, []any{
			r.Date.Format("2006-01-02 15:04"),
			r.Label,
			r.Category,
			r.Price.InexactFloat64(),
			r.WorkTime,
			r.Minutes,
			r.Decision,
			r.Regret,
		})
	}
	return values
}

func summaryValues(data ExportData) [][]any {
	values := make([][]any, 0, len(data.Summary)+2)
	values = append(values,
		[]any{"MindSpend Summary", data.GeneratedAt.Format("Jan 2, 2006")},
		[]any{},
	)
	for _, r := range data.Summary {
		values = append(values, []any{r.Label, r.Value})
	}
	return values
}

// applyFormatting bolds and freezes the History header and sets the price column format.
func (w *Writer) applyFormatting(ctx context.Context, spreadsheet *sheets.Spreadsheet) error {
	history := sheetID(spreadsheet, HistoryTab)
	summary := sheetID(spreadsheet, SummaryTab)
	if history < 0 || summary < 0 {
		return fmt.Errorf("spreadsheet is missing its tabs")
	}

	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: history, StartRowIndex: 0, EndRowIndex: 1},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: history, StartRowIndex: 1, StartColumnIndex: 3, EndColumnIndex: 4},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{Type: "CURRENCY", Pattern: "€#,##0.00"},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: summary, StartRowIndex: 0, EndRowIndex: 1},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true, FontSize: 14}},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        history,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{SheetId: history, Dimension: "COLUMNS", StartIndex: 0, EndIndex: 8},
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheet.SpreadsheetId, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

// sheetID returns the id of the tab titled title, or -1.
func sheetID(spreadsheet *sheets.Spreadsheet, title string) int64 {
	for _, s := range spreadsheet.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId
		}
	}
	return -1
}

var _ Exporter = (*Writer)(nil)
