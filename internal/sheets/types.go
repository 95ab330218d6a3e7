package sheets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/insights"
	"github.com/Veraticus/mindspend/internal/model"
)

// Tab names.
const (
	HistoryTab = "History"
	SummaryTab = "Summary"
)

// HistoryRow is one price check in the History tab.
type HistoryRow struct {
	Date     time.Time
	Price    decimal.Decimal
	Label    string
	Category string
	Decision string
	WorkTime string
	Regret   string
	Minutes  int
}

// SummaryRow is one label/value pair in the Summary tab.
type SummaryRow struct {
	Value any
	Label string
}

// ExportData holds everything written by one export.
type ExportData struct {
	GeneratedAt time.Time
	History     []HistoryRow
	Summary     []SummaryRow
}

// BuildExport flattens records and their summary into rows.
func BuildExport(records []model.PurchaseRecord, summary insights.Summary, now time.Time) ExportData {
	data := ExportData{
		GeneratedAt: now,
		History:     make([]HistoryRow, 0, len(records)),
	}

	for _, r := range records {
		regret := ""
		if r.Regret != nil {
			regret = "no"
			if *r.Regret {
				regret = "yes"
			}
		}
		data.History = append(data.History, HistoryRow{
			Date:     r.Timestamp,
			Price:    decimal.NewFromFloat(r.Price).Round(2),
			Label:    r.Label,
			Category: string(r.Category),
			Decision: string(r.Decision),
			Minutes:  r.Calculations.TimeInMinutes,
			WorkTime: calculator.FormatWorkTime(r.Calculations.TimeInMinutes),
			Regret:   regret,
		})
	}

	data.Summary = []SummaryRow{
		{Label: "Total checks", Value: summary.TotalChecks},
		{Label: "Skipped", Value: summary.SkippedCount},
		{Label: "Bought", Value: summary.BoughtCount},
		{Label: "Money kept", Value: summary.TotalSkippedValue.StringFixed(2)},
		{Label: "Life hours kept", Value: insights.FormatDuration(summary.TotalSkippedTime)},
		{Label: "Late-night checks", Value: summary.LateNightPercentage},
		{Label: "Checks this week", Value: summary.RecentChecks},
	}
	for _, f := range summary.Flags {
		data.Summary = append(data.Summary, SummaryRow{Label: f.Title, Value: f.Description})
	}

	return data
}
