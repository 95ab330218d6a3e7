package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/mindspend/internal/calculator"
	"github.com/Veraticus/mindspend/internal/checkin"
	"github.com/Veraticus/mindspend/internal/insights"
	"github.com/Veraticus/mindspend/internal/model"
	"github.com/Veraticus/mindspend/internal/reconcile"
)

// GoalBarWidth is the number of cells in a goal bar.
const GoalBarWidth = 30

// RenderResult draws the results screen for one price check.
func RenderResult(r calculator.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s for %s\n\n",
		r.Category.Icon(), BoldStyle.Render(r.Label), calculator.FormatMoney(r.Price))
	fmt.Fprintf(&b, "%s %s\n", ClockIcon, HeadlineStyle.Render(r.WorkTime+" of work"))
	b.WriteString(SubtleStyle.Render(r.TimeContext) + "\n")

	if r.MonthsOfExpenses != "" {
		fmt.Fprintf(&b, "\n%s of your monthly expenses\n", BoldStyle.Render(r.MonthsOfExpenses))
	}
	if weeks := r.Cost.WeeksOfGroceries; weeks != nil {
		fmt.Fprintf(&b, "%s weeks of groceries\n", BoldStyle.Render(decimal.NewFromFloat(*weeks).StringFixed(1)))
	}
	if days := r.Cost.EmergencyBufferDays; days != nil {
		fmt.Fprintf(&b, "%s days of your emergency buffer\n", BoldStyle.Render(decimal.NewFromFloat(*days).StringFixed(1)))
	}
	fmt.Fprintf(&b, "%s days of utilities\n", BoldStyle.Render(decimal.NewFromFloat(r.Cost.DaysOfUtilities).StringFixed(1)))

	for _, g := range r.Goals {
		fmt.Fprintf(&b, "\n%s  %s %s\n%s\n",
			BoldStyle.Render(g.Name), HeadlineStyle.Render(g.Display), SubtleStyle.Render(g.Description),
			RenderBar(g.BarWidth, GoalBarWidth))
	}

	return RenderBox("The real cost", strings.TrimRight(b.String(), "\n"))
}

// RenderRegretQuestion lists the regret simulator answers.
func RenderRegretQuestion() []string {
	options := make([]string, len(calculator.RegretAnswers))
	for i, a := range calculator.RegretAnswers {
		options[i] = a.Label()
	}
	return options
}

// RenderHistory draws a table of records, newest first as given.
func RenderHistory(records []model.PurchaseRecord, now time.Time) string {
	if len(records) == 0 {
		return SubtleStyle.Render("No price checks yet.")
	}

	header := TableHeaderStyle.Render(fmt.Sprintf("%-36s  %-24s %10s  %-10s  %s", "ID", "LABEL", "PRICE", "DECISION", "WHEN"))
	lines := []string{header}
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%-36s  %-24s %10s  %-10s  %s",
			r.ID,
			truncate(r.Category.Icon()+" "+r.Label, 24),
			calculator.FormatMoney(r.Price),
			renderDecision(r),
			SubtleStyle.Render(insights.TimeAgo(r.Timestamp, now))))
	}
	return strings.Join(lines, "\n")
}

func renderDecision(r model.PurchaseRecord) string {
	label := string(r.Decision)
	if r.Regret != nil && *r.Regret {
		label += "*"
	}
	padded := fmt.Sprintf("%-10s", label)
	switch r.Decision {
	case model.DecisionSkipped:
		return SuccessStyle.Render(padded)
	case model.DecisionBought:
		return WarningStyle.Render(padded)
	default:
		return SubtleStyle.Render(padded)
	}
}

// RenderInsights draws the summary and its pattern flags.
func RenderInsights(s insights.Summary) string {
	if s.TotalChecks == 0 {
		return RenderBox(ChartIcon+" Insights", SubtleStyle.Render("Check a price to start seeing patterns."))
	}

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		statCell("Checks", fmt.Sprintf("%d", s.TotalChecks)),
		statCell("Skipped", fmt.Sprintf("%d", s.SkippedCount)),
		statCell("Bought", fmt.Sprintf("%d", s.BoughtCount)),
		statCell("Saved", insights.FormatValue(s.TotalSkippedValue)),
		statCell("Time kept", insights.FormatDuration(s.TotalSkippedTime)),
	)

	lines := []string{stats, ""}
	lines = append(lines, SubtleStyle.Render(fmt.Sprintf("%d checks this week, %d%% after 10pm", s.RecentChecks, s.LateNightPercentage)))
	for _, f := range s.Flags {
		title := WarningStyle.Render(WarningIcon + " " + f.Title)
		if f.Positive {
			title = SuccessStyle.Render(SuccessIcon + " " + f.Title)
		}
		lines = append(lines, "", title, f.Description)
	}
	return RenderBox(ChartIcon+" Insights", strings.Join(lines, "\n"))
}

func statCell(label, value string) string {
	return TableCellStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		HeadlineStyle.Render(value), SubtleStyle.Render(label)))
}

// RenderProfile draws the economic baseline.
func RenderProfile(p model.Profile) string {
	lines := []string{
		fmt.Sprintf("Hourly wage:       %s", calculator.FormatMoney(p.HourlyWage)),
		fmt.Sprintf("Monthly income:    %s", calculator.FormatMoney(p.MonthlyIncome())),
		fmt.Sprintf("Monthly expenses:  %s", calculator.FormatMoney(p.MonthlyExpenses)),
		fmt.Sprintf("Working days/year: %d", p.WorkingDaysPerYear),
		fmt.Sprintf("Emergency fund:    %s", formatGoal(p.EmergencyFundGoal)),
		fmt.Sprintf("Freedom fund:      %s", formatGoal(p.FreedomGoal)),
	}
	return RenderBox("Your baseline", strings.Join(lines, "\n"))
}

func formatGoal(goal *float64) string {
	if goal == nil {
		return SubtleStyle.Render("not set")
	}
	return calculator.FormatMoney(*goal)
}

// RenderCheckin draws the weekly check-in prompt.
func RenderCheckin() string {
	return RenderBox(HeartIcon+" "+checkin.Title,
		checkin.Intro+"\n\n"+BoldStyle.Render(checkin.Question)+"\n\n"+SubtleStyle.Render(checkin.Footer))
}

// RenderMatches draws reconciliation suggestions.
func RenderMatches(matches []reconcile.Match) string {
	if len(matches) == 0 {
		return SubtleStyle.Render("No undecided checks match a transaction.")
	}

	lines := []string{TableHeaderStyle.Render(fmt.Sprintf("%-36s  %-22s %10s  %-26s %10s  %s",
		"CHECK", "LABEL", "PRICE", "PAYEE", "AMOUNT", "POSTED"))}
	for _, m := range matches {
		lines = append(lines, fmt.Sprintf("%-36s  %-22s %10s  %-26s %10s  %s",
			m.Record.ID,
			truncate(m.Record.Label, 22),
			calculator.FormatMoney(m.Record.Price),
			truncate(m.Transaction.Payee, 26),
			"€"+m.Transaction.Amount.StringFixed(2),
			m.Transaction.Date.Format("2006-01-02")))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
