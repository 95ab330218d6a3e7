package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/mindspend/internal/calculator"
)

// CoolOffMessage is shown above the countdown.
const CoolOffMessage = "Take a breath. The real cost appears in a moment."

// View renders the model.
func (m Model) View() string {
	if m.canceled {
		return m.theme.Subtitle.Render("Cool-off canceled. Nothing was saved.") + "\n"
	}

	switch m.phase {
	case PhaseCoolingOff:
		return m.coolOffView()
	case PhaseResolving:
		return m.theme.Subtitle.Render("Working out the real cost…") + "\n"
	case PhaseResults:
		return m.resultsView()
	case PhaseFailed:
		return m.theme.StatusError.Render("Could not show results: "+m.err.Error()) + "\n"
	}
	return ""
}

func (m Model) coolOffView() string {
	seconds := int(math.Ceil(m.tick.Remaining.Seconds()))
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Title.Render("🧘 Pause"),
		m.theme.Subtitle.Render(CoolOffMessage),
		"",
		m.progress.ViewAs(m.tick.Progress),
		m.theme.Normal.Render(fmt.Sprintf("%ds left", seconds)),
		m.theme.Help.Render(m.help.ShortHelpView(m.keymap.coolOffHelp())),
	)
	return m.theme.RoundedBox.Render(body) + "\n"
}

func (m Model) resultsView() string {
	r := m.result
	lines := []string{
		m.theme.Title.Render(fmt.Sprintf("%s %s for %s", r.Category.Icon(), r.Label, calculator.FormatMoney(r.Price))),
		m.theme.Headline.Render(r.WorkTime + " of work"),
		m.theme.Subtitle.Render(r.TimeContext),
	}
	if r.MonthsOfExpenses != "" {
		lines = append(lines, "", m.theme.Normal.Render(r.MonthsOfExpenses+" of your monthly expenses"))
	}
	if weeks := r.Cost.WeeksOfGroceries; weeks != nil {
		lines = append(lines, m.theme.Normal.Render(decimal.NewFromFloat(*weeks).StringFixed(1)+" weeks of groceries"))
	}
	if days := r.Cost.EmergencyBufferDays; days != nil {
		lines = append(lines, m.theme.Normal.Render(decimal.NewFromFloat(*days).StringFixed(1)+" days of your emergency buffer"))
	}
	lines = append(lines, m.theme.Normal.Render(decimal.NewFromFloat(r.Cost.DaysOfUtilities).StringFixed(1)+" days of utilities"))

	for _, g := range r.Goals {
		lines = append(lines, "",
			m.theme.Bold.Render(g.Name)+"  "+m.theme.Headline.Render(g.Display)+" "+m.theme.Subtitle.Render(g.Description),
			m.progress.ViewAs(g.BarWidth/100))
	}

	lines = append(lines, "", m.theme.Bold.Render(calculator.RegretQuestion), m.answersView())
	if m.answer != "" {
		lines = append(lines, "", m.theme.Advice.Render(m.answer.Advice()))
	}
	if !m.quitting {
		lines = append(lines, m.theme.Help.Render(m.help.ShortHelpView(m.keymap.resultsHelp())))
	}

	return m.theme.RoundedBox.Render(strings.Join(lines, "\n")) + "\n"
}

func (m Model) answersView() string {
	options := make([]string, len(calculator.RegretAnswers))
	for i, a := range calculator.RegretAnswers {
		style := m.theme.Option
		if i == m.cursor {
			style = m.theme.Selected
		}
		options[i] = style.Render(a.Label())
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, options...)
}
