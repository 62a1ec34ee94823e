package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

const trendDays = 30

func (a App) money(d decimal.Decimal) string { return cli.FormatMoney(d, a.currency) }

func (a App) renderDashboardTab(cw int) string {
	t := theme.Active
	s := a.dash
	var b strings.Builder

	// Row 1: totals
	cards := []components.Metric{
		{Label: "Total Expenses", Value: a.money(s.TotalExpenses), Delta: fmt.Sprintf("%d records", len(a.expenses))},
		{Label: "Total Received", Value: a.money(s.TotalReceived), Delta: fmt.Sprintf("%d records", len(a.received))},
		{Label: "Net Balance", Value: a.money(s.NetBalance), Color: t.Balance(s.NetBalance.IsNegative())},
	}
	b.WriteString(components.MetricCardRow(cards, cw))
	b.WriteString("\n")

	// Row 2: budget vs spent, spend by category
	halves := components.LayoutRow(cw, 2)
	if a.isCompactLayout() {
		b.WriteString(components.ContentCard("Budget vs Spent", a.renderBudgetBars(components.CardInnerWidth(cw)), cw))
		b.WriteString("\n")
		b.WriteString(components.ContentCard("Spending by Category", a.renderCategoryChart(components.CardInnerWidth(cw)), cw))
	} else {
		b.WriteString(components.CardRow([]string{
			components.ContentCard("Budget vs Spent", a.renderBudgetBars(components.CardInnerWidth(halves[0])), halves[0]),
			components.ContentCard("Spending by Category", a.renderCategoryChart(components.CardInnerWidth(halves[1])), halves[1]),
		}))
	}
	b.WriteString("\n")

	// Row 3: warnings
	b.WriteString(components.ContentCard("Budget Warnings", a.renderWarnings(), cw))
	b.WriteString("\n")

	// Row 4: recent activity
	recentExp := components.ContentCard("Recent Expenses", a.renderRecentExpenses(components.CardInnerWidth(halves[0])), halves[0])
	recentRec := components.ContentCard("Recent Received", a.renderRecentReceived(components.CardInnerWidth(halves[1])), halves[1])
	b.WriteString(components.CardRow([]string{recentExp, recentRec}))
	b.WriteString("\n")

	// Row 5: daily trend
	if days := pipeline.AggregateDays(a.expenses, a.received); len(days) > 0 {
		b.WriteString(components.ContentCard(
			fmt.Sprintf("Daily Spending (last %d active days)", min(len(days), trendDays)),
			a.renderTrend(days),
			cw,
		))
	}

	return b.String()
}

func (a App) renderBudgetBars(w int) string {
	labelW := 0
	for _, c := range model.Categories {
		labelW = max(labelW, len(c))
	}
	barW := w - labelW - 8
	if barW < 6 {
		barW = 6
	}
	muted := lipgloss.NewStyle().Foreground(theme.Active.TextDim)

	var lines []string
	for _, c := range model.Categories {
		u, _ := a.dash.Usage(c)
		lines = append(lines, components.BudgetBar(string(c), u.Spent, u.Budget, pipeline.WarningThreshold, labelW, barW))
		lines = append(lines, muted.Render(fmt.Sprintf("%*s %s / %s", labelW, "", a.money(u.Spent), a.money(u.Budget))))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderCategoryChart(w int) string {
	rows := make([]components.Bar, 0, len(model.Categories))
	for _, c := range model.Categories {
		u, _ := a.dash.Usage(c)
		rows = append(rows, components.Bar{Label: string(c), Value: u.Spent, Text: a.money(u.Spent)})
	}
	return components.HBarChart(rows, theme.Active.Blue, w)
}

func (a App) renderWarnings() string {
	t := theme.Active
	if len(a.dash.Warnings) == 0 {
		return lipgloss.NewStyle().Foreground(t.Green).Render("All categories are within budget")
	}
	var lines []string
	for _, w := range a.dash.Warnings {
		color := t.Orange
		if !w.Remaining.IsPositive() {
			color = t.Red
		}
		style := lipgloss.NewStyle().Foreground(color)
		lines = append(lines, style.Render(fmt.Sprintf("⚠ %s: %s of budget used, %s remaining",
			w.Category, cli.FormatPercent(w.UsagePercent), a.money(w.Remaining))))
	}
	return strings.Join(lines, "\n")
}

func (a App) renderRecentExpenses(w int) string {
	if len(a.dash.RecentExpenses) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render("No expenses yet")
	}
	lines := make([]string, len(a.dash.RecentExpenses))
	for i, e := range a.dash.RecentExpenses {
		lines[i] = a.recentLine(e.Date, e.Merchant, e.Amount, w)
	}
	return strings.Join(lines, "\n")
}

func (a App) renderRecentReceived(w int) string {
	if len(a.dash.RecentReceived) == 0 {
		return lipgloss.NewStyle().Foreground(theme.Active.TextDim).Render("No payments yet")
	}
	lines := make([]string, len(a.dash.RecentReceived))
	for i, r := range a.dash.RecentReceived {
		lines[i] = a.recentLine(r.Date, r.Payer, r.Amount, w)
	}
	return strings.Join(lines, "\n")
}

func (a App) recentLine(date, who string, amount decimal.Decimal, w int) string {
	t := theme.Active
	amt := a.money(amount)
	whoW := w - len(date) - len(amt) - 2
	if whoW < 4 {
		whoW = 4
	}
	return lipgloss.NewStyle().Foreground(t.TextDim).Render(date) + " " +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Render(fmt.Sprintf("%-*s", whoW, cli.Truncate(who, whoW))) + " " +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render(amt)
}

func (a App) renderTrend(days []model.DailyTotal) string {
	t := theme.Active
	if len(days) > trendDays {
		days = days[len(days)-trendDays:]
	}
	spent := make([]decimal.Decimal, len(days))
	got := make([]decimal.Decimal, len(days))
	for i, d := range days {
		spent[i] = d.Expenses
		got[i] = d.Received
	}
	label := lipgloss.NewStyle().Foreground(t.TextMuted)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)
	return label.Render("spent    ") + components.Sparkline(spent, t.Red) + "\n" +
		label.Render("received ") + components.Sparkline(got, t.Green) + "\n" +
		dim.Render(fmt.Sprintf("%s … %s", days[0].Date, days[len(days)-1].Date))
}
