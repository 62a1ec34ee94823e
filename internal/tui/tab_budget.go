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

func (a App) renderBudgetTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)

	const catW, moneyW = 14, 18
	var b strings.Builder
	b.WriteString(headStyle.Render(fmt.Sprintf("%-*s %*s %*s %*s %8s",
		catW, "Category", moneyW, "Limit", moneyW, "Spent", moneyW, "Remaining", "Used")))
	b.WriteString("\n")

	total, spent := decimal.Zero, decimal.Zero
	for _, c := range model.Categories {
		u, _ := a.dash.Usage(c)
		total = total.Add(u.Budget)
		spent = spent.Add(u.Spent)
		remaining := u.Budget.Sub(u.Spent)
		used := dim.Render(fmt.Sprintf("%8s", "-"))
		if u.Budget.IsPositive() {
			used = lipgloss.NewStyle().Foreground(components.ColorForUsage(u.Spent, u.Budget, pipeline.WarningThreshold)).
				Render(fmt.Sprintf("%8s", cli.FormatPercent(u.UsagePercent)))
		}
		b.WriteString(rowStyle.Render(fmt.Sprintf("%-*s %*s %*s ", catW, c, moneyW, a.money(u.Budget), moneyW, a.money(u.Spent))))
		b.WriteString(lipgloss.NewStyle().Foreground(t.Balance(remaining.IsNegative())).Render(fmt.Sprintf("%*s", moneyW, a.money(remaining))))
		b.WriteString(" ")
		b.WriteString(used)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render(fmt.Sprintf("Total budget %s, spent %s", a.money(total), a.money(spent))))
	b.WriteString("\n")
	if a.budget == nil {
		b.WriteString(dim.Render("No budget saved yet. "))
	}
	b.WriteString(dim.Render(fmt.Sprintf("Categories at %d%% or more of their limit are flagged.  [e]dit", pipeline.WarningThreshold)))

	limits := components.ContentCard("Monthly Budget", b.String(), cw)

	var bars []string
	barW := inner - catWidth() - 8
	if barW < 6 {
		barW = 6
	}
	for _, c := range model.Categories {
		u, _ := a.dash.Usage(c)
		bars = append(bars, components.BudgetBar(string(c), u.Spent, u.Budget, pipeline.WarningThreshold, catWidth(), barW))
	}
	usage := components.ContentCard("Usage", strings.Join(bars, "\n"), cw)

	return limits + "\n" + usage
}

func catWidth() int {
	w := 0
	for _, c := range model.Categories {
		w = max(w, len(c))
	}
	return w
}
