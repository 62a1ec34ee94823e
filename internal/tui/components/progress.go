package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

// ColorForUsage returns green below warnAt percent, orange from warnAt and
// red once the limit is reached.
func ColorForUsage(spent, limit decimal.Decimal, warnAt int64) lipgloss.Color {
	t := theme.Active
	switch {
	case !limit.IsPositive():
		return t.TextDim
	case spent.GreaterThanOrEqual(limit):
		return t.Red
	case spent.Mul(decimal.NewFromInt(100)).GreaterThanOrEqual(limit.Mul(decimal.NewFromInt(warnAt))):
		return t.Orange
	}
	return t.Green
}

// BudgetBar renders a labelled spend-vs-limit bar followed by the usage
// percentage. Categories without a limit show a dim empty bar.
func BudgetBar(label string, spent, limit decimal.Decimal, warnAt int64, labelW, barWidth int) string {
	t := theme.Active
	color := ColorForUsage(spent, limit, warnAt)
	pct := cli.Ratio(spent, limit)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	pctStr := "  n/a"
	if limit.IsPositive() {
		pctStr = fmt.Sprintf("%5s", cli.PercentOf(spent, limit).StringFixed(0)+"%")
	}

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(pctStr)
}
