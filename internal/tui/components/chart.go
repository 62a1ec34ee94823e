package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

// Sparkline renders a unicode sparkline from values.
func Sparkline(values []decimal.Decimal, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	return style.Render(cli.RenderSparkline(values))
}

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value decimal.Decimal
	Text  string // shown after the bar
}

// HBarChart renders one horizontal bar per row, scaled to the largest
// value.
func HBarChart(rows []Bar, color lipgloss.Color, width int) string {
	if len(rows) == 0 {
		return ""
	}
	t := theme.Active

	labelW, textW := 0, 0
	peak := decimal.Zero
	for _, r := range rows {
		labelW = max(labelW, lipgloss.Width(r.Label))
		textW = max(textW, lipgloss.Width(r.Text))
		if r.Value.GreaterThan(peak) {
			peak = r.Value
		}
	}
	barW := width - labelW - textW - 2
	if barW < 4 {
		barW = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	lines := make([]string, len(rows))
	for i, r := range rows {
		filled := int(cli.Ratio(r.Value, peak) * float64(barW))
		if filled == 0 && r.Value.IsPositive() {
			filled = 1
		}
		lines[i] = labelStyle.Render(fmt.Sprintf("%-*s ", labelW, r.Label)) +
			barStyle.Render(strings.Repeat("█", filled)) +
			emptyStyle.Render(strings.Repeat("·", barW-filled)) +
			textStyle.Render(fmt.Sprintf(" %*s", textW, r.Text))
	}
	return strings.Join(lines, "\n")
}
