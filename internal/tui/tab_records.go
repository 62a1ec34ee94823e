package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

type column struct {
	title string
	width int // 0 takes the remaining width
	right bool
}

// renderList renders a selectable table inside a card. Rows are cut to the
// window around cursor that fits in h lines.
func renderList(title string, cols []column, rows [][]string, cursor, cw, h int, empty, hints string) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	fixed, flex := 0, 0
	for _, c := range cols {
		fixed += c.width + 1
		if c.width == 0 {
			flex++
		}
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = c.width
		if c.width == 0 && flex > 0 {
			widths[i] = max(6, (inner-fixed)/flex)
		}
	}

	cell := func(s string, i int) string {
		s = cli.Truncate(s, widths[i])
		if cols[i].right {
			return fmt.Sprintf("%*s", widths[i], s)
		}
		return fmt.Sprintf("%-*s", widths[i], s)
	}

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceHover).Bold(true)
	hintStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	var b strings.Builder
	head := make([]string, len(cols))
	for i, c := range cols {
		head[i] = cell(c.title, i)
	}
	b.WriteString(headStyle.Render(strings.Join(head, " ")))
	b.WriteString("\n")

	if len(rows) == 0 {
		b.WriteString(hintStyle.Render(empty))
		b.WriteString("\n")
	}

	start, end := listWindow(cursor, len(rows), h-listOverhead-2)
	for i := start; i < end; i++ {
		parts := make([]string, len(cols))
		for j := range cols {
			v := ""
			if j < len(rows[i]) {
				v = rows[i][j]
			}
			parts[j] = cell(v, j)
		}
		line := strings.Join(parts, " ")
		if i == cursor {
			b.WriteString(selStyle.Render(line))
		} else {
			b.WriteString(rowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(hintStyle.Render(hints))
	if len(rows) > 0 {
		b.WriteString(hintStyle.Render(fmt.Sprintf("   %d/%d", cursor+1, len(rows))))
	}
	return components.ContentCard(title, b.String(), cw)
}

const listHints = "[a]dd  [e]dit  [d]elete  j/k move"

func (a App) renderExpensesTab(cw, h int) string {
	cols := []column{
		{title: "Date", width: 10},
		{title: "ID", width: 24},
		{title: "Merchant", width: 0},
		{title: "Purpose", width: 0},
		{title: "Category", width: 13},
		{title: "By", width: 12},
		{title: "Amount", width: 16, right: true},
	}
	if a.isCompactLayout() {
		cols = append(cols[:1], cols[2:]...)
	}
	rows := make([][]string, len(a.expenses))
	for i, e := range a.expenses {
		row := []string{e.Date, e.UniqueID, e.Merchant, e.Purpose, string(e.Category), e.PurchaseBy, a.money(e.Amount)}
		if a.isCompactLayout() {
			row = append(row[:1], row[2:]...)
		}
		rows[i] = row
	}
	return renderList(fmt.Sprintf("Expenses (%s)", a.money(a.dash.TotalExpenses)), cols, rows, a.expCursor, cw, h,
		"No expenses yet. Press a to add one.", listHints)
}

func (a App) renderReceivedTab(cw, h int) string {
	cols := []column{
		{title: "Date", width: 10},
		{title: "ID", width: 24},
		{title: "Payer", width: 0},
		{title: "Project", width: 0},
		{title: "Type", width: 14},
		{title: "Amount", width: 16, right: true},
	}
	if a.isCompactLayout() {
		cols = append(cols[:1], cols[2:]...)
	}
	rows := make([][]string, len(a.received))
	for i, r := range a.received {
		row := []string{r.Date, r.UniqueID, r.Payer, r.Project, r.PaymentType, a.money(r.Amount)}
		if a.isCompactLayout() {
			row = append(row[:1], row[2:]...)
		}
		rows[i] = row
	}
	return renderList(fmt.Sprintf("Received (%s)", a.money(a.dash.TotalReceived)), cols, rows, a.recCursor, cw, h,
		"No payments yet. Press a to add one.", listHints)
}
