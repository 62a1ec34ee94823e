package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintrack/internal/notify"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

const modalWidth = 56

func modal(border lipgloss.Color, body string) string {
	t := theme.Active
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Background(t.Surface).
		Padding(1, 3).
		Width(modalWidth).
		Render(body)
}

func (a App) renderNotice(n notify.Notice) string {
	t := theme.Active
	color := t.Severity(n.Severity)
	title := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true).Render(n.Title)
	msg := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(modalWidth - 6).Render(n.Message)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("enter: OK")
	return modal(color, title+"\n\n"+msg+"\n\n"+hint)
}

func (a App) renderConfirm(prompt string) string {
	t := theme.Active
	q := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true).Render(prompt)
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("y: yes   n/esc: no")
	return modal(t.Orange, q+"\n\n"+hint)
}

var helpRows = [][2]string{
	{"1-5", "switch tab"},
	{"tab / shift+tab", "next / previous tab"},
	{"j / k", "move selection"},
	{"g / G", "first / last record"},
	{"a", "add record"},
	{"e", "edit record, budget or profile"},
	{"d", "delete record"},
	{"p", "change password (Profile)"},
	{"o", "sign out (Profile)"},
	{"?", "toggle help"},
	{"q", "quit"},
}

func (a App) renderHelp() string {
	t := theme.Active
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for i, r := range helpRows {
		b.WriteString(keyStyle.Render(padRight(r[0], 18)))
		b.WriteString(descStyle.Render(r[1]))
		if i < len(helpRows)-1 {
			b.WriteString("\n")
		}
	}
	return modal(t.BorderAccent, b.String())
}

func padRight(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
