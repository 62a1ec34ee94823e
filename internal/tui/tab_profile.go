package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

func (a App) renderProfileTab(cw int) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Bold(true)
	dim := lipgloss.NewStyle().Foreground(t.TextDim)

	field := func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		return labelStyle.Render(fmt.Sprintf("%-10s", label)) + valueStyle.Render(value)
	}

	body := strings.Join([]string{
		field("Name", a.profile.Name),
		field("Email", a.profile.Email),
		field("Mobile", a.profile.Mobile),
		"",
		dim.Render("[e]dit profile  [p] change password  [o] sign out"),
	}, "\n")

	w := cw
	if w > 72 {
		w = 72
	}
	return components.ContentCard("Profile", body, w)
}
