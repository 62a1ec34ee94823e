package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

// FeedState is how one record kind is kept current.
type FeedState struct {
	Label string
	Mode  string // live, fallback or off
}

// RenderStatusBar renders the bottom status bar: key hints on the left,
// the signed-in user and the feed state of each kind on the right.
func RenderStatusBar(width int, user string, feeds []FeedState) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	left := base.Render(" [?]help  [q]uit")

	var right []string
	for _, f := range feeds {
		color := t.TextDim
		switch f.Mode {
		case "live":
			color = t.Green
		case "fallback":
			color = t.Orange
		}
		dot := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render("●")
		right = append(right, dot+base.Render(" "+f.Label))
	}
	if user != "" {
		right = append(right, lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(user))
	}
	rightStr := strings.Join(right, base.Render("  ")) + base.Render(" ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}
	return left + base.Render(strings.Repeat(" ", padding)) + rightStr
}
