package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/tui/theme"
)

func TestHBarChartScalesToPeak(t *testing.T) {
	rows := []Bar{
		{Label: "Grocery", Value: decimal.NewFromInt(80), Text: "80.00"},
		{Label: "Clothes", Value: decimal.NewFromInt(40), Text: "40.00"},
		{Label: "Cosmetics", Value: decimal.Zero, Text: "0.00"},
	}
	out := HBarChart(rows, theme.Active.Blue, 40)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	full := strings.Count(lines[0], "█")
	half := strings.Count(lines[1], "█")
	if full == 0 || half == 0 || half >= full {
		t.Fatalf("bar lengths grocery=%d clothes=%d", full, half)
	}
	if strings.Contains(lines[2], "█") {
		t.Fatal("zero row should have no filled cells")
	}
	for i, l := range lines {
		if w := lipgloss.Width(l); w != lipgloss.Width(lines[0]) {
			t.Errorf("line %d width = %d, want %d", i, w, lipgloss.Width(lines[0]))
		}
	}
}

func TestColorForUsage(t *testing.T) {
	th := theme.Active
	d := decimal.NewFromInt
	tests := []struct {
		spent, limit int64
		want         lipgloss.Color
	}{
		{0, 0, th.TextDim},
		{74, 100, th.Green},
		{75, 100, th.Orange},
		{100, 100, th.Red},
		{150, 100, th.Red},
	}
	for _, tt := range tests {
		if got := ColorForUsage(d(tt.spent), d(tt.limit), 75); got != tt.want {
			t.Errorf("ColorForUsage(%d, %d) = %v, want %v", tt.spent, tt.limit, got, tt.want)
		}
	}
}
