package tui

import (
	"testing"

	"github.com/theirongolddev/fintrack/internal/app"
)

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active, tab := range app.Tabs {
		a := App{state: app.State{Screen: app.ScreenAuthenticated, Tab: tab}}
		pos := 0

		for i := range app.Tabs {
			w := tabWidthForTest(i, active)
			x := pos + w/2 // midpoint inside this tab
			if got := a.tabAtX(x); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, x, got, i)
			}
			pos += w
			if i < len(app.Tabs)-1 {
				pos++ // separator
			}
		}
	}
}

func TestTabAtXOutsideBar(t *testing.T) {
	a := App{}
	if got := a.tabAtX(1000); got != -1 {
		t.Fatalf("tabAtX(1000) = %d, want -1", got)
	}
}

func tabWidthForTest(tabIdx, activeIdx int) int {
	names := []string{"Dashboard", "Expenses", "Received", "Budget", "Profile"}
	w := len(names[tabIdx]) + 2 // horizontal padding
	if tabIdx != activeIdx {
		w += 2 // inactive tabs show "N "
	}
	return w
}

func TestListWindowKeepsCursorVisible(t *testing.T) {
	tests := []struct {
		cursor, n, visible int
		start, end         int
	}{
		{0, 3, 10, 0, 3},
		{0, 20, 5, 0, 5},
		{7, 20, 5, 3, 8},
		{19, 20, 5, 15, 20},
		{2, 20, 0, 2, 3},
	}
	for _, tt := range tests {
		s, e := listWindow(tt.cursor, tt.n, tt.visible)
		if s != tt.start || e != tt.end {
			t.Errorf("listWindow(%d,%d,%d) = %d,%d, want %d,%d", tt.cursor, tt.n, tt.visible, s, e, tt.start, tt.end)
		}
	}
}

func TestClampCursor(t *testing.T) {
	tests := []struct{ c, n, want int }{
		{5, 3, 2},
		{-1, 3, 0},
		{0, 0, 0},
		{1, 3, 1},
	}
	for _, tt := range tests {
		if got := clampCursor(tt.c, tt.n); got != tt.want {
			t.Errorf("clampCursor(%d,%d) = %d, want %d", tt.c, tt.n, got, tt.want)
		}
	}
}
