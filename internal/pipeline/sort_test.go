package pipeline

import (
	"testing"

	"github.com/theirongolddev/fintrack/internal/model"
)

func TestSortByDateDesc(t *testing.T) {
	in := []model.ExpenseRecord{
		{ID: "1", Date: "2024-01-05"},
		{ID: "2", Date: "2024-03-01"},
		{ID: "3", Date: "2024-02-10"},
	}

	got := SortByDateDesc(in)

	want := []string{"2024-03-01", "2024-02-10", "2024-01-05"}
	for i, d := range want {
		if got[i].Date != d {
			t.Fatalf("position %d = %s, want %s", i, got[i].Date, d)
		}
	}
	if in[0].Date != "2024-01-05" {
		t.Error("input slice was reordered")
	}
}

func TestSortByDateDescStable(t *testing.T) {
	in := []model.ReceivedRecord{
		{ID: "a", Date: "2024-01-01"},
		{ID: "b", Date: "2024-02-01"},
		{ID: "c", Date: "2024-01-01"},
		{ID: "d", Date: ""},
	}

	got := SortByDateDesc(in)

	order := ""
	for _, r := range got {
		order += r.ID
	}
	if order != "bacd" {
		t.Errorf("order = %q, want %q", order, "bacd")
	}
}
