package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expense(date string, c model.Category, amount string) model.ExpenseRecord {
	return model.ExpenseRecord{Date: date, Category: c, Amount: dec(amount)}
}

func received(date, amount string) model.ReceivedRecord {
	return model.ReceivedRecord{Date: date, Amount: dec(amount)}
}

func budget(limits map[model.Category]string) *model.BudgetRecord {
	b := &model.BudgetRecord{Limits: map[model.Category]decimal.Decimal{}}
	for c, v := range limits {
		b.Limits[c] = dec(v)
	}
	return b
}

func TestAggregateEmpty(t *testing.T) {
	snap := Aggregate(nil, nil, nil)

	if !snap.TotalExpenses.IsZero() || !snap.TotalReceived.IsZero() || !snap.NetBalance.IsZero() {
		t.Errorf("expected zero totals, got %+v", snap)
	}
	if snap.Warnings == nil || len(snap.Warnings) != 0 {
		t.Errorf("Warnings = %#v, want empty non-nil slice", snap.Warnings)
	}
	if len(snap.PerCategory) != len(model.Categories) {
		t.Errorf("PerCategory has %d rows, want %d", len(snap.PerCategory), len(model.Categories))
	}
	if len(snap.RecentExpenses) != 0 || len(snap.RecentReceived) != 0 {
		t.Error("expected no recent items")
	}
}

func TestAggregateSingleGroceryWarning(t *testing.T) {
	snap := Aggregate(
		[]model.ExpenseRecord{expense("2024-01-01", model.Grocery, "80")},
		nil,
		budget(map[model.Category]string{model.Grocery: "100"}),
	)

	u, ok := snap.Usage(model.Grocery)
	if !ok {
		t.Fatal("no grocery usage row")
	}
	if !u.UsagePercent.Equal(dec("80")) {
		t.Errorf("usage = %s, want 80", u.UsagePercent)
	}
	if len(snap.Warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(snap.Warnings))
	}
	w := snap.Warnings[0]
	if w.Category != model.Grocery {
		t.Errorf("warning category = %s", w.Category)
	}
	if w.Remaining.StringFixed(2) != "20.00" {
		t.Errorf("remaining = %s, want 20.00", w.Remaining.StringFixed(2))
	}
}

func TestAggregateNetBalanceExact(t *testing.T) {
	// Values that drift under float64 accumulation.
	var exps []model.ExpenseRecord
	for i := 0; i < 10; i++ {
		exps = append(exps, expense("2024-01-01", model.Clothes, "0.1"))
	}
	recs := []model.ReceivedRecord{received("2024-01-02", "0.3"), received("2024-01-01", "0.6")}

	snap := Aggregate(exps, recs, nil)

	if !snap.TotalExpenses.Equal(dec("1")) {
		t.Errorf("TotalExpenses = %s, want exactly 1", snap.TotalExpenses)
	}
	if !snap.TotalExpenses.Sub(snap.TotalReceived).Equal(snap.NetBalance.Neg()) {
		t.Errorf("totalExpenses - totalReceived != -netBalance (%s, %s, %s)",
			snap.TotalExpenses, snap.TotalReceived, snap.NetBalance)
	}
	if !snap.NetBalance.Equal(dec("-0.1")) {
		t.Errorf("NetBalance = %s, want -0.1", snap.NetBalance)
	}
}

func TestAggregateZeroBudgetNeverWarns(t *testing.T) {
	snap := Aggregate(
		[]model.ExpenseRecord{expense("2024-01-01", model.Cosmetics, "1000")},
		nil,
		budget(map[model.Category]string{model.Cosmetics: "0"}),
	)
	if len(snap.Warnings) != 0 {
		t.Errorf("zero budget produced warnings: %+v", snap.Warnings)
	}
	u, _ := snap.Usage(model.Cosmetics)
	if !u.UsagePercent.IsZero() {
		t.Errorf("usage with zero budget = %s, want 0", u.UsagePercent)
	}
}

func TestAggregateWarningsThresholdAndOrder(t *testing.T) {
	exps := []model.ExpenseRecord{
		expense("2024-03-01", model.Miscellaneous, "200"), // 200%
		expense("2024-03-01", model.Clothes, "74.99"),     // just under
		expense("2024-02-01", model.Grocery, "75"),        // exactly 75%
		expense("2024-01-01", model.Cosmetics, "10"),      // no budget
	}
	b := budget(map[model.Category]string{
		model.Grocery:       "100",
		model.Clothes:       "100",
		model.Miscellaneous: "100",
	})

	snap := Aggregate(exps, nil, b)

	if len(snap.Warnings) != 2 {
		t.Fatalf("got %d warnings, want 2: %+v", len(snap.Warnings), snap.Warnings)
	}
	if snap.Warnings[0].Category != model.Grocery || snap.Warnings[1].Category != model.Miscellaneous {
		t.Errorf("warnings not in category order: %s, %s", snap.Warnings[0].Category, snap.Warnings[1].Category)
	}
	if got := snap.Warnings[1].Remaining; !got.Equal(dec("-100")) {
		t.Errorf("over-budget remaining = %s, want -100", got)
	}
}

func TestAggregateThirdsBoundary(t *testing.T) {
	// 0.75 of 3 is exactly 2.25; division must not push it below the threshold.
	snap := Aggregate(
		[]model.ExpenseRecord{expense("2024-01-01", model.Grocery, "2.25")},
		nil,
		budget(map[model.Category]string{model.Grocery: "3"}),
	)
	if len(snap.Warnings) != 1 {
		t.Fatalf("expected boundary warning, got %+v", snap.Warnings)
	}
}

func TestAggregateRecentItems(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"fewer than limit", 3, 3},
		{"exactly limit", 5, 5},
		{"more than limit", 8, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exps []model.ExpenseRecord
			var recs []model.ReceivedRecord
			for i := 0; i < tt.n; i++ {
				exps = append(exps, model.ExpenseRecord{ID: string(rune('a' + i))})
				recs = append(recs, model.ReceivedRecord{ID: string(rune('a' + i))})
			}

			snap := Aggregate(exps, recs, nil)

			if len(snap.RecentExpenses) != tt.want || len(snap.RecentReceived) != tt.want {
				t.Fatalf("recent lengths = %d/%d, want %d", len(snap.RecentExpenses), len(snap.RecentReceived), tt.want)
			}
			for i := range snap.RecentExpenses {
				if snap.RecentExpenses[i].ID != exps[i].ID || snap.RecentReceived[i].ID != recs[i].ID {
					t.Errorf("recent item %d out of input order", i)
				}
			}
		})
	}
}

func TestAggregateDoesNotAliasInput(t *testing.T) {
	exps := []model.ExpenseRecord{{ID: "a"}, {ID: "b"}}
	snap := Aggregate(exps, nil, nil)
	snap.RecentExpenses[0].ID = "mutated"
	if exps[0].ID != "a" {
		t.Error("snapshot shares backing array with input")
	}
}

func TestAggregateDays(t *testing.T) {
	days := AggregateDays(
		[]model.ExpenseRecord{
			expense("2024-01-02", model.Grocery, "5"),
			expense("2024-01-01", model.Grocery, "2.5"),
			expense("2024-01-02", model.Clothes, "1"),
			expense("", model.Clothes, "99"),
		},
		[]model.ReceivedRecord{received("2024-01-03", "10")},
	)

	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	if days[0].Date != "2024-01-01" || days[2].Date != "2024-01-03" {
		t.Errorf("days not oldest first: %+v", days)
	}
	if !days[1].Expenses.Equal(dec("6")) {
		t.Errorf("2024-01-02 expenses = %s, want 6", days[1].Expenses)
	}
	if !days[2].Received.Equal(dec("10")) {
		t.Errorf("2024-01-03 received = %s, want 10", days[2].Received)
	}
}
