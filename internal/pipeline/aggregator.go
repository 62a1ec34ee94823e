// Package pipeline turns raw ledger records into dashboard metrics.
package pipeline

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/model"
)

const (
	// WarningThreshold is the usage percent at which a category is flagged.
	WarningThreshold = 75
	// RecentLimit caps the recent-items lists.
	RecentLimit = 5
)

var hundred = decimal.NewFromInt(100)

// Aggregate computes the dashboard snapshot. Expenses and received are
// expected date-descending already; recent items keep the given order.
// A nil budget counts as zero for every category. Aggregate never fails.
func Aggregate(expenses []model.ExpenseRecord, received []model.ReceivedRecord, budget *model.BudgetRecord) model.DashboardSnapshot {
	var snap model.DashboardSnapshot

	spentBy := make(map[model.Category]decimal.Decimal, len(model.Categories))
	for _, e := range expenses {
		snap.TotalExpenses = snap.TotalExpenses.Add(e.Amount)
		spentBy[e.Category] = spentBy[e.Category].Add(e.Amount)
	}
	for _, r := range received {
		snap.TotalReceived = snap.TotalReceived.Add(r.Amount)
	}
	snap.NetBalance = snap.TotalReceived.Sub(snap.TotalExpenses)

	snap.PerCategory = make([]model.CategoryUsage, 0, len(model.Categories))
	snap.Warnings = []model.BudgetWarning{}
	for _, c := range model.Categories {
		u := model.CategoryUsage{
			Category: c,
			Budget:   budget.Limit(c),
			Spent:    spentBy[c],
		}
		if u.Budget.IsPositive() {
			u.UsagePercent = u.Spent.Mul(hundred).Div(u.Budget)
		}
		snap.PerCategory = append(snap.PerCategory, u)

		if overThreshold(u.Spent, u.Budget) {
			snap.Warnings = append(snap.Warnings, model.BudgetWarning{
				Category:     c,
				UsagePercent: u.UsagePercent,
				Spent:        u.Spent,
				Budget:       u.Budget,
				Remaining:    u.Budget.Sub(u.Spent),
			})
		}
	}

	snap.RecentExpenses = firstN(expenses, RecentLimit)
	snap.RecentReceived = firstN(received, RecentLimit)
	return snap
}

// overThreshold compares spent*100 >= budget*75 so the boundary is exact.
func overThreshold(spent, budget decimal.Decimal) bool {
	if !budget.IsPositive() {
		return false
	}
	return spent.Mul(hundred).GreaterThanOrEqual(budget.Mul(decimal.NewFromInt(WarningThreshold)))
}

func firstN[T any](items []T, n int) []T {
	if len(items) < n {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}

// AggregateDays totals expenses and received per calendar date, oldest
// first. Records without a date are skipped.
func AggregateDays(expenses []model.ExpenseRecord, received []model.ReceivedRecord) []model.DailyTotal {
	dayMap := make(map[string]*model.DailyTotal)
	get := func(date string) *model.DailyTotal {
		d, ok := dayMap[date]
		if !ok {
			d = &model.DailyTotal{Date: date}
			dayMap[date] = d
		}
		return d
	}

	for _, e := range expenses {
		if e.Date == "" {
			continue
		}
		d := get(e.Date)
		d.Expenses = d.Expenses.Add(e.Amount)
	}
	for _, r := range received {
		if r.Date == "" {
			continue
		}
		d := get(r.Date)
		d.Received = d.Received.Add(r.Amount)
	}

	out := make([]model.DailyTotal, 0, len(dayMap))
	for _, d := range dayMap {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
