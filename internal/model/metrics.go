package model

import "github.com/shopspring/decimal"

// CategoryUsage is spend against budget for one category.
type CategoryUsage struct {
	Category     Category
	Budget       decimal.Decimal
	Spent        decimal.Decimal
	UsagePercent decimal.Decimal // 0 when Budget is 0
}

// BudgetWarning flags a category at or above the warning threshold.
type BudgetWarning struct {
	Category     Category
	UsagePercent decimal.Decimal
	Spent        decimal.Decimal
	Budget       decimal.Decimal
	Remaining    decimal.Decimal // may be negative
}

// DashboardSnapshot is the derived dashboard view. It is recomputed on
// every change and never stored.
type DashboardSnapshot struct {
	TotalExpenses  decimal.Decimal
	TotalReceived  decimal.Decimal
	NetBalance     decimal.Decimal
	PerCategory    []CategoryUsage // Categories order
	RecentExpenses []ExpenseRecord
	RecentReceived []ReceivedRecord
	Warnings       []BudgetWarning
}

// Usage returns the usage row for c.
func (s DashboardSnapshot) Usage(c Category) (CategoryUsage, bool) {
	for _, u := range s.PerCategory {
		if u.Category == c {
			return u, true
		}
	}
	return CategoryUsage{}, false
}

// DailyTotal is expense and received totals for one calendar date.
type DailyTotal struct {
	Date     string
	Expenses decimal.Decimal
	Received decimal.Decimal
}
