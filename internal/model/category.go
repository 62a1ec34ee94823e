package model

import "strings"

// Category is the fixed expense category enum.
type Category string

const (
	Grocery       Category = "Grocery"
	Cosmetics     Category = "Cosmetics"
	Clothes       Category = "Clothes"
	Miscellaneous Category = "Miscellaneous"
)

// Categories lists every category in declaration order. Anything that
// iterates categories (aggregation, warnings, budget forms) uses this order.
var Categories = []Category{Grocery, Cosmetics, Clothes, Miscellaneous}

// BudgetField is the budget document field holding this category's limit.
func (c Category) BudgetField() string { return strings.ToLower(string(c)) }

// Valid reports whether c is one of the enum values.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if k == c {
			return true
		}
	}
	return false
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Kind identifies one of the live-subscribed record kinds.
type Kind string

const (
	KindExpense  Kind = "expense"
	KindReceived Kind = "received"
	KindBudget   Kind = "budget"
)

// SubscribedKinds are the kinds the listener manager keeps live.
var SubscribedKinds = []Kind{KindExpense, KindReceived, KindBudget}

// Collection is the store collection backing the kind.
func (k Kind) Collection() string {
	switch k {
	case KindExpense:
		return "expenses"
	case KindReceived:
		return "received"
	case KindBudget:
		return "budgets"
	}
	return ""
}

// ProfileCollection holds one profile document per user, keyed by uid.
const ProfileCollection = "users"
