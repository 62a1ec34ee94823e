package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetRecord is the single per-user budget document. A missing category
// limit is zero.
type BudgetRecord struct {
	OwnerID   string
	Limits    map[Category]decimal.Decimal
	UpdatedAt time.Time
}

// Limit returns the limit for c, zero when unset. Safe on a nil receiver.
func (b *BudgetRecord) Limit(c Category) decimal.Decimal {
	if b == nil || b.Limits == nil {
		return decimal.Zero
	}
	return b.Limits[c]
}
