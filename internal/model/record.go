package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseRecord is one spending entry.
type ExpenseRecord struct {
	ID         string
	UniqueID   string
	Date       string // YYYY-MM-DD
	Merchant   string
	Purpose    string
	Amount     decimal.Decimal
	Category   Category
	PurchaseBy string
	OwnerID    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DateKey is the value records are ordered by.
func (e ExpenseRecord) DateKey() string { return e.Date }

// ReceivedRecord is one incoming payment.
type ReceivedRecord struct {
	ID          string
	UniqueID    string
	Date        string // YYYY-MM-DD
	Payer       string
	Project     string
	Amount      decimal.Decimal
	PaymentType string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DateKey is the value records are ordered by.
func (r ReceivedRecord) DateKey() string { return r.Date }
