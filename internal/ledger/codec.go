// Package ledger maps store documents to records and implements the
// validated write paths for expenses, received payments, budgets and
// profiles.
package ledger

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/store"
)

// Wire field names.
const (
	FieldOwner       = "userId"
	FieldUniqueID    = "uniqueId"
	FieldDate        = "date"
	FieldMerchant    = "merchant"
	FieldPurpose     = "purpose"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldPurchaseBy  = "purchaseBy"
	FieldPayer       = "payer"
	FieldProject     = "project"
	FieldPaymentType = "paymentType"
	FieldName        = "name"
	FieldEmail       = "email"
	FieldMobile      = "mobile"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"
)

// DecodeExpense converts a document into an expense.
func DecodeExpense(doc store.Document) model.ExpenseRecord {
	cat := model.Category(doc.String(FieldCategory))
	if c, ok := model.ParseCategory(string(cat)); ok {
		cat = c
	}
	return model.ExpenseRecord{
		ID:         doc.ID,
		UniqueID:   doc.String(FieldUniqueID),
		Date:       doc.String(FieldDate),
		Merchant:   doc.String(FieldMerchant),
		Purpose:    doc.String(FieldPurpose),
		Amount:     model.ParseAmount(doc.Fields[FieldAmount]),
		Category:   cat,
		PurchaseBy: doc.String(FieldPurchaseBy),
		OwnerID:    doc.String(FieldOwner),
		CreatedAt:  doc.Time(FieldCreatedAt),
		UpdatedAt:  doc.Time(FieldUpdatedAt),
	}
}

// DecodeReceived converts a document into a received payment.
func DecodeReceived(doc store.Document) model.ReceivedRecord {
	return model.ReceivedRecord{
		ID:          doc.ID,
		UniqueID:    doc.String(FieldUniqueID),
		Date:        doc.String(FieldDate),
		Payer:       doc.String(FieldPayer),
		Project:     doc.String(FieldProject),
		Amount:      model.ParseAmount(doc.Fields[FieldAmount]),
		PaymentType: doc.String(FieldPaymentType),
		OwnerID:     doc.String(FieldOwner),
		CreatedAt:   doc.Time(FieldCreatedAt),
		UpdatedAt:   doc.Time(FieldUpdatedAt),
	}
}

// DecodeBudget converts the budget document. The owner falls back to the
// document id, which is the owner's uid.
func DecodeBudget(doc store.Document) *model.BudgetRecord {
	b := &model.BudgetRecord{
		OwnerID:   doc.String(FieldOwner),
		Limits:    make(map[model.Category]decimal.Decimal, len(model.Categories)),
		UpdatedAt: doc.Time(FieldUpdatedAt),
	}
	if b.OwnerID == "" {
		b.OwnerID = doc.ID
	}
	for _, c := range model.Categories {
		b.Limits[c] = model.ParseAmount(doc.Fields[c.BudgetField()])
	}
	return b
}

// DecodeProfile converts a users document.
func DecodeProfile(doc store.Document) model.Profile {
	return model.Profile{
		UID:    doc.ID,
		Name:   doc.String(FieldName),
		Email:  doc.String(FieldEmail),
		Mobile: doc.String(FieldMobile),
	}
}

// DecodeExpenses converts a snapshot, keeping its order.
func DecodeExpenses(docs []store.Document) []model.ExpenseRecord {
	out := make([]model.ExpenseRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, DecodeExpense(d))
	}
	return out
}

// DecodeReceivedList converts a snapshot, keeping its order.
func DecodeReceivedList(docs []store.Document) []model.ReceivedRecord {
	out := make([]model.ReceivedRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, DecodeReceived(d))
	}
	return out
}

// amountValue stores a decimal as an exact JSON number.
func amountValue(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// OwnerQuery is the per-user query for kind. Ordered list kinds sort by
// date descending; the budget addresses the uid document.
func OwnerQuery(kind model.Kind, uid string, ordered bool) store.Query {
	q := store.Query{Collection: kind.Collection()}
	if kind == model.KindBudget {
		q.DocID = uid
		return q
	}
	q.Where = []store.Filter{{Field: FieldOwner, Value: uid}}
	if ordered {
		q.OrderBy = FieldDate
		q.Desc = true
	}
	return q
}
