package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/store"
)

// BudgetInput holds entered limits by category. Categories left out are
// not written, so a save only merges what was given.
type BudgetInput map[model.Category]string

// BudgetInputFrom prefills a budget form from the stored record.
func BudgetInputFrom(b *model.BudgetRecord) BudgetInput {
	in := make(BudgetInput, len(model.Categories))
	for _, c := range model.Categories {
		in[c] = b.Limit(c).String()
	}
	return in
}

// Budgets manages the per-user budget document.
type Budgets struct{ *base }

// Get returns the user's budget, nil when none has been saved.
func (s *Budgets) Get(ctx context.Context) (*model.BudgetRecord, error) {
	st, id, err := s.scoped()
	if err != nil {
		return nil, err
	}
	doc, err := st.Get(ctx, model.KindBudget.Collection(), id.UID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.From(err)
	}
	return DecodeBudget(doc), nil
}

// Save merges the given limits into the budget document. Blank or
// unparseable values are stored as zero; negative values are rejected.
func (s *Budgets) Save(ctx context.Context, in BudgetInput) error {
	fields := make(map[string]any, len(in)+2)
	for c, raw := range in {
		if !c.Valid() {
			return apperr.WithMessage(apperr.ErrValidation, "Unknown budget category "+string(c))
		}
		amount := decimal.Zero
		if d, err := decimal.NewFromString(strings.TrimSpace(raw)); err == nil {
			amount = d
		}
		if amount.IsNegative() {
			return apperr.WithMessage(apperr.ErrValidation, "Budget amounts cannot be negative")
		}
		fields[c.BudgetField()] = amountValue(amount)
	}

	st, id, err := s.scoped()
	if err != nil {
		return err
	}
	fields[FieldOwner] = id.UID
	fields[FieldUpdatedAt] = store.ServerTimestamp
	if err := st.UpsertMerge(ctx, model.KindBudget.Collection(), id.UID, fields); err != nil {
		return apperr.From(err)
	}
	return nil
}
