package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/logger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/store"
)

// Session reports who is signed in.
type Session interface {
	Current() model.Identity
}

// Accounts is the part of the identity provider profile changes need.
type Accounts interface {
	Reauthenticate(ctx context.Context, currentPassword string) error
	ChangePassword(ctx context.Context, newPassword string) error
	UpdateEmail(ctx context.Context, email string) error
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store    store.Store
	Session  Session
	Accounts Accounts
	Logger   *zap.SugaredLogger
	Now      func() time.Time
}

// Services groups the record services.
type Services struct {
	Expenses *Expenses
	Received *Received
	Budgets  *Budgets
	Profiles *Profiles
}

// New builds every service over deps.
func New(deps Deps) *Services {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	b := &base{
		store:    deps.Store,
		session:  deps.Session,
		validate: newValidator(),
		log:      logger.OrNop(deps.Logger).With("component", "ledger"),
		now:      deps.Now,
	}
	return &Services{
		Expenses: &Expenses{base: b},
		Received: &Received{base: b},
		Budgets:  &Budgets{base: b},
		Profiles: &Profiles{base: b, accounts: deps.Accounts},
	}
}

type base struct {
	store    store.Store
	session  Session
	validate *validator.Validate
	log      *zap.SugaredLogger
	now      func() time.Time
}

// scoped returns the store confined to the signed-in user.
func (b *base) scoped() (store.Store, model.Identity, error) {
	id := b.session.Current()
	if id.IsZero() {
		return nil, id, apperr.ErrNotAuthenticated
	}
	return store.Owned(b.store, FieldOwner, id.UID), id, nil
}

// displayID builds the human-facing record id, e.g. EXP-1718000000000-k3j9x0a1b.
func (b *base) displayID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s-%d-%s", prefix, b.now().UnixMilli(), suffix)
}

// list runs the ordered owner query, falling back to an unordered read
// when the store cannot order it.
func (b *base) list(ctx context.Context, kind model.Kind) ([]store.Document, bool, error) {
	st, id, err := b.scoped()
	if err != nil {
		return nil, false, err
	}
	docs, err := st.Query(ctx, OwnerQuery(kind, id.UID, true))
	if err == nil {
		return docs, true, nil
	}
	if !errors.Is(err, store.ErrIndexRequired) {
		return nil, false, apperr.From(err)
	}
	b.log.Infow("ordered query unsupported, sorting locally", "kind", kind)
	docs, err = st.Query(ctx, OwnerQuery(kind, id.UID, false))
	if err != nil {
		return nil, false, apperr.From(err)
	}
	return docs, false, nil
}

// ExpenseInput is the user-entered form of an expense.
type ExpenseInput struct {
	Date       string `validate:"required,datetime=2006-01-02"`
	Merchant   string `validate:"required"`
	Purpose    string `validate:"required"`
	Amount     string `validate:"required,amount"`
	Category   string `validate:"required,category"`
	PurchaseBy string `validate:"required"`
}

// ExpenseInputFrom prefills an edit form from a stored record.
func ExpenseInputFrom(e model.ExpenseRecord) ExpenseInput {
	return ExpenseInput{
		Date:       e.Date,
		Merchant:   e.Merchant,
		Purpose:    e.Purpose,
		Amount:     e.Amount.String(),
		Category:   string(e.Category),
		PurchaseBy: e.PurchaseBy,
	}
}

func (in *ExpenseInput) fields(uid string) map[string]any {
	cat, _ := model.ParseCategory(in.Category)
	amount := model.ParseAmount(in.Amount)
	return map[string]any{
		FieldDate:       in.Date,
		FieldMerchant:   in.Merchant,
		FieldPurpose:    in.Purpose,
		FieldAmount:     amountValue(amount),
		FieldCategory:   string(cat),
		FieldPurchaseBy: in.PurchaseBy,
		FieldOwner:      uid,
		FieldUpdatedAt:  store.ServerTimestamp,
	}
}

// Expenses manages expense records.
type Expenses struct{ *base }

// Save creates the expense when id is empty and updates it otherwise.
func (s *Expenses) Save(ctx context.Context, id string, in ExpenseInput) (string, error) {
	if id == "" {
		return s.Create(ctx, in)
	}
	return id, s.Update(ctx, id, in)
}

// Create validates and stores a new expense with a fresh display id.
func (s *Expenses) Create(ctx context.Context, in ExpenseInput) (string, error) {
	trim(&in.Date, &in.Merchant, &in.Purpose, &in.Amount, &in.Category, &in.PurchaseBy)
	if err := check(s.validate, in); err != nil {
		return "", err
	}
	st, ident, err := s.scoped()
	if err != nil {
		return "", err
	}
	fields := in.fields(ident.UID)
	fields[FieldUniqueID] = s.displayID("EXP")
	fields[FieldCreatedAt] = store.ServerTimestamp

	id, err := st.Create(ctx, model.KindExpense.Collection(), fields)
	if err != nil {
		return "", apperr.From(err)
	}
	return id, nil
}

// Update rewrites an existing expense. The display id and creation time
// are left untouched.
func (s *Expenses) Update(ctx context.Context, id string, in ExpenseInput) error {
	trim(&in.Date, &in.Merchant, &in.Purpose, &in.Amount, &in.Category, &in.PurchaseBy)
	if err := check(s.validate, in); err != nil {
		return err
	}
	st, ident, err := s.scoped()
	if err != nil {
		return err
	}
	if err := st.Update(ctx, model.KindExpense.Collection(), id, in.fields(ident.UID)); err != nil {
		return apperr.From(err)
	}
	return nil
}

// Get reads one expense directly.
func (s *Expenses) Get(ctx context.Context, id string) (model.ExpenseRecord, error) {
	st, _, err := s.scoped()
	if err != nil {
		return model.ExpenseRecord{}, err
	}
	doc, err := st.Get(ctx, model.KindExpense.Collection(), id)
	if err != nil {
		return model.ExpenseRecord{}, apperr.From(err)
	}
	return DecodeExpense(doc), nil
}

// Delete removes an expense.
func (s *Expenses) Delete(ctx context.Context, id string) error {
	st, _, err := s.scoped()
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, model.KindExpense.Collection(), id); err != nil {
		return apperr.From(err)
	}
	return nil
}

// List returns the user's expenses, newest first.
func (s *Expenses) List(ctx context.Context) ([]model.ExpenseRecord, error) {
	docs, ordered, err := s.list(ctx, model.KindExpense)
	if err != nil {
		return nil, err
	}
	out := DecodeExpenses(docs)
	if !ordered {
		out = pipeline.SortByDateDesc(out)
	}
	return out, nil
}

// ReceivedInput is the user-entered form of a received payment.
type ReceivedInput struct {
	Date        string `validate:"required,datetime=2006-01-02"`
	Payer       string `validate:"required"`
	Project     string `validate:"required"`
	Amount      string `validate:"required,amount"`
	PaymentType string `validate:"required"`
}

// ReceivedInputFrom prefills an edit form from a stored record.
func ReceivedInputFrom(r model.ReceivedRecord) ReceivedInput {
	return ReceivedInput{
		Date:        r.Date,
		Payer:       r.Payer,
		Project:     r.Project,
		Amount:      r.Amount.String(),
		PaymentType: r.PaymentType,
	}
}

func (in *ReceivedInput) fields(uid string) map[string]any {
	return map[string]any{
		FieldDate:        in.Date,
		FieldPayer:       in.Payer,
		FieldProject:     in.Project,
		FieldAmount:      amountValue(model.ParseAmount(in.Amount)),
		FieldPaymentType: in.PaymentType,
		FieldOwner:       uid,
		FieldUpdatedAt:   store.ServerTimestamp,
	}
}

// Received manages received-payment records.
type Received struct{ *base }

// Save creates the record when id is empty and updates it otherwise.
func (s *Received) Save(ctx context.Context, id string, in ReceivedInput) (string, error) {
	if id == "" {
		return s.Create(ctx, in)
	}
	return id, s.Update(ctx, id, in)
}

// Create validates and stores a new received payment.
func (s *Received) Create(ctx context.Context, in ReceivedInput) (string, error) {
	trim(&in.Date, &in.Payer, &in.Project, &in.Amount, &in.PaymentType)
	if err := check(s.validate, in); err != nil {
		return "", err
	}
	st, ident, err := s.scoped()
	if err != nil {
		return "", err
	}
	fields := in.fields(ident.UID)
	fields[FieldUniqueID] = s.displayID("REC")
	fields[FieldCreatedAt] = store.ServerTimestamp

	id, err := st.Create(ctx, model.KindReceived.Collection(), fields)
	if err != nil {
		return "", apperr.From(err)
	}
	return id, nil
}

// Update rewrites an existing received payment.
func (s *Received) Update(ctx context.Context, id string, in ReceivedInput) error {
	trim(&in.Date, &in.Payer, &in.Project, &in.Amount, &in.PaymentType)
	if err := check(s.validate, in); err != nil {
		return err
	}
	st, ident, err := s.scoped()
	if err != nil {
		return err
	}
	if err := st.Update(ctx, model.KindReceived.Collection(), id, in.fields(ident.UID)); err != nil {
		return apperr.From(err)
	}
	return nil
}

// Get reads one received payment directly.
func (s *Received) Get(ctx context.Context, id string) (model.ReceivedRecord, error) {
	st, _, err := s.scoped()
	if err != nil {
		return model.ReceivedRecord{}, err
	}
	doc, err := st.Get(ctx, model.KindReceived.Collection(), id)
	if err != nil {
		return model.ReceivedRecord{}, apperr.From(err)
	}
	return DecodeReceived(doc), nil
}

// Delete removes a received payment.
func (s *Received) Delete(ctx context.Context, id string) error {
	st, _, err := s.scoped()
	if err != nil {
		return err
	}
	if err := st.Delete(ctx, model.KindReceived.Collection(), id); err != nil {
		return apperr.From(err)
	}
	return nil
}

// List returns the user's received payments, newest first.
func (s *Received) List(ctx context.Context) ([]model.ReceivedRecord, error) {
	docs, ordered, err := s.list(ctx, model.KindReceived)
	if err != nil {
		return nil, err
	}
	out := DecodeReceivedList(docs)
	if !ordered {
		out = pipeline.SortByDateDesc(out)
	}
	return out, nil
}
