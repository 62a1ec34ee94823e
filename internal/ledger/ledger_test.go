package ledger

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/theirongolddev/fintrack/internal/apperr"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/store"
)

type fakeSession struct{ id model.Identity }

func (f *fakeSession) Current() model.Identity { return f.id }

type fakeAccounts struct {
	password    string
	email       string
	emailErr    error
	changedTo   string
	reauthCalls int
}

func (f *fakeAccounts) Reauthenticate(_ context.Context, pw string) error {
	f.reauthCalls++
	if pw != f.password {
		return apperr.ErrInvalidCredentials
	}
	return nil
}

func (f *fakeAccounts) ChangePassword(_ context.Context, pw string) error {
	f.changedTo = pw
	return nil
}

func (f *fakeAccounts) UpdateEmail(_ context.Context, email string) error {
	if f.emailErr != nil {
		return f.emailErr
	}
	f.email = email
	return nil
}

type fixture struct {
	store    *store.DocStore
	session  *fakeSession
	accounts *fakeAccounts
	svc      *Services
}

func newFixture(t *testing.T, opts store.Options) fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ledger.db"), opts)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	sess := &fakeSession{id: model.Identity{UID: "u1", Email: "u1@example.com"}}
	acc := &fakeAccounts{password: "old-secret"}
	svc := New(Deps{
		Store:    st,
		Session:  sess,
		Accounts: acc,
		Now:      func() time.Time { return time.UnixMilli(1718000000000) },
	})
	return fixture{store: st, session: sess, accounts: acc, svc: svc}
}

func validExpense() ExpenseInput {
	return ExpenseInput{
		Date:       "2024-06-01",
		Merchant:   "Corner Shop",
		Purpose:    "Weekly groceries",
		Amount:     "45.50",
		Category:   "grocery",
		PurchaseBy: "Ana",
	}
}

func assertCode(t *testing.T, err error, want *apperr.AppError) {
	t.Helper()
	if !apperr.Is(err, want) {
		t.Fatalf("got error %v (code %q), want code %q", err, apperr.Code(err), want.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})

	id, err := f.svc.Expenses.Create(ctx, validExpense())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := f.svc.Expenses.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !regexp.MustCompile(`^EXP-1718000000000-[0-9a-f]{9}$`).MatchString(got.UniqueID) {
		t.Errorf("UniqueID = %q", got.UniqueID)
	}
	if got.Category != model.Grocery || got.Amount.String() != "45.5" || got.OwnerID != "u1" {
		t.Errorf("unexpected record %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	in := ExpenseInputFrom(got)
	in.Merchant = "Market"
	if _, err := f.svc.Expenses.Save(ctx, id, in); err != nil {
		t.Fatalf("Save (update): %v", err)
	}
	updated, _ := f.svc.Expenses.Get(ctx, id)
	if updated.Merchant != "Market" {
		t.Errorf("Merchant = %q", updated.Merchant)
	}
	if updated.UniqueID != got.UniqueID {
		t.Errorf("UniqueID changed on edit: %q -> %q", got.UniqueID, updated.UniqueID)
	}

	if err := f.svc.Expenses.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = f.svc.Expenses.Get(ctx, id)
	assertCode(t, err, apperr.ErrNotFound)
	assertCode(t, f.svc.Expenses.Delete(ctx, id), apperr.ErrNotFound)
	assertCode(t, f.svc.Expenses.Update(ctx, id, validExpense()), apperr.ErrNotFound)
}

func TestExpenseValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})

	tests := []struct {
		name    string
		mutate  func(*ExpenseInput)
		message string
	}{
		{"missing merchant", func(in *ExpenseInput) { in.Merchant = "  " }, "Please fill in all fields"},
		{"zero amount", func(in *ExpenseInput) { in.Amount = "0" }, "Amount must be a number greater than zero"},
		{"negative amount", func(in *ExpenseInput) { in.Amount = "-3" }, "Amount must be a number greater than zero"},
		{"text amount", func(in *ExpenseInput) { in.Amount = "lots" }, "Amount must be a number greater than zero"},
		{"bad date", func(in *ExpenseInput) { in.Date = "01/06/2024" }, "Date must be in YYYY-MM-DD format"},
		{"bad category", func(in *ExpenseInput) { in.Category = "Toys" }, "Category must be one of Grocery, Cosmetics, Clothes, Miscellaneous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validExpense()
			tt.mutate(&in)
			_, err := f.svc.Expenses.Create(ctx, in)
			assertCode(t, err, apperr.ErrValidation)
			if err.Error() != tt.message {
				t.Errorf("message = %q, want %q", err.Error(), tt.message)
			}
		})
	}

	docs, _ := f.store.Query(ctx, store.Query{Collection: "expenses"})
	if len(docs) != 0 {
		t.Errorf("invalid input wrote %d documents", len(docs))
	}
}

func TestRequiresIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})
	f.session.id = model.Identity{}

	_, err := f.svc.Expenses.Create(ctx, validExpense())
	assertCode(t, err, apperr.ErrNotAuthenticated)
	_, err = f.svc.Received.List(ctx)
	assertCode(t, err, apperr.ErrNotAuthenticated)
	assertCode(t, f.svc.Budgets.Save(ctx, BudgetInput{model.Grocery: "1"}), apperr.ErrNotAuthenticated)
}

func TestForeignRecordsDenied(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})

	id, err := f.svc.Expenses.Create(ctx, validExpense())
	if err != nil {
		t.Fatal(err)
	}
	f.session.id = model.Identity{UID: "intruder", Email: "x@example.com"}

	_, err = f.svc.Expenses.Get(ctx, id)
	assertCode(t, err, apperr.ErrPermissionDenied)
	assertCode(t, f.svc.Expenses.Delete(ctx, id), apperr.ErrPermissionDenied)

	list, err := f.svc.Expenses.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("intruder sees %d expenses", len(list))
	}
}

func TestListFallsBackWithoutIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{EnforceIndexes: true})

	for _, d := range []string{"2024-01-05", "2024-03-01", "2024-02-10"} {
		in := ReceivedInput{Date: d, Payer: "ACME", Project: "Site", Amount: "10", PaymentType: "Bank"}
		if _, err := f.svc.Received.Create(ctx, in); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := f.svc.Received.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"2024-03-01", "2024-02-10", "2024-01-05"}
	for i, d := range want {
		if list[i].Date != d {
			t.Fatalf("List order = %v, want %v", list, want)
		}
	}
	if !regexp.MustCompile(`^REC-\d+-\w{9}$`).MatchString(list[0].UniqueID) {
		t.Errorf("UniqueID = %q", list[0].UniqueID)
	}
}

func TestBudgetSaveMerges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})

	b, err := f.svc.Budgets.Get(ctx)
	if err != nil || b != nil {
		t.Fatalf("Get before save = %+v, %v; want nil, nil", b, err)
	}

	if err := f.svc.Budgets.Save(ctx, BudgetInput{model.Grocery: "100", model.Clothes: ""}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := f.svc.Budgets.Save(ctx, BudgetInput{model.Cosmetics: "abc", model.Miscellaneous: "25.5"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	assertCode(t, f.svc.Budgets.Save(ctx, BudgetInput{model.Grocery: "-1"}), apperr.ErrValidation)

	b, err = f.svc.Budgets.Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	checks := map[model.Category]string{
		model.Grocery:       "100",
		model.Clothes:       "0",
		model.Cosmetics:     "0",
		model.Miscellaneous: "25.5",
	}
	for c, want := range checks {
		if got := b.Limit(c).String(); got != want {
			t.Errorf("%s limit = %s, want %s", c, got, want)
		}
	}
	if b.OwnerID != "u1" {
		t.Errorf("OwnerID = %q", b.OwnerID)
	}
}

func TestProfileFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})

	p, err := f.svc.Profiles.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Email != "u1@example.com" || p.Name != "" {
		t.Errorf("fallback profile = %+v", p)
	}

	if err := f.svc.Profiles.EnsureProfile(ctx); err != nil {
		t.Fatalf("EnsureProfile: %v", err)
	}
	p, _ = f.svc.Profiles.Load(ctx)
	if p.Name != "u1" || p.Mobile != "" {
		t.Errorf("bootstrapped profile = %+v", p)
	}

	err = f.svc.Profiles.Update(ctx, ProfileInput{Name: "Ana", Email: "ana@example.com"})
	assertCode(t, err, apperr.ErrValidation)

	if err := f.svc.Profiles.Update(ctx, ProfileInput{Name: "Ana", Email: "ana@example.com", Mobile: "7771234"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if f.accounts.email != "ana@example.com" {
		t.Errorf("sign-in email not updated: %q", f.accounts.email)
	}
	p, _ = f.svc.Profiles.Load(ctx)
	if p.Name != "Ana" || p.Mobile != "7771234" {
		t.Errorf("updated profile = %+v", p)
	}

	if err := f.svc.Profiles.EnsureProfile(ctx); err != nil {
		t.Fatal(err)
	}
	p, _ = f.svc.Profiles.Load(ctx)
	if p.Name != "Ana" {
		t.Error("EnsureProfile overwrote an existing profile")
	}
}

func TestProfileEmailRejectedLeavesProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})
	f.accounts.emailErr = apperr.ErrEmailInUse

	err := f.svc.Profiles.Update(ctx, ProfileInput{Name: "Ana", Email: "taken@example.com", Mobile: "1"})
	assertCode(t, err, apperr.ErrEmailInUse)
	if _, err := f.store.Get(ctx, model.ProfileCollection, "u1"); err == nil {
		t.Error("profile written despite rejected email")
	}
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, store.Options{})

	tests := []struct {
		name string
		in   PasswordInput
		want *apperr.AppError
		msg  string
	}{
		{"missing", PasswordInput{Current: "old-secret", New: "newpass"}, apperr.ErrValidation, "Please fill in all fields"},
		{"mismatch", PasswordInput{Current: "old-secret", New: "newpass", Confirm: "other1"}, apperr.ErrValidation, "Passwords do not match"},
		{"short", PasswordInput{Current: "old-secret", New: "abc", Confirm: "abc"}, apperr.ErrValidation, "Password must be at least 6 characters"},
		{"wrong current", PasswordInput{Current: "nope", New: "newpass", Confirm: "newpass"}, apperr.ErrInvalidCredentials, "Current password is incorrect"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.Profiles.ChangePassword(ctx, tt.in)
			assertCode(t, err, tt.want)
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
	if f.accounts.changedTo != "" {
		t.Fatal("password changed by a rejected request")
	}

	if err := f.svc.Profiles.ChangePassword(ctx, PasswordInput{Current: "old-secret", New: "newpass", Confirm: "newpass"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if f.accounts.changedTo != "newpass" {
		t.Errorf("changedTo = %q", f.accounts.changedTo)
	}
}

func TestDefaultName(t *testing.T) {
	tests := []struct {
		id   model.Identity
		want string
	}{
		{model.Identity{DisplayName: "Ana", Email: "a@b.c"}, "Ana"},
		{model.Identity{Email: "bob@example.com"}, "bob"},
		{model.Identity{}, "User"},
	}
	for _, tt := range tests {
		if got := DefaultName(tt.id); got != tt.want {
			t.Errorf("DefaultName(%+v) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestDecodeToleratesBadAmounts(t *testing.T) {
	e := DecodeExpense(store.Document{ID: "x", Fields: map[string]any{"amount": "n/a", "category": "clothes"}})
	if !e.Amount.IsZero() || e.Category != model.Clothes {
		t.Errorf("decoded %+v", e)
	}
	b := DecodeBudget(store.Document{ID: "u9", Fields: map[string]any{"grocery": "oops"}})
	if !b.Limit(model.Grocery).IsZero() || b.OwnerID != "u9" {
		t.Errorf("decoded budget %+v", b)
	}
}
