package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
)

type formKind int

const (
	formNone formKind = iota
	formLogin
	formSignup
	formExpense
	formReceived
	formBudget
	formProfile
	formPassword
)

func (k formKind) isAuth() bool { return k == formLogin || k == formSignup }

func (k formKind) title() string {
	switch k {
	case formLogin:
		return "Sign in"
	case formSignup:
		return "Create account"
	case formExpense:
		return "Expense"
	case formReceived:
		return "Received"
	case formBudget:
		return "Monthly budget"
	case formProfile:
		return "Edit profile"
	case formPassword:
		return "Change password"
	}
	return ""
}

// formValues holds every field a form binds to. huh writes through these
// pointers, so a form and its values travel together.
type formValues struct {
	email    string
	password string
	signup   ledger.SignupInput
	expense  ledger.ExpenseInput
	received ledger.ReceivedInput
	limits   [4]string // model.Categories order
	profile  ledger.ProfileInput
	change   ledger.PasswordInput
	editID   string
}

func (v *formValues) budgetInput() ledger.BudgetInput {
	in := make(ledger.BudgetInput, len(model.Categories))
	for i, c := range model.Categories {
		in[c] = v.limits[i]
	}
	return in
}

// opDoneMsg reports a finished write. On failure the form it came from is
// reopened with the same values.
type opDoneMsg struct {
	kind formKind
	vals *formValues
	err  error
}

// editLoadedMsg carries a record read for editing.
type editLoadedMsg struct {
	kind     formKind
	id       string
	expense  model.ExpenseRecord
	received model.ReceivedRecord
	err      error
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(model.Categories))
	for i, c := range model.Categories {
		opts[i] = huh.NewOption(string(c), string(c))
	}
	return opts
}

func password(title string, v *string) *huh.Input {
	return huh.NewInput().Title(title).EchoMode(huh.EchoModePassword).Value(v)
}

func buildForm(kind formKind, v *formValues) *huh.Form {
	var group *huh.Group
	switch kind {
	case formLogin:
		group = huh.NewGroup(
			huh.NewInput().Title("Email").Value(&v.email),
			password("Password", &v.password),
		)
	case formSignup:
		group = huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.signup.Name),
			huh.NewInput().Title("Email").Value(&v.signup.Email),
			huh.NewInput().Title("Mobile").Value(&v.signup.Mobile),
			password("Password", &v.signup.Password),
			password("Confirm password", &v.signup.Confirm),
		)
	case formExpense:
		if v.expense.Category == "" {
			v.expense.Category = string(model.Grocery)
		}
		group = huh.NewGroup(
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(&v.expense.Date),
			huh.NewInput().Title("Merchant").Value(&v.expense.Merchant),
			huh.NewInput().Title("Purpose").Value(&v.expense.Purpose),
			huh.NewInput().Title("Amount").Value(&v.expense.Amount),
			huh.NewSelect[string]().Title("Category").Options(categoryOptions()...).Value(&v.expense.Category),
			huh.NewInput().Title("Purchased by").Value(&v.expense.PurchaseBy),
		)
	case formReceived:
		group = huh.NewGroup(
			huh.NewInput().Title("Date").Placeholder("YYYY-MM-DD").Value(&v.received.Date),
			huh.NewInput().Title("Payer").Value(&v.received.Payer),
			huh.NewInput().Title("Project").Value(&v.received.Project),
			huh.NewInput().Title("Amount").Value(&v.received.Amount),
			huh.NewInput().Title("Payment type").Value(&v.received.PaymentType),
		)
	case formBudget:
		fields := make([]huh.Field, len(model.Categories))
		for i, c := range model.Categories {
			fields[i] = huh.NewInput().Title(string(c)).Placeholder("0").Value(&v.limits[i])
		}
		group = huh.NewGroup(fields...)
	case formProfile:
		group = huh.NewGroup(
			huh.NewInput().Title("Name").Value(&v.profile.Name),
			huh.NewInput().Title("Email").Value(&v.profile.Email),
			huh.NewInput().Title("Mobile").Value(&v.profile.Mobile),
		)
	case formPassword:
		group = huh.NewGroup(
			password("Current password", &v.change.Current),
			password("New password", &v.change.New),
			password("Confirm new password", &v.change.Confirm),
		)
	default:
		return nil
	}
	return huh.NewForm(group.Title(kind.title())).
		WithTheme(huh.ThemeBase16()).
		WithShowHelp(true)
}

// openForm shows a form for kind bound to v.
func (a *App) openForm(kind formKind, v *formValues) tea.Cmd {
	f := buildForm(kind, v)
	if f == nil {
		return nil
	}
	if a.width > 0 {
		f = f.WithWidth(min(a.width-8, 60))
	}
	a.form, a.formKind, a.vals = f, kind, v
	return f.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		kind, vals := a.formKind, a.vals
		a.closeForm()
		return a, a.submit(kind, vals)
	case huh.StateAborted:
		kind := a.formKind
		a.closeForm()
		if kind.isAuth() {
			return a, tea.Quit
		}
		return a, nil
	}
	return a, cmd
}

func (a *App) closeForm() {
	a.form, a.formKind, a.vals = nil, formNone, nil
}

// submit runs the write for a completed form off the UI loop.
func (a App) submit(kind formKind, v *formValues) tea.Cmd {
	core, ctx := a.core, a.ctx
	return func() tea.Msg {
		var err error
		switch kind {
		case formLogin:
			err = core.Login(ctx, v.email, v.password)
		case formSignup:
			err = core.Signup(ctx, v.signup)
		case formExpense:
			_, err = core.SaveExpense(ctx, v.editID, v.expense)
		case formReceived:
			_, err = core.SaveReceived(ctx, v.editID, v.received)
		case formBudget:
			err = core.SaveBudget(ctx, v.budgetInput())
		case formProfile:
			err = core.UpdateProfile(ctx, v.profile)
		case formPassword:
			err = core.ChangePassword(ctx, v.change)
			if err == nil {
				v.change = ledger.PasswordInput{}
			}
		}
		return opDoneMsg{kind: kind, vals: v, err: err}
	}
}

func (a App) loadForEdit(kind formKind, id string) tea.Cmd {
	core, ctx := a.core, a.ctx
	return func() tea.Msg {
		msg := editLoadedMsg{kind: kind, id: id}
		switch kind {
		case formExpense:
			msg.expense, msg.err = core.EditExpense(ctx, id)
		case formReceived:
			msg.received, msg.err = core.EditReceived(ctx, id)
		}
		return msg
	}
}

func newExpenseValues(today string) *formValues {
	return &formValues{expense: ledger.ExpenseInput{Date: today, Category: string(model.Grocery)}}
}

func newReceivedValues(today string) *formValues {
	return &formValues{received: ledger.ReceivedInput{Date: today}}
}
