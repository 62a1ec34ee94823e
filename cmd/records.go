package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
)

var (
	flagLimit int

	expenseIn  ledger.ExpenseInput
	receivedIn ledger.ReceivedInput
)

var expenseCmd = &cobra.Command{
	Use:     "expense",
	Aliases: []string{"expenses"},
	Short:   "List, add and remove expenses",
	RunE:    runExpenseList,
}

var expenseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List expenses, newest first",
	RunE:  runExpenseList,
}

var expenseAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an expense",
	RunE:  runExpenseAdd,
}

var expenseRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an expense",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpenseRm,
}

var receivedCmd = &cobra.Command{
	Use:   "received",
	Short: "List, add and remove received payments",
	RunE:  runReceivedList,
}

var receivedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List received payments, newest first",
	RunE:  runReceivedList,
}

var receivedAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a received payment",
	RunE:  runReceivedAdd,
}

var receivedRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a received payment",
	Args:  cobra.ExactArgs(1),
	RunE:  runReceivedRm,
}

func init() {
	today := time.Now().Format("2006-01-02")
	cats := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		cats[i] = string(c)
	}

	expenseCmd.PersistentFlags().IntVarP(&flagLimit, "limit", "l", 0, "Show at most this many records (0 = all)")
	receivedCmd.PersistentFlags().IntVarP(&flagLimit, "limit", "l", 0, "Show at most this many records (0 = all)")

	f := expenseAddCmd.Flags()
	f.StringVar(&expenseIn.Date, "date", today, "Date (YYYY-MM-DD)")
	f.StringVar(&expenseIn.Merchant, "merchant", "", "Merchant")
	f.StringVar(&expenseIn.Purpose, "purpose", "", "Purpose")
	f.StringVar(&expenseIn.Amount, "amount", "", "Amount")
	f.StringVar(&expenseIn.Category, "category", "", "Category ("+strings.Join(cats, ", ")+")")
	f.StringVar(&expenseIn.PurchaseBy, "by", "", "Purchased by")

	f = receivedAddCmd.Flags()
	f.StringVar(&receivedIn.Date, "date", today, "Date (YYYY-MM-DD)")
	f.StringVar(&receivedIn.Payer, "payer", "", "Payer")
	f.StringVar(&receivedIn.Project, "project", "", "Project")
	f.StringVar(&receivedIn.Amount, "amount", "", "Amount")
	f.StringVar(&receivedIn.PaymentType, "type", "", "Payment type")

	expenseCmd.AddCommand(expenseListCmd, expenseAddCmd, expenseRmCmd)
	receivedCmd.AddCommand(receivedListCmd, receivedAddCmd, receivedRmCmd)
	rootCmd.AddCommand(expenseCmd, receivedCmd)
}

func limitRows[T any](list []T) []T {
	if flagLimit > 0 && len(list) > flagLimit {
		return list[:flagLimit]
	}
	return list
}

func runExpenseList(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		list, err := a.Ledger.Expenses.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("\n  No expenses yet. Add one with `fintrack expense add`.")
			return nil
		}
		cur := rt.cfg.General.Currency
		rows := make([][]string, 0, len(list))
		for _, e := range limitRows(list) {
			rows = append(rows, []string{
				e.Date, e.ID, e.UniqueID, cli.Truncate(e.Merchant, 24), cli.Truncate(e.Purpose, 28),
				string(e.Category), e.PurchaseBy, cli.FormatMoney(e.Amount, cur),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Expenses (%d)", len(list)),
			Headers: []string{"Date", "ID", "Ref", "Merchant", "Purpose", "Category", "By", "Amount"},
			Rows:    rows,
			Left:    []int{1, 2, 3, 4, 5, 6},
		}))
		return nil
	})
}

func runExpenseAdd(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		id, err := a.SaveExpense(ctx, "", expenseIn)
		if err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("  Saved expense %s\n", id)
		}
		return nil
	})
}

func runExpenseRm(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		if err := a.DeleteExpense(ctx, args[0]); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("  Deleted expense %s\n", args[0])
		}
		return nil
	})
}

func runReceivedList(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		list, err := a.Ledger.Received.List(ctx)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("\n  No payments yet. Add one with `fintrack received add`.")
			return nil
		}
		cur := rt.cfg.General.Currency
		rows := make([][]string, 0, len(list))
		for _, r := range limitRows(list) {
			rows = append(rows, []string{
				r.Date, r.ID, r.UniqueID, cli.Truncate(r.Payer, 24), cli.Truncate(r.Project, 28),
				r.PaymentType, cli.FormatMoney(r.Amount, cur),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   fmt.Sprintf("Received (%d)", len(list)),
			Headers: []string{"Date", "ID", "Ref", "Payer", "Project", "Type", "Amount"},
			Rows:    rows,
			Left:    []int{1, 2, 3, 4, 5},
		}))
		return nil
	})
}

func runReceivedAdd(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		id, err := a.SaveReceived(ctx, "", receivedIn)
		if err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("  Saved payment %s\n", id)
		}
		return nil
	})
}

func runReceivedRm(_ *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		if err := a.DeleteReceived(ctx, args[0]); err != nil {
			return err
		}
		if !flagQuiet {
			fmt.Printf("  Deleted payment %s\n", args[0])
		}
		return nil
	})
}
