package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var flagSummaryDays int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Dashboard totals, budget usage and warnings",
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVarP(&flagSummaryDays, "days", "n", 14, "Active days shown in the spending trend")
	rootCmd.AddCommand(summaryCmd)
}

// loadDashboard reads every kind once and aggregates them.
func loadDashboard(ctx context.Context, a *app.App) ([]model.ExpenseRecord, []model.ReceivedRecord, model.DashboardSnapshot, error) {
	expenses, err := a.Ledger.Expenses.List(ctx)
	if err != nil {
		return nil, nil, model.DashboardSnapshot{}, err
	}
	received, err := a.Ledger.Received.List(ctx)
	if err != nil {
		return nil, nil, model.DashboardSnapshot{}, err
	}
	budget, err := a.Ledger.Budgets.Get(ctx)
	if err != nil {
		return nil, nil, model.DashboardSnapshot{}, err
	}
	return expenses, received, pipeline.Aggregate(expenses, received, budget), nil
}

func runSummary(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		expenses, received, snap, err := loadDashboard(ctx, a)
		if err != nil {
			return err
		}
		cur := rt.cfg.General.Currency

		fmt.Println()
		fmt.Println(cli.RenderTitle("FINTRACK  " + rt.auth.Current().Email))
		fmt.Println()

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Expenses", cli.FormatNumber(int64(len(expenses)))},
				{"Received", cli.FormatNumber(int64(len(received)))},
				{"---"},
				{"Total Expenses", cli.FormatMoney(snap.TotalExpenses, cur)},
				{"Total Received", cli.FormatMoney(snap.TotalReceived, cur)},
				{"Net Balance", cli.RenderMoney(snap.NetBalance, cur)},
			},
		}))
		fmt.Println()

		rows := make([][]string, 0, len(snap.PerCategory))
		for _, u := range snap.PerCategory {
			used := "-"
			if u.Budget.IsPositive() {
				used = cli.FormatPercent(u.UsagePercent)
			}
			rows = append(rows, []string{
				string(u.Category),
				cli.FormatMoney(u.Budget, cur),
				cli.FormatMoney(u.Spent, cur),
				used,
				cli.RenderBudgetBar(u.Spent, u.Budget, 20, pipeline.WarningThreshold),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Budget",
			Headers: []string{"Category", "Limit", "Spent", "Used", "Usage"},
			Rows:    rows,
			Left:    []int{4},
		}))

		if len(snap.Warnings) > 0 {
			fmt.Println()
			for _, w := range snap.Warnings {
				fmt.Printf("  ⚠ %s: %s of budget used, %s remaining\n",
					w.Category, cli.FormatPercent(w.UsagePercent), cli.FormatSignedMoney(w.Remaining, cur))
			}
		}

		if days := pipeline.AggregateDays(expenses, received); len(days) > 0 {
			if len(days) > flagSummaryDays && flagSummaryDays > 0 {
				days = days[len(days)-flagSummaryDays:]
			}
			spent := make([]decimal.Decimal, len(days))
			for i, d := range days {
				spent[i] = d.Expenses
			}
			fmt.Println()
			fmt.Printf("  Spending  %s  %s … %s\n", cli.RenderSparkline(spent), days[0].Date, days[len(days)-1].Date)
		}
		fmt.Println()
		return nil
	})
}
