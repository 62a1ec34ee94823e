package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintrack/internal/app"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show or set monthly category budgets",
	RunE:  runBudgetShow,
}

var budgetShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show limits and spending per category",
	RunE:  runBudgetShow,
}

var budgetSetCmd = &cobra.Command{
	Use:     "set",
	Short:   "Set category limits; categories not given are left unchanged",
	Example: "  fintrack budget set --grocery 3000 --clothes 500",
	RunE:    runBudgetSet,
}

// budgetFlags maps each category to its --<category> flag value.
var budgetFlags = map[model.Category]*string{}

func init() {
	for _, c := range model.Categories {
		v := new(string)
		budgetFlags[c] = v
		budgetSetCmd.Flags().StringVar(v, c.BudgetField(), "", fmt.Sprintf("%s limit", c))
	}
	budgetCmd.AddCommand(budgetShowCmd, budgetSetCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetShow(_ *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		_, _, snap, err := loadDashboard(ctx, a)
		if err != nil {
			return err
		}
		cur := rt.cfg.General.Currency
		rows := make([][]string, 0, len(snap.PerCategory)+2)
		for _, u := range snap.PerCategory {
			rows = append(rows, []string{
				string(u.Category),
				cli.FormatMoney(u.Budget, cur),
				cli.FormatMoney(u.Spent, cur),
				cli.FormatSignedMoney(u.Budget.Sub(u.Spent), cur),
				cli.RenderBudgetBar(u.Spent, u.Budget, 20, pipeline.WarningThreshold),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Monthly Budget",
			Headers: []string{"Category", "Limit", "Spent", "Remaining", "Usage"},
			Rows:    rows,
			Left:    []int{4},
		}))
		return nil
	})
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	in := ledger.BudgetInput{}
	for c, v := range budgetFlags {
		if cmd.Flags().Changed(c.BudgetField()) {
			in[c] = strings.TrimSpace(*v)
		}
	}
	if len(in) == 0 {
		return errors.New("nothing to set; pass at least one category flag (see `fintrack budget set --help`)")
	}
	return withApp(func(ctx context.Context, rt *runtime, a *app.App) error {
		if err := requireSignIn(rt); err != nil {
			return err
		}
		return a.SaveBudget(ctx, in)
	})
}
