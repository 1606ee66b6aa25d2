package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"wealthwise/internal/core"
	"wealthwise/internal/insight"
	"wealthwise/internal/report"
	"wealthwise/internal/services"
	"wealthwise/internal/stats"
	"wealthwise/internal/storage"
)

// App is what the commands operate on.
type App struct {
	Tracker *services.Tracker
	Advisor *insight.Advisor
	Now     func() time.Time
}

// Opener builds the App before a command runs. The returned func releases
// it afterwards.
type Opener func(ctx context.Context) (*App, func(), error)

// NewRootCommand assembles the wwctl command tree.
func NewRootCommand(open Opener) *cobra.Command {
	var (
		app     *App
		release func()
	)
	root := &cobra.Command{
		Use:   "wwctl",
		Short: "Manage the WealthWise ledger from the command line",
		Long:  `Manage the WealthWise ledger from the command line.

wwctl opens the configured storage backend directly and rewrites whole
collections on every change. Stop the wealthwise server before using it
against the same backend, or the server's next write discards CLI changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if app != nil {
				return nil
			}
			a, cleanup, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if a.Now == nil {
				a.Now = time.Now
			}
			if a.Advisor == nil {
				a.Advisor = insight.NewAdvisor(insight.Unavailable{})
			}
			app, release = a, cleanup
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if release != nil {
				release()
			}
			app, release = nil, nil
		},
	}

	get := func() *App { return app }
	root.AddCommand(
		newAddCommand(get),
		newEditCommand(get),
		newRemoveCommand(get),
		newClearCommand(get),
		newListCommand(get),
		newSummaryCommand(get),
		newStatsCommand(get),
		newBudgetCommand(get),
		newExportCommand(get),
		newInsightCommand(get),
		newCategoriesCommand(get),
	)
	return root
}

type draftFlags struct {
	amount      string
	category    string
	typ         string
	description string
	date        string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.amount, "amount", "a", "", "Amount, e.g. 12.50")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category name")
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "income, expense or saving")
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Free-text label")
	cmd.Flags().StringVar(&f.date, "date", "", "Date as YYYY-MM-DD (default today)")
}

// apply overlays the flags set on cmd onto base.
func (f *draftFlags) apply(cmd *cobra.Command, base core.Draft) (core.Draft, error) {
	d := base
	var err error
	if cmd.Flags().Changed("amount") {
		if d.Amount, err = core.ParseAmount(f.amount); err != nil {
			return core.Draft{}, err
		}
	}
	if cmd.Flags().Changed("category") {
		if d.Category, err = core.ParseCategory(f.category); err != nil {
			return core.Draft{}, err
		}
	}
	if cmd.Flags().Changed("type") {
		if d.Type, err = core.ParseTransactionType(f.typ); err != nil {
			return core.Draft{}, err
		}
	}
	if cmd.Flags().Changed("description") {
		d.Description = f.description
	}
	if cmd.Flags().Changed("date") {
		if d.Date, err = storage.ParseDate(f.date); err != nil {
			return core.Draft{}, &core.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
	}
	return d, nil
}

func newAddCommand(app func() *App) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := flags.apply(cmd, core.Draft{})
			if err != nil {
				return err
			}
			tx, err := app().Tracker.Record(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s (%s) as %s\n",
				tx.Type, core.FormatCurrency(tx.Amount), tx.Category, tx.ID)
			return nil
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newEditCommand(app func() *App) *cobra.Command {
	var flags draftFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of an existing transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orig, err := app().Tracker.Get(args[0])
			if err != nil {
				return err
			}
			d, err := flags.apply(cmd, orig.Draft())
			if err != nil {
				return err
			}
			tx, err := app().Tracker.Edit(cmd.Context(), args[0], d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s: %s %s (%s)\n",
				tx.ID, tx.Type, core.FormatCurrency(tx.Amount), tx.Category)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newRemoveCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a transaction",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app().Tracker.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newClearCommand(app func() *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear the ledger without --yes")
			}
			if err := app().Tracker.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Ledger cleared")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deleting all transactions")
	return cmd
}

func newListCommand(app func() *App) *cobra.Command {
	var typ, sortKey, order string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := stats.ParseTypeFilter(typ)
			if err != nil {
				return err
			}
			key, err := stats.ParseSortKey(sortKey)
			if err != nil {
				return err
			}
			ord, err := stats.ParseOrder(order)
			if err != nil {
				return err
			}
			return writeTransactions(cmd.OutOrStdout(), app().Tracker.Transactions(filter, key, ord))
		},
	}
	cmd.Flags().StringVar(&typ, "type", "all", "all, income, expense or saving")
	cmd.Flags().StringVar(&sortKey, "sort", "date", "date, amount or category")
	cmd.Flags().StringVar(&order, "order", "desc", "asc or desc")
	return cmd
}

func writeTransactions(w io.Writer, txs []core.Transaction) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, "(no transactions)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION")
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.ID, tx.Date.Format("2006-01-02"), tx.Type, tx.Category,
			core.FormatSigned(tx.Amount, tx.Type), tx.Description)
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, s stats.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Income\t%s\n", core.FormatCurrency(s.Income))
	fmt.Fprintf(tw, "Expenses\t%s\n", core.FormatCurrency(s.Expense))
	fmt.Fprintf(tw, "Savings\t%s\n", core.FormatCurrency(s.Saving))
	fmt.Fprintf(tw, "Balance\t%s\n", core.FormatCurrency(s.Balance))
	return tw.Flush()
}

func newSummaryCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals and the current balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSummary(cmd.OutOrStdout(), app().Tracker.Summary())
		},
	}
}

func newStatsCommand(app func() *App) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show totals, surplus rate and spend by category for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := stats.ParsePeriod(period)
			if err != nil {
				return err
			}
			a := app()
			st := a.Tracker.Stats(p, a.Now())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Period: %s (%d transactions)\n", st.Period, st.Count)
			if err := writeSummary(out, st.Summary); err != nil {
				return err
			}
			fmt.Fprintf(out, "Surplus rate: %s%%\n", st.SurplusRate.StringFixed(1))
			if len(st.Breakdown) == 0 {
				return nil
			}
			fmt.Fprintln(out, "Spend by category:")
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, c := range core.Categories() {
				if v, ok := st.Breakdown[c]; ok {
					fmt.Fprintf(tw, "  %s\t%s\n", c, core.FormatCurrency(v))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&period, "period", "p", "month", "week, month, year or all")
	return cmd
}

func newBudgetCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage monthly category budgets",
	}

	set := &cobra.Command{
		Use:   "set CATEGORY LIMIT",
		Short: "Set a monthly limit; zero removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := core.ParseCategory(args[0])
			if err != nil {
				return err
			}
			limit, err := core.ParseLimit(args[1])
			if err != nil {
				return err
			}
			budgets, err := app().Tracker.SetBudget(cmd.Context(), category, limit)
			if err != nil {
				return err
			}
			return writeBudgets(cmd.OutOrStdout(), budgets)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeBudgets(cmd.OutOrStdout(), app().Tracker.Budgets())
		},
	}

	warnings := &cobra.Command{
		Use:   "warnings",
		Short: "Show categories at or over 80% of their limit this month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			ws := a.Tracker.Warnings(a.Now())
			out := cmd.OutOrStdout()
			if len(ws) == 0 {
				_, err := fmt.Fprintln(out, "All budgets on track")
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tSPENT\tLIMIT\tPERCENT\tSTATUS")
			for _, w := range ws {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s%%\t%s\n",
					w.Category, core.FormatCurrency(w.Spent), core.FormatCurrency(w.Limit),
					w.Percent.StringFixed(0), w.Severity)
			}
			return tw.Flush()
		},
	}

	cmd.AddCommand(set, list, warnings)
	return cmd
}

func writeBudgets(w io.Writer, budgets []core.Budget) error {
	if len(budgets) == 0 {
		_, err := fmt.Fprintln(w, "(no budgets)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tLIMIT")
	for _, b := range budgets {
		fmt.Fprintf(tw, "%s\t%s\n", b.Category, core.FormatCurrency(b.Limit))
	}
	return tw.Flush()
}

func newExportCommand(app func() *App) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the financial report as CSV or text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			rep := report.Build(a.Tracker.Snapshot(), a.Now())

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "csv":
				return report.WriteCSV(w, rep)
			case "text":
				return report.WriteText(w, rep)
			default:
				return &core.ValidationError{Field: "format", Reason: "must be csv or text"}
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newInsightCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "insight",
		Short: "Ask the AI advisor for spending tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			advice := a.Advisor.Advise(cmd.Context(), a.Tracker.Snapshot())
			_, err := fmt.Fprintln(cmd.OutOrStdout(), advice.Text)
			return err
		},
	}
}

func newCategoriesCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with their colors and icons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeCategories(cmd.OutOrStdout(), app().Tracker.Icons())
		},
	}

	icon := &cobra.Command{
		Use:   "icon CATEGORY ICON",
		Short: "Override the icon of a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := core.ParseCategory(args[0])
			if err != nil {
				return err
			}
			icons, err := app().Tracker.SetIcon(cmd.Context(), category, core.Icon(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now uses %s\n", category, icons.For(category))
			return nil
		},
	}
	cmd.AddCommand(icon)
	return cmd
}

func writeCategories(w io.Writer, icons core.IconSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOLOR\tICON\tINCOME ONLY")
	for _, c := range core.Categories() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", c, c.Color(), icons.For(c), c.IncomeOnly())
	}
	return tw.Flush()
}
