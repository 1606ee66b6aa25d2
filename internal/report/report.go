// Package report builds the exportable financial report and renders it as
// CSV or aligned text. Spreadsheet publishing lives in report/sheets.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
	"wealthwise/internal/stats"
)

const (
	Title       = "WealthWise Financial Report"
	PeriodLabel = "All Time"
	dateLayout  = "2006-01-02"
)

var columns = []string{"Date", "Category", "Description", "Type", "Amount"}

// Publisher pushes a rendered report to an external destination.
type Publisher interface {
	Publish(ctx context.Context, r Report) error
}

type Summary struct {
	Income     decimal.Decimal
	Savings    decimal.Decimal
	Expenses   decimal.Decimal
	NetBalance decimal.Decimal
}

type Row struct {
	Date        time.Time
	Category    core.Category
	Description string
	Type        core.TransactionType
	Amount      decimal.Decimal
}

// TypeLabel is the upper-cased type name.
func (r Row) TypeLabel() string {
	return strings.ToUpper(string(r.Type))
}

// SignedAmount is +$X for income and -$X otherwise.
func (r Row) SignedAmount() string {
	return core.FormatSigned(r.Amount, r.Type)
}

type Report struct {
	Title       string
	Period      string
	GeneratedAt time.Time
	Summary     Summary
	Rows        []Row
}

// Build snapshots txs into a report, newest entries first.
func Build(txs []core.Transaction, generatedAt time.Time) Report {
	s := stats.Summarize(txs)
	sorted := stats.Sort(txs, stats.ByDate, stats.Desc)
	rows := make([]Row, len(sorted))
	for i, tx := range sorted {
		rows[i] = Row{
			Date:        tx.Date,
			Category:    tx.Category,
			Description: tx.Description,
			Type:        tx.Type,
			Amount:      tx.Amount,
		}
	}
	return Report{
		Title:       Title,
		Period:      PeriodLabel,
		GeneratedAt: generatedAt,
		Summary: Summary{
			Income:     s.Income,
			Savings:    s.Saving,
			Expenses:   s.Expense,
			NetBalance: s.Balance,
		},
		Rows: rows,
	}
}

// Header returns the title and summary block as label/value pairs.
func (r Report) Header() [][]string {
	return [][]string{
		{r.Title},
		{"Period", r.Period},
		{"Generated", r.GeneratedAt.Format(time.RFC3339)},
		{},
		{"Total Income", core.FormatCurrency(r.Summary.Income)},
		{"Total Savings", core.FormatCurrency(r.Summary.Savings)},
		{"Total Expenses", core.FormatCurrency(r.Summary.Expenses)},
		{"Net Balance", core.FormatCurrency(r.Summary.NetBalance)},
	}
}

// Table returns the column header followed by one line per row.
func (r Report) Table() [][]string {
	out := make([][]string, 0, len(r.Rows)+1)
	out = append(out, slices.Clone(columns))
	for _, row := range r.Rows {
		out = append(out, []string{
			row.Date.Format(dateLayout),
			string(row.Category),
			row.Description,
			row.TypeLabel(),
			row.SignedAmount(),
		})
	}
	return out
}

// Grid is the full sheet layout: header, a blank line, then the table.
func (r Report) Grid() [][]string {
	grid := r.Header()
	grid = append(grid, []string{})
	return append(grid, r.Table()...)
}

// WriteCSV renders the grid as CSV. Header lines have fewer fields than the
// table.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(r.Grid()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteText renders the report for a terminal.
func WriteText(w io.Writer, r Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", r.Title)
	fmt.Fprintf(tw, "Period: %s\tGenerated: %s\n\n", r.Period, r.GeneratedAt.Format(time.RFC1123))
	for _, line := range r.Header()[4:] {
		fmt.Fprintf(tw, "%s:\t%s\n", line[0], line[1])
	}
	fmt.Fprintln(tw)
	for _, line := range r.Table() {
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	if len(r.Rows) == 0 {
		fmt.Fprintln(tw, "(no transactions)")
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
