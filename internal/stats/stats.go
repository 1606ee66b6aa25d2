// Package stats derives totals, period subsets and category breakdowns from
// a snapshot of the ledger. Every function is pure and never mutates its
// input.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

// Summary holds per-type totals and the resulting balance.
type Summary struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Saving  decimal.Decimal
	Balance decimal.Decimal
}

// Stats is the period view: filtered totals, surplus rate and breakdown.
type Stats struct {
	Period      Period
	Summary     Summary
	SurplusRate decimal.Decimal
	Breakdown   map[core.Category]decimal.Decimal
	Count       int
}

// Summarize totals amounts by type. Balance is income minus expense minus
// saving; the empty ledger yields all zeros.
func Summarize(txs []core.Transaction) Summary {
	s := Summary{
		Income:  decimal.Zero,
		Expense: decimal.Zero,
		Saving:  decimal.Zero,
	}
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		case core.Saving:
			s.Saving = s.Saving.Add(tx.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expense).Sub(s.Saving)
	return s
}

// SurplusRate is (income - expense) / income * 100, or zero without income.
func SurplusRate(s Summary) decimal.Decimal {
	return core.Percent(s.Income.Sub(s.Expense), s.Income)
}

// FilterByPeriod keeps entries inside period relative to ref. Week is an
// inclusive seven day lower bound; month and year compare calendar fields
// in ref's location.
func FilterByPeriod(txs []core.Transaction, period Period, ref time.Time) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if InPeriod(tx.Date, period, ref) {
			out = append(out, tx)
		}
	}
	return out
}

// InPeriod reports whether date falls inside period relative to ref.
func InPeriod(date time.Time, period Period, ref time.Time) bool {
	switch period {
	case Week:
		return !date.Before(ref.AddDate(0, 0, -7))
	case Month:
		d := date.In(ref.Location())
		return d.Year() == ref.Year() && d.Month() == ref.Month()
	case Year:
		return date.In(ref.Location()).Year() == ref.Year()
	default:
		return true
	}
}

// CategoryBreakdown sums non-income amounts per category. Categories without
// positive spend are absent from the result.
func CategoryBreakdown(txs []core.Transaction) map[core.Category]decimal.Decimal {
	out := make(map[core.Category]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type == core.Income {
			continue
		}
		out[tx.Category] = out[tx.Category].Add(tx.Amount)
	}
	for c, v := range out {
		if !v.IsPositive() {
			delete(out, c)
		}
	}
	return out
}

// CurrentMonthSpendByCategory is CategoryBreakdown restricted to the
// calendar month of now.
func CurrentMonthSpendByCategory(txs []core.Transaction, now time.Time) map[core.Category]decimal.Decimal {
	return CategoryBreakdown(FilterByPeriod(txs, Month, now))
}

// PeriodStats builds the period view used by the statistics screen.
func PeriodStats(txs []core.Transaction, period Period, ref time.Time) Stats {
	filtered := FilterByPeriod(txs, period, ref)
	summary := Summarize(filtered)
	return Stats{
		Period:      period,
		Summary:     summary,
		SurplusRate: SurplusRate(summary),
		Breakdown:   CategoryBreakdown(filtered),
		Count:       len(filtered),
	}
}
