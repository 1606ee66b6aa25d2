package stats

import (
	"cmp"
	"slices"
	"strings"

	"wealthwise/internal/core"
)

type (
	Period     string
	TypeFilter string
	SortKey    string
	Order      string
)

const (
	Week  Period = "week"
	Month Period = "month"
	Year  Period = "year"
	All   Period = "all"
)

const (
	AllTypes     TypeFilter = "all"
	OnlyIncome   TypeFilter = "income"
	OnlyExpenses TypeFilter = "expense"
	OnlySavings  TypeFilter = "saving"
)

const (
	ByDate     SortKey = "date"
	ByAmount   SortKey = "amount"
	ByCategory SortKey = "category"
)

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParsePeriod maps user input to a Period; empty input means month.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return Month, nil
	case Week, Month, Year, All:
		return p, nil
	default:
		return "", &core.ValidationError{Field: "period", Reason: "must be one of week, month, year, all"}
	}
}

// ParseTypeFilter maps user input to a TypeFilter; empty input means all.
func ParseTypeFilter(s string) (TypeFilter, error) {
	switch f := TypeFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return AllTypes, nil
	case AllTypes, OnlyIncome, OnlyExpenses, OnlySavings:
		return f, nil
	default:
		return "", &core.ValidationError{Field: "type", Reason: "must be one of all, income, expense, saving"}
	}
}

// ParseSortKey maps user input to a SortKey; empty input means date.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return ByDate, nil
	case ByDate, ByAmount, ByCategory:
		return k, nil
	default:
		return "", &core.ValidationError{Field: "sort", Reason: "must be one of date, amount, category"}
	}
}

// ParseOrder maps user input to an Order; empty input means descending.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return Desc, nil
	case Asc, Desc:
		return o, nil
	default:
		return "", &core.ValidationError{Field: "order", Reason: "must be asc or desc"}
	}
}

// FilterByType keeps entries matching f.
func FilterByType(txs []core.Transaction, f TypeFilter) []core.Transaction {
	if f == AllTypes || f == "" {
		return slices.Clone(txs)
	}
	return OfType(txs, core.TransactionType(f))
}

// OfType keeps entries of exactly typ, preserving order.
func OfType(txs []core.Transaction, typ core.TransactionType) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == typ {
			out = append(out, tx)
		}
	}
	return out
}

// Sort returns a stably sorted copy of txs.
func Sort(txs []core.Transaction, key SortKey, order Order) []core.Transaction {
	out := slices.Clone(txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		var c int
		switch key {
		case ByAmount:
			c = a.Amount.Cmp(b.Amount)
		case ByCategory:
			c = cmp.Compare(a.Category, b.Category)
		default:
			c = a.Date.Compare(b.Date)
		}
		if order == Desc {
			return -c
		}
		return c
	})
	return out
}
