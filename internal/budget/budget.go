// Package budget evaluates monthly category limits against current spend.
package budget

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

type Severity string

const (
	OverLimit        Severity = "over_limit"
	ApproachingLimit Severity = "approaching_limit"
	OK               Severity = "ok"
)

var (
	// WarningThreshold is the percent of a limit at which a warning is raised.
	WarningThreshold = decimal.NewFromInt(80)
	fullThreshold    = decimal.NewFromInt(100)
)

// Warning reports a category at or above the warning threshold.
type Warning struct {
	Category core.Category
	Spent    decimal.Decimal
	Limit    decimal.Decimal
	Percent  decimal.Decimal
	Severity Severity
}

// Classify maps a percent-of-limit to its severity.
func Classify(percent decimal.Decimal) Severity {
	switch {
	case percent.GreaterThanOrEqual(fullThreshold):
		return OverLimit
	case percent.GreaterThanOrEqual(WarningThreshold):
		return ApproachingLimit
	default:
		return OK
	}
}

// Evaluate returns a warning for every budget whose month spend reaches 80%
// of its limit, highest percent first and ties broken by category name.
func Evaluate(budgets []core.Budget, monthSpend map[core.Category]decimal.Decimal) []Warning {
	warnings := make([]Warning, 0)
	for _, b := range budgets {
		if !b.Limit.IsPositive() {
			continue
		}
		spent := monthSpend[b.Category]
		percent := core.Percent(spent, b.Limit)
		if percent.LessThan(WarningThreshold) {
			continue
		}
		warnings = append(warnings, Warning{
			Category: b.Category,
			Spent:    spent,
			Limit:    b.Limit,
			Percent:  percent,
			Severity: Classify(percent),
		})
	}
	slices.SortFunc(warnings, func(a, b Warning) int {
		if c := b.Percent.Cmp(a.Percent); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return warnings
}

// Upsert sets the limit for category. A limit of zero or less removes the
// budget. The input slice is never modified.
func Upsert(budgets []core.Budget, category core.Category, limit decimal.Decimal) ([]core.Budget, error) {
	if !category.Valid() {
		return nil, &core.ValidationError{Field: "category", Reason: "unknown category '" + string(category) + "'"}
	}
	out := make([]core.Budget, 0, len(budgets)+1)
	for _, b := range budgets {
		if b.Category != category {
			out = append(out, b)
		}
	}
	if !limit.IsPositive() {
		return out, nil
	}
	b := core.Budget{Category: category, Limit: limit}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return append(out, b), nil
}

// Find returns the budget for category, if any.
func Find(budgets []core.Budget, category core.Category) (core.Budget, bool) {
	for _, b := range budgets {
		if b.Category == category {
			return b, true
		}
	}
	return core.Budget{}, false
}
