package http

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/budget"
	"wealthwise/internal/core"
	"wealthwise/internal/services"
	"wealthwise/internal/stats"
)

func amount(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type transactionDTO struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Signed      string      `json:"signed"`
}

func toTransactionDTO(tx core.Transaction) transactionDTO {
	return transactionDTO{
		ID:          tx.ID,
		Amount:      amount(tx.Amount),
		Category:    string(tx.Category),
		Type:        string(tx.Type),
		Description: tx.Description,
		Date:        tx.Date.Format(time.RFC3339),
		Signed:      core.FormatSigned(tx.Amount, tx.Type),
	}
}

func toTransactionDTOs(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionDTO(tx))
	}
	return out
}

type summaryDTO struct {
	Income  json.Number `json:"income"`
	Expense json.Number `json:"expense"`
	Saving  json.Number `json:"saving"`
	Balance json.Number `json:"balance"`
}

func toSummaryDTO(s stats.Summary) summaryDTO {
	return summaryDTO{
		Income:  amount(s.Income),
		Expense: amount(s.Expense),
		Saving:  amount(s.Saving),
		Balance: amount(s.Balance),
	}
}

type breakdownDTO struct {
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

// toBreakdownDTOs orders categories by amount descending so the output is
// stable across map iterations.
func toBreakdownDTOs(m map[core.Category]decimal.Decimal) []breakdownDTO {
	cats := make([]core.Category, 0, len(m))
	for c := range m {
		cats = append(cats, c)
	}
	slices.SortFunc(cats, func(a, b core.Category) int {
		if c := m[b].Cmp(m[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	out := make([]breakdownDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, breakdownDTO{Category: string(c), Amount: amount(m[c])})
	}
	return out
}

type statsDTO struct {
	Period      string         `json:"period"`
	Summary     summaryDTO     `json:"summary"`
	SurplusRate json.Number    `json:"surplus_rate"`
	Breakdown   []breakdownDTO `json:"breakdown"`
	Count       int            `json:"count"`
}

func toStatsDTO(s stats.Stats) statsDTO {
	return statsDTO{
		Period:      string(s.Period),
		Summary:     toSummaryDTO(s.Summary),
		SurplusRate: json.Number(s.SurplusRate.StringFixed(1)),
		Breakdown:   toBreakdownDTOs(s.Breakdown),
		Count:       s.Count,
	}
}

type budgetDTO struct {
	Category string      `json:"category"`
	Limit    json.Number `json:"limit"`
}

func toBudgetDTOs(budgets []core.Budget) []budgetDTO {
	out := make([]budgetDTO, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, budgetDTO{Category: string(b.Category), Limit: amount(b.Limit)})
	}
	return out
}

type warningDTO struct {
	Category string      `json:"category"`
	Spent    json.Number `json:"spent"`
	Limit    json.Number `json:"limit"`
	Percent  json.Number `json:"percent"`
	Severity string      `json:"severity"`
}

func toWarningDTOs(warnings []budget.Warning) []warningDTO {
	out := make([]warningDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, warningDTO{
			Category: string(w.Category),
			Spent:    amount(w.Spent),
			Limit:    amount(w.Limit),
			Percent:  json.Number(w.Percent.StringFixed(1)),
			Severity: string(w.Severity),
		})
	}
	return out
}

type dashboardDTO struct {
	Summary        summaryDTO     `json:"summary"`
	Warnings       []warningDTO   `json:"warnings"`
	MonthBreakdown []breakdownDTO `json:"month_breakdown"`
}

func toDashboardDTO(d services.Dashboard) dashboardDTO {
	return dashboardDTO{
		Summary:        toSummaryDTO(d.Summary),
		Warnings:       toWarningDTOs(d.Warnings),
		MonthBreakdown: toBreakdownDTOs(d.MonthBreakdown),
	}
}

type categoryDTO struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
	IncomeOnly  bool   `json:"income_only"`
}

func toCategoryDTOs(icons core.IconSet) []categoryDTO {
	cats := core.Categories()
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryDTO{
			Name:        string(c),
			DisplayName: c.DisplayName(),
			Color:       c.Color(),
			Icon:        string(icons.For(c)),
			IncomeOnly:  c.IncomeOnly(),
		})
	}
	return out
}
