package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

// Zone-less forms accepted on read, interpreted in local time.
var localDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

type transactionRecord struct {
	ID          string      `json:"id"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
}

type budgetRecord struct {
	Category string      `json:"category"`
	Limit    json.Number `json:"limit"`
}

// number renders d as an unquoted JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func parseNumber(n json.Number) (decimal.Decimal, error) {
	return decimal.NewFromString(n.String())
}

// EncodeTransactions renders txs as the persisted JSON array. Dates are
// written as RFC 3339.
func EncodeTransactions(txs []core.Transaction) ([]byte, error) {
	records := make([]transactionRecord, 0, len(txs))
	for _, tx := range txs {
		records = append(records, transactionRecord{
			ID:          tx.ID,
			Amount:      number(tx.Amount),
			Category:    string(tx.Category),
			Type:        string(tx.Type),
			Description: tx.Description,
			Date:        tx.Date.Format(time.RFC3339Nano),
		})
	}
	return json.Marshal(records)
}

// DecodeTransactions parses the persisted array. Records that fail
// validation are skipped and counted in skipped.
func DecodeTransactions(data []byte) (txs []core.Transaction, skipped int, err error) {
	var records []transactionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("decode transactions: %w", err)
	}
	txs = make([]core.Transaction, 0, len(records))
	for _, r := range records {
		date, err := ParseDate(r.Date)
		if err != nil {
			skipped++
			continue
		}
		amount, err := parseNumber(r.Amount)
		if err != nil {
			skipped++
			continue
		}
		tx := core.Transaction{
			ID:          r.ID,
			Amount:      amount,
			Category:    core.Category(r.Category),
			Type:        core.TransactionType(r.Type),
			Description: r.Description,
			Date:        date,
		}
		if err := tx.Validate(); err != nil {
			skipped++
			continue
		}
		txs = append(txs, tx)
	}
	return txs, skipped, nil
}

// EncodeBudgets renders budgets as the persisted JSON array.
func EncodeBudgets(budgets []core.Budget) ([]byte, error) {
	records := make([]budgetRecord, 0, len(budgets))
	for _, b := range budgets {
		records = append(records, budgetRecord{Category: string(b.Category), Limit: number(b.Limit)})
	}
	return json.Marshal(records)
}

// DecodeBudgets parses the persisted array, keeping the last entry when a
// category appears twice.
func DecodeBudgets(data []byte) (budgets []core.Budget, skipped int, err error) {
	var records []budgetRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, 0, fmt.Errorf("decode budgets: %w", err)
	}
	budgets = make([]core.Budget, 0, len(records))
	index := make(map[core.Category]int, len(records))
	for _, r := range records {
		limit, err := parseNumber(r.Limit)
		if err != nil {
			skipped++
			continue
		}
		b := core.Budget{Category: core.Category(r.Category), Limit: limit}
		if err := b.Validate(); err != nil {
			skipped++
			continue
		}
		if i, ok := index[b.Category]; ok {
			budgets[i] = b
			skipped++
			continue
		}
		index[b.Category] = len(budgets)
		budgets = append(budgets, b)
	}
	return budgets, skipped, nil
}

// EncodeIcons renders icon overrides as a JSON object.
func EncodeIcons(icons core.IconSet) ([]byte, error) {
	out := make(map[string]string, len(icons))
	for c, i := range icons {
		out[string(c)] = string(i)
	}
	return json.Marshal(out)
}

// DecodeIcons parses icon overrides, dropping unknown categories or icons.
func DecodeIcons(data []byte) (icons core.IconSet, skipped int, err error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("decode icons: %w", err)
	}
	icons = make(core.IconSet, len(raw))
	for c, i := range raw {
		cat, icon := core.Category(c), core.Icon(i)
		if !cat.Valid() || !icon.Valid() {
			skipped++
			continue
		}
		icons[cat] = icon
	}
	return icons, skipped, nil
}

// ParseDate accepts RFC 3339 and the zone-less local forms.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localDateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
