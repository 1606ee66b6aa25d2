package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

func sampleLedger() []core.Transaction {
	loc := time.FixedZone("CET", 3600)
	return []core.Transaction{
		{ID: "b", Amount: decimal.RequireFromString("12.50"), Category: core.DiningOut, Type: core.Expense, Description: "Pizza", Date: time.Date(2025, 3, 2, 20, 15, 0, 0, loc)},
		{ID: "a", Amount: decimal.RequireFromString("2500"), Category: core.Salary, Type: core.Income, Description: "Salary", Date: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "c", Amount: decimal.RequireFromString("0.01"), Category: core.Savings, Type: core.Saving, Description: "Round up", Date: time.Date(2025, 2, 28, 23, 59, 59, 500, time.UTC)},
	}
}

func TestTransactionsRoundTrip(t *testing.T) {
	in := sampleLedger()
	data, err := EncodeTransactions(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, skipped, err := DecodeTransactions(data)
	if err != nil || skipped != 0 {
		t.Fatalf("decode: skipped=%d err=%v", skipped, err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d entries, got %d", len(in), len(out))
	}
	for i := range in {
		a, b := in[i], out[i]
		if a.ID != b.ID || !a.Amount.Equal(b.Amount) || a.Category != b.Category ||
			a.Type != b.Type || a.Description != b.Description || !a.Date.Equal(b.Date) {
			t.Fatalf("entry %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestEncodeWritesNumbersAndISODates(t *testing.T) {
	data, err := EncodeTransactions(sampleLedger()[:1])
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw[0]["amount"].(float64); !ok {
		t.Fatalf("amount must be a JSON number, got %T", raw[0]["amount"])
	}
	if raw[0]["date"] != "2025-03-02T20:15:00+01:00" {
		t.Fatalf("unexpected date %v", raw[0]["date"])
	}
}

func TestDecodeAcceptsLegacyDatesAndSkipsInvalid(t *testing.T) {
	data := []byte(`[
		{"id":"1","amount":10,"category":"Food","type":"expense","description":"Lunch","date":"2025-03-02T12:30"},
		{"id":"2","amount":-5,"category":"Food","type":"expense","description":"bad","date":"2025-03-02T12:30"},
		{"id":"3","amount":5,"category":"Spaceships","type":"expense","description":"bad","date":"2025-03-02T12:30"},
		{"id":"4","amount":5,"category":"Food","type":"expense","description":"bad","date":"yesterday"},
		{"id":"5","amount":7.25,"category":"Gift","type":"income","description":"Gift","date":"2025-03-02T12:30:45"}
	]`)
	txs, skipped, err := DecodeTransactions(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if skipped != 3 || len(txs) != 2 {
		t.Fatalf("expected 2 kept and 3 skipped, got %d kept %d skipped", len(txs), skipped)
	}
	want := time.Date(2025, 3, 2, 12, 30, 0, 0, time.Local)
	if !txs[0].Date.Equal(want) {
		t.Fatalf("expected local date %v, got %v", want, txs[0].Date)
	}
}

func TestDecodeKeepsLongDescriptions(t *testing.T) {
	long := strings.Repeat("monthly salary from the old job ", 8)
	records := []map[string]any{
		{"id": "1", "amount": 1000, "category": "Salary", "type": "income", "description": long, "date": "2025-03-01T09:00:00.000Z"},
		{"id": "2", "amount": 40, "category": "Food", "type": "expense", "description": "lunch", "date": "2025-03-02T12:30:00.000Z"},
	}
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	txs, skipped, err := DecodeTransactions(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if skipped != 0 || len(txs) != 2 {
		t.Fatalf("expected both records kept, got %d kept %d skipped", len(txs), skipped)
	}
	if txs[0].Description != long {
		t.Fatalf("description was altered: %q", txs[0].Description)
	}
	balance := txs[0].BalanceEffect().Add(txs[1].BalanceEffect())
	if !balance.Equal(decimal.NewFromInt(960)) {
		t.Fatalf("expected balance 960, got %s", balance)
	}
}

func TestDecodeTransactionsCorrupt(t *testing.T) {
	if _, _, err := DecodeTransactions([]byte(`{not json`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestBudgetsRoundTrip(t *testing.T) {
	in := []core.Budget{
		{Category: core.Food, Limit: decimal.RequireFromString("200")},
		{Category: core.Rent, Limit: decimal.RequireFromString("850.50")},
	}
	data, err := EncodeBudgets(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(data), `"limit":850.5`) {
		t.Fatalf("expected numeric limit, got %s", data)
	}
	out, skipped, err := DecodeBudgets(data)
	if err != nil || skipped != 0 || len(out) != 2 {
		t.Fatalf("decode: %v skipped=%d len=%d", err, skipped, len(out))
	}
	if !out[1].Limit.Equal(in[1].Limit) {
		t.Fatalf("limit differs: %s", out[1].Limit)
	}
}

func TestDecodeBudgetsKeepsOnePerCategory(t *testing.T) {
	data := []byte(`[{"category":"Food","limit":100},{"category":"Food","limit":300},{"category":"Salary","limit":10},{"category":"Rent","limit":0}]`)
	out, skipped, err := DecodeBudgets(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || !out[0].Limit.Equal(decimal.NewFromInt(300)) || skipped != 3 {
		t.Fatalf("unexpected result %+v skipped=%d", out, skipped)
	}
}

func TestDecodeEmptyBudgetsIsNotNil(t *testing.T) {
	out, skipped, err := DecodeBudgets([]byte(`[]`))
	if err != nil || skipped != 0 {
		t.Fatalf("decode: %v skipped=%d", err, skipped)
	}
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
}

func TestIconsRoundTrip(t *testing.T) {
	in := core.IconSet{core.Food: core.IconCoffee, core.Travel: core.IconGlobe}
	data, err := EncodeIcons(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, skipped, err := DecodeIcons(data)
	if err != nil || skipped != 0 {
		t.Fatalf("decode: %v skipped=%d", err, skipped)
	}
	if out.For(core.Food) != core.IconCoffee || out.For(core.Travel) != core.IconGlobe {
		t.Fatalf("unexpected icons %v", out)
	}
	_, skipped, _ = DecodeIcons([]byte(`{"Food":"Rocket","Nope":"Car"}`))
	if skipped != 2 {
		t.Fatalf("expected 2 skipped, got %d", skipped)
	}
}
