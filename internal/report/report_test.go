package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

var generated = time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC)

func sample() []core.Transaction {
	day := func(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }
	return []core.Transaction{
		{ID: "a", Amount: decimal.NewFromInt(1000), Category: core.Salary, Type: core.Income, Description: "March pay", Date: day(1)},
		{ID: "b", Amount: decimal.RequireFromString("12.5"), Category: core.Food, Type: core.Expense, Description: "Lunch", Date: day(15)},
		{ID: "c", Amount: decimal.NewFromInt(200), Category: core.Savings, Type: core.Saving, Description: "Savings", Date: day(10)},
	}
}

func TestBuild(t *testing.T) {
	r := Build(sample(), generated)

	if r.Title != "WealthWise Financial Report" || r.Period != "All Time" {
		t.Fatalf("unexpected header %q / %q", r.Title, r.Period)
	}
	if !r.Summary.NetBalance.Equal(decimal.RequireFromString("787.5")) {
		t.Fatalf("net balance = %s", r.Summary.NetBalance)
	}
	if !r.Summary.Savings.Equal(decimal.NewFromInt(200)) || !r.Summary.Expenses.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("unexpected summary %+v", r.Summary)
	}

	wantOrder := []string{"Lunch", "Savings", "March pay"}
	for i, want := range wantOrder {
		if r.Rows[i].Description != want {
			t.Fatalf("row %d = %q, want %q", i, r.Rows[i].Description, want)
		}
	}
}

func TestRowFormatting(t *testing.T) {
	tests := []struct {
		name      string
		row       Row
		wantType  string
		wantValue string
	}{
		{"income", Row{Type: core.Income, Amount: decimal.NewFromInt(12)}, "INCOME", "+$12.00"},
		{"expense", Row{Type: core.Expense, Amount: decimal.NewFromInt(12)}, "EXPENSE", "-$12.00"},
		{"saving", Row{Type: core.Saving, Amount: decimal.NewFromInt(1500)}, "SAVING", "-$1,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.TypeLabel(); got != tt.wantType {
				t.Errorf("TypeLabel() = %q, want %q", got, tt.wantType)
			}
			if got := tt.row.SignedAmount(); got != tt.wantValue {
				t.Errorf("SignedAmount() = %q, want %q", got, tt.wantValue)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Build(sample(), generated)); err != nil {
		t.Fatal(err)
	}

	rd := csv.NewReader(&buf)
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %v", err)
	}
	if records[0][0] != Title {
		t.Fatalf("first record = %v", records[0])
	}

	header := -1
	for i, rec := range records {
		if len(rec) == 5 && rec[0] == "Date" {
			header = i
			break
		}
	}
	if header < 0 {
		t.Fatal("table header not found")
	}
	first := records[header+1]
	if first[0] != "2025-03-15" || first[3] != "EXPENSE" || first[4] != "-$12.50" {
		t.Fatalf("unexpected first row %v", first)
	}
	if len(records) != header+4 {
		t.Fatalf("expected 3 data rows, got %d", len(records)-header-1)
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, Build(nil, generated)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{Title, "All Time", "Net Balance:", "$0.00", "(no transactions)"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}
