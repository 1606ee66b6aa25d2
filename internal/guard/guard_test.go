package guard

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCheckAffordable(t *testing.T) {
	existingExpense := &core.Transaction{ID: "e", Amount: d("30"), Type: core.Expense}
	existingSaving := &core.Transaction{ID: "s", Amount: d("30"), Type: core.Saving}
	existingIncome := &core.Transaction{ID: "i", Amount: d("30"), Type: core.Income}

	cases := []struct {
		name    string
		amount  string
		typ     core.TransactionType
		balance string
		editing *core.Transaction
		want    bool
	}{
		{"edit of expense 30 to 120 against 100", "120", core.Expense, "100", existingExpense, true},
		{"new expense 120 against 100", "120", core.Expense, "100", nil, false},
		{"edit of saving adds back", "130", core.Saving, "100", existingSaving, true},
		{"edit beyond added back amount", "130.01", core.Expense, "100", existingExpense, false},
		{"edit of income subtracts", "71", core.Expense, "100", existingIncome, false},
		{"edit of income exact fit", "70", core.Expense, "100", existingIncome, true},
		{"exact balance", "100", core.Saving, "100", nil, true},
		{"income always allowed", "1000000", core.Income, "-50", nil, true},
		{"negative balance", "1", core.Expense, "-5", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CheckAffordable(d(tc.amount), tc.typ, d(tc.balance), tc.editing)
			if got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestEffectiveBalance(t *testing.T) {
	if got := EffectiveBalance(d("100"), nil); !got.Equal(d("100")) {
		t.Fatalf("new entry: got %s", got)
	}
	if got := EffectiveBalance(d("100"), &core.Transaction{Amount: d("30"), Type: core.Expense}); !got.Equal(d("130")) {
		t.Fatalf("expense edit: got %s", got)
	}
	if got := EffectiveBalance(d("100"), &core.Transaction{Amount: d("30"), Type: core.Income}); !got.Equal(d("70")) {
		t.Fatalf("income edit: got %s", got)
	}
}

func TestCheckReturnsAvailable(t *testing.T) {
	err := Check(d("120"), core.Expense, d("100"), nil)
	var insufficient *core.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientFundsError, got %v", err)
	}
	if !insufficient.Available.Equal(d("100")) || !insufficient.Requested.Equal(d("120")) {
		t.Fatalf("unexpected error fields %+v", insufficient)
	}
	if !errors.Is(err, core.ErrInsufficientFunds) {
		t.Fatal("expected sentinel match")
	}
	if err := Check(d("120"), core.Expense, d("100"), &core.Transaction{Amount: d("30"), Type: core.Expense}); err != nil {
		t.Fatalf("expected affordable edit, got %v", err)
	}
}
