package budget

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"wealthwise/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEvaluateThresholdBoundary(t *testing.T) {
	budgets := []core.Budget{{Category: core.Food, Limit: d("200")}}
	cases := []struct {
		spent    string
		included bool
		severity Severity
	}{
		{"150", false, ""},
		{"159.99", false, ""},
		{"160", true, ApproachingLimit},
		{"199.99", true, ApproachingLimit},
		{"200", true, OverLimit},
		{"350", true, OverLimit},
	}
	for _, tc := range cases {
		t.Run(tc.spent, func(t *testing.T) {
			got := Evaluate(budgets, map[core.Category]decimal.Decimal{core.Food: d(tc.spent)})
			if tc.included != (len(got) == 1) {
				t.Fatalf("spent %s: included=%v, got %v", tc.spent, tc.included, got)
			}
			if tc.included && got[0].Severity != tc.severity {
				t.Fatalf("spent %s: severity %s want %s", tc.spent, got[0].Severity, tc.severity)
			}
		})
	}
}

func TestEvaluateOrderingAndMissingSpend(t *testing.T) {
	budgets := []core.Budget{
		{Category: core.Rent, Limit: d("100")},
		{Category: core.Food, Limit: d("100")},
		{Category: core.Travel, Limit: d("100")},
		{Category: core.Health, Limit: d("100")},
	}
	spend := map[core.Category]decimal.Decimal{
		core.Rent:   d("90"),
		core.Food:   d("90"),
		core.Travel: d("120"),
	}
	got := Evaluate(budgets, spend)
	want := []core.Category{core.Travel, core.Food, core.Rent}
	if len(got) != len(want) {
		t.Fatalf("expected %d warnings, got %v", len(want), got)
	}
	for i, c := range want {
		if got[i].Category != c {
			t.Fatalf("position %d: got %s want %s", i, got[i].Category, c)
		}
	}
	if !got[0].Percent.Equal(d("120")) || !got[0].Spent.Equal(d("120")) {
		t.Fatalf("unexpected first warning %+v", got[0])
	}
}

func TestEvaluateEmpty(t *testing.T) {
	if got := Evaluate(nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]Severity{"0": OK, "79.99": OK, "80": ApproachingLimit, "99.9": ApproachingLimit, "100": OverLimit}
	for in, want := range cases {
		if got := Classify(d(in)); got != want {
			t.Errorf("Classify(%s) = %s want %s", in, got, want)
		}
	}
}

func TestUpsert(t *testing.T) {
	initial := []core.Budget{{Category: core.Food, Limit: d("100")}}

	t.Run("insert", func(t *testing.T) {
		got, err := Upsert(initial, core.Rent, d("800"))
		if err != nil || len(got) != 2 {
			t.Fatalf("unexpected result %v %v", got, err)
		}
		if len(initial) != 1 {
			t.Fatal("input modified")
		}
	})

	t.Run("replace keeps one per category", func(t *testing.T) {
		got, err := Upsert(initial, core.Food, d("250"))
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if len(got) != 1 || !got[0].Limit.Equal(d("250")) {
			t.Fatalf("unexpected result %v", got)
		}
		if !initial[0].Limit.Equal(d("100")) {
			t.Fatal("input modified")
		}
	})

	t.Run("zero removes", func(t *testing.T) {
		got, err := Upsert(initial, core.Food, decimal.Zero)
		if err != nil || len(got) != 0 {
			t.Fatalf("unexpected result %v %v", got, err)
		}
	})

	t.Run("zero on income category is a no-op", func(t *testing.T) {
		got, err := Upsert(initial, core.Salary, decimal.Zero)
		if err != nil || len(got) != 1 {
			t.Fatalf("unexpected result %v %v", got, err)
		}
	})

	t.Run("rejects income-only and unknown", func(t *testing.T) {
		if _, err := Upsert(initial, core.Salary, d("10")); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if _, err := Upsert(initial, "Yachts", d("10")); !errors.Is(err, core.ErrValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}
