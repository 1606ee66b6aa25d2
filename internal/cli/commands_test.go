package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wealthwise/internal/core"
	"wealthwise/internal/insight"
	"wealthwise/internal/ledger"
	"wealthwise/internal/services"
	"wealthwise/internal/storage"
	"wealthwise/internal/storage/memory"
)

var cliNow = time.Date(2025, 6, 20, 18, 0, 0, 0, time.UTC)

type staticAdvice string

func (s staticAdvice) Generate(context.Context, []core.Transaction) (string, error) {
	return string(s), nil
}

// newTestApp returns an opener over a shared in-memory tracker so state
// survives across command invocations.
func newTestApp(t *testing.T) (Opener, *services.Tracker, *int) {
	t.Helper()
	ctx := context.Background()
	adapter := storage.NewAdapter(memory.New(), nil)
	n := 0
	store := ledger.New(ctx, adapter,
		ledger.WithIDGenerator(func() string { n++; return fmt.Sprintf("tx-%d", n) }),
		ledger.WithClock(func() time.Time { return cliNow }))
	tracker := services.NewTracker(ctx, store, adapter, nil, nil)
	releases := 0
	app := &App{
		Tracker: tracker,
		Advisor: insight.NewAdvisor(staticAdvice("Keep going.")),
		Now:     func() time.Time { return cliNow },
	}
	open := func(context.Context) (*App, func(), error) {
		return app, func() { releases++ }, nil
	}
	return open, tracker, &releases
}

func run(t *testing.T, open Opener, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(open)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAddListAndSummary(t *testing.T) {
	open, tracker, releases := newTestApp(t)

	out, err := run(t, open, "add", "--amount", "1000", "--category", "Salary", "--type", "income")
	if err != nil {
		t.Fatalf("add income: %v", err)
	}
	if !strings.Contains(out, "tx-1") {
		t.Fatalf("expected id in output, got %q", out)
	}
	if _, err := run(t, open, "add", "-a", "45,5", "-c", "groceries", "-t", "expense", "-d", "weekly shop", "--date", "2025-06-18"); err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if tracker.Summary().Balance.String() != "954.5" {
		t.Fatalf("balance=%s", tracker.Summary().Balance)
	}
	if *releases != 2 {
		t.Fatalf("expected app released after each command, got %d", *releases)
	}

	out, err = run(t, open, "list", "--type", "expense")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "weekly shop") || strings.Contains(out, "Salary") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out, err = run(t, open, "summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"$1,000.00", "$45.50", "$954.50"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestAddErrors(t *testing.T) {
	open, _, _ := newTestApp(t)

	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"bad amount", []string{"add", "-a", "abc", "-c", "Food", "-t", "expense"}, core.ErrValidation},
		{"bad category", []string{"add", "-a", "5", "-c", "Moon", "-t", "expense"}, core.ErrValidation},
		{"overdraw", []string{"add", "-a", "5", "-c", "Food", "-t", "expense"}, core.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, open, tt.args...); !errors.Is(err, tt.is) {
				t.Fatalf("expected %v, got %v", tt.is, err)
			}
		})
	}

	if _, err := run(t, open, "add", "-a", "5"); err == nil {
		t.Fatal("expected missing required flags error")
	}
}

func TestEditRemoveClear(t *testing.T) {
	open, tracker, _ := newTestApp(t)
	mustRun(t, open, "add", "-a", "300", "-c", "Bonus", "-t", "income")
	mustRun(t, open, "add", "-a", "100", "-c", "Travel", "-t", "expense", "-d", "train")

	mustRun(t, open, "edit", "tx-2", "--amount", "150")
	tx, err := tracker.Get("tx-2")
	if err != nil {
		t.Fatal(err)
	}
	if tx.Amount.String() != "150" || tx.Description != "train" || tx.Category != core.Travel {
		t.Fatalf("edit should only change amount, got %+v", tx)
	}

	if _, err := run(t, open, "edit", "tx-9", "--amount", "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	mustRun(t, open, "rm", "tx-2")
	if _, err := run(t, open, "rm", "tx-2"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}

	if _, err := run(t, open, "clear"); err == nil {
		t.Fatal("clear without --yes must refuse")
	}
	mustRun(t, open, "clear", "--yes")
	if len(tracker.Snapshot()) != 0 {
		t.Fatal("expected empty ledger")
	}
}

func TestStatsAndBudgets(t *testing.T) {
	open, _, _ := newTestApp(t)
	mustRun(t, open, "add", "-a", "1000", "-c", "Salary", "-t", "income")
	mustRun(t, open, "add", "-a", "170", "-c", "Food", "-t", "expense")

	out := mustRun(t, open, "stats", "--period", "month")
	for _, want := range []string{"Period: month (2 transactions)", "Surplus rate: 83.0%", "Food"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, open, "budget", "set", "food", "200")
	if !strings.Contains(out, "$200.00") {
		t.Fatalf("budget set output:\n%s", out)
	}
	out = mustRun(t, open, "budget", "warnings")
	if !strings.Contains(out, "approaching_limit") || !strings.Contains(out, "85%") {
		t.Fatalf("warnings output:\n%s", out)
	}
	if _, err := run(t, open, "budget", "set", "Salary", "10"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for income category, got %v", err)
	}
	mustRun(t, open, "budget", "set", "Food", "0")
	if out := mustRun(t, open, "budget", "list"); !strings.Contains(out, "(no budgets)") {
		t.Fatalf("expected removed budget:\n%s", out)
	}
}

func TestExportInsightAndCategories(t *testing.T) {
	open, _, _ := newTestApp(t)
	mustRun(t, open, "add", "-a", "50", "-c", "Gift", "-t", "income", "-d", "birthday")

	out := mustRun(t, open, "export", "--format", "text")
	if !strings.Contains(out, "WealthWise Financial Report") || !strings.Contains(out, "birthday") {
		t.Fatalf("text export:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "report.csv")
	mustRun(t, open, "export", "-o", path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "+$50.00") {
		t.Fatalf("csv export:\n%s", data)
	}
	if _, err := run(t, open, "export", "--format", "pdf"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if out := mustRun(t, open, "insight"); strings.TrimSpace(out) != "Keep going." {
		t.Fatalf("insight output %q", out)
	}

	mustRun(t, open, "categories", "icon", "Gift", "Heart")
	out = mustRun(t, open, "categories")
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "Gift ") && !strings.Contains(line, "Heart") {
			t.Fatalf("Gift row missing override: %q", line)
		}
	}
}

func mustRun(t *testing.T, open Opener, args ...string) string {
	t.Helper()
	out, err := run(t, open, args...)
	if err != nil {
		t.Fatalf("%s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestRootHelpWarnsAboutRunningServer(t *testing.T) {
	open, _, releases := newTestApp(t)
	out, err := run(t, open, "--help")
	if err != nil {
		t.Fatalf("help: %v", err)
	}
	if !strings.Contains(out, "Stop the wealthwise server") {
		t.Fatalf("expected shared backend warning in help, got %q", out)
	}
	if *releases != 0 {
		t.Fatalf("help should not open the ledger, released %d times", *releases)
	}
}
