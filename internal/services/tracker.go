// Package services orchestrates the ledger, the affordability guard, budgets
// and change events for every presentation surface.
package services

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/amqp"
	"wealthwise/internal/budget"
	"wealthwise/internal/core"
	"wealthwise/internal/guard"
	"wealthwise/internal/ledger"
	"wealthwise/internal/log"
	"wealthwise/internal/metrics"
	"wealthwise/internal/stats"
)

// Publisher delivers change notifications. It is optional.
type Publisher interface {
	Publish(ctx context.Context, e amqp.Event) error
}

// Settings persists budgets and icon overrides.
type Settings interface {
	LoadBudgets(ctx context.Context) []core.Budget
	SaveBudgets(ctx context.Context, budgets []core.Budget) error
	LoadIcons(ctx context.Context) core.IconSet
	SaveIcons(ctx context.Context, icons core.IconSet) error
}

// Dashboard is the home screen view.
type Dashboard struct {
	Summary        stats.Summary
	Warnings       []budget.Warning
	MonthBreakdown map[core.Category]decimal.Decimal
}

// Tracker serializes every mutation together with its affordability check,
// so two concurrent expenses cannot both pass against the same balance.
type Tracker struct {
	mu        sync.Mutex
	ledger    *ledger.Store
	settings  Settings
	publisher Publisher
	budgets   []core.Budget
	icons     core.IconSet
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewTracker loads budgets and icons from settings. publisher may be nil.
func NewTracker(ctx context.Context, store *ledger.Store, settings Settings, publisher Publisher, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Discard()
	}
	t := &Tracker{
		ledger:    store,
		settings:  settings,
		publisher: publisher,
		budgets:   []core.Budget{},
		icons:     core.IconSet{},
		logger:    logger.WithComponent(log.ComponentLedger),
		events:    log.NewStructuredLogger(logger),
	}
	if settings != nil {
		t.budgets = settings.LoadBudgets(ctx)
		t.icons = settings.LoadIcons(ctx)
	}
	metrics.LedgerSize.Set(float64(store.Len()))
	return t
}

// Record adds a new transaction after validating it and checking that an
// expense or saving is covered by the current balance.
func (t *Tracker) Record(ctx context.Context, d core.Draft) (core.Transaction, error) {
	t.mu.Lock()
	tx, err := t.record(ctx, d)
	t.mu.Unlock()
	if err != nil {
		t.reject(ctx, log.OpCreate, err)
		return core.Transaction{}, err
	}
	t.applied(ctx, amqp.OpCreate, log.OpCreate, tx)
	return tx, nil
}

func (t *Tracker) record(ctx context.Context, d core.Draft) (core.Transaction, error) {
	if err := d.Normalize().Validate(); err != nil {
		return core.Transaction{}, err
	}
	balance := stats.Summarize(t.ledger.List()).Balance
	if err := guard.Check(d.Amount, d.Type, balance, nil); err != nil {
		return core.Transaction{}, err
	}
	return t.ledger.Add(ctx, d)
}

// Edit replaces the fields of an existing transaction. The guard sees the
// balance with the original entry's effect reversed.
func (t *Tracker) Edit(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	t.mu.Lock()
	tx, err := t.edit(ctx, id, d)
	t.mu.Unlock()
	if err != nil {
		t.reject(ctx, log.OpUpdate, err)
		return core.Transaction{}, err
	}
	t.applied(ctx, amqp.OpUpdate, log.OpUpdate, tx)
	return tx, nil
}

func (t *Tracker) edit(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	original, err := t.ledger.Get(id)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := d.Normalize().Validate(); err != nil {
		return core.Transaction{}, err
	}
	balance := stats.Summarize(t.ledger.List()).Balance
	if err := guard.Check(d.Amount, d.Type, balance, &original); err != nil {
		return core.Transaction{}, err
	}
	return t.ledger.Update(ctx, id, d)
}

// Delete removes a transaction.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	t.mu.Lock()
	original, err := t.ledger.Get(id)
	if err == nil {
		err = t.ledger.Remove(ctx, id)
	}
	t.mu.Unlock()
	if err != nil {
		t.reject(ctx, log.OpDelete, err)
		return err
	}
	t.applied(ctx, amqp.OpDelete, log.OpDelete, original)
	return nil
}

// Clear removes every transaction. Budgets and icons are kept.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	err := t.ledger.Clear(ctx)
	t.mu.Unlock()
	if err != nil {
		return err
	}
	metrics.LedgerMutations.WithLabelValues(log.OpClear).Inc()
	metrics.LedgerSize.Set(0)
	t.logger.InfoContext(ctx, "Ledger cleared", log.FieldOperation, log.OpClear)
	t.publish(ctx, amqp.NewEvent(amqp.OpClear, "", ""))
	return nil
}

// Get returns one transaction.
func (t *Tracker) Get(id string) (core.Transaction, error) {
	return t.ledger.Get(id)
}

// Snapshot returns the ledger in stored order.
func (t *Tracker) Snapshot() []core.Transaction {
	return t.ledger.List()
}

// Transactions is the history view: filtered by type and sorted.
func (t *Tracker) Transactions(filter stats.TypeFilter, key stats.SortKey, order stats.Order) []core.Transaction {
	return stats.Sort(stats.FilterByType(t.ledger.List(), filter), key, order)
}

// Savings lists saving entries in stored order.
func (t *Tracker) Savings() []core.Transaction {
	return stats.OfType(t.ledger.List(), core.Saving)
}

// Summary totals the whole ledger.
func (t *Tracker) Summary() stats.Summary {
	return stats.Summarize(t.ledger.List())
}

// Stats is the period view relative to now.
func (t *Tracker) Stats(period stats.Period, now time.Time) stats.Stats {
	return stats.PeriodStats(t.ledger.List(), period, now)
}

// Budgets returns the configured limits.
func (t *Tracker) Budgets() []core.Budget {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.budgets)
}

// SetBudget inserts, replaces or (limit <= 0) removes a category limit.
func (t *Tracker) SetBudget(ctx context.Context, category core.Category, limit decimal.Decimal) ([]core.Budget, error) {
	t.mu.Lock()
	next, err := budget.Upsert(t.budgets, category, limit)
	if err != nil {
		t.mu.Unlock()
		t.reject(ctx, log.OpUpdate, err)
		return nil, err
	}
	t.budgets = next
	t.persistBudgets(ctx)
	out := slices.Clone(next)
	t.mu.Unlock()

	t.logger.WithComponent(log.ComponentBudget).InfoContext(ctx, "Budget updated",
		log.FieldCategory, string(category),
		"limit", limit.StringFixed(2))
	t.publish(ctx, amqp.NewEvent(amqp.OpBudget, "", string(category)))
	return out, nil
}

// Warnings evaluates budgets against the spend of now's calendar month.
func (t *Tracker) Warnings(now time.Time) []budget.Warning {
	monthSpend := stats.CurrentMonthSpendByCategory(t.ledger.List(), now)
	warnings := budget.Evaluate(t.Budgets(), monthSpend)
	recordWarnings(warnings)
	return warnings
}

// Dashboard combines the overall summary with this month's budget state.
func (t *Tracker) Dashboard(now time.Time) Dashboard {
	txs := t.ledger.List()
	monthSpend := stats.CurrentMonthSpendByCategory(txs, now)
	warnings := budget.Evaluate(t.Budgets(), monthSpend)
	recordWarnings(warnings)
	return Dashboard{
		Summary:        stats.Summarize(txs),
		Warnings:       warnings,
		MonthBreakdown: monthSpend,
	}
}

// Icons returns the icon overrides.
func (t *Tracker) Icons() core.IconSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	return maps.Clone(t.icons)
}

// SetIcon assigns a pool icon to category.
func (t *Tracker) SetIcon(ctx context.Context, category core.Category, icon core.Icon) (core.IconSet, error) {
	t.mu.Lock()
	next, err := t.icons.With(category, icon)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	t.icons = next
	if t.settings != nil {
		if err := t.settings.SaveIcons(ctx, next); err != nil {
			t.persistFailed(ctx, "icons", err)
		}
	}
	out := maps.Clone(next)
	t.mu.Unlock()

	t.publish(ctx, amqp.NewEvent(amqp.OpIcon, "", string(category)))
	return out, nil
}

// Reload re-reads the ledger and settings from persistence. Used by
// processes that share a backend with the writer.
func (t *Tracker) Reload(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ledger.Reload(ctx)
	if t.settings != nil {
		t.budgets = t.settings.LoadBudgets(ctx)
		t.icons = t.settings.LoadIcons(ctx)
	}
	metrics.LedgerSize.Set(float64(t.ledger.Len()))
}

func (t *Tracker) persistBudgets(ctx context.Context) {
	if t.settings == nil {
		return
	}
	if err := t.settings.SaveBudgets(ctx, t.budgets); err != nil {
		t.persistFailed(ctx, "budgets", err)
	}
}

func (t *Tracker) persistFailed(ctx context.Context, what string, err error) {
	t.logger.WithComponent(log.ComponentStorage).WarnContext(ctx, "Failed to persist "+what,
		log.FieldError, err.Error(),
		log.FieldErrorType, log.ErrorTypeDatabase)
}

func (t *Tracker) applied(ctx context.Context, op amqp.Op, logOp string, tx core.Transaction) {
	metrics.LedgerMutations.WithLabelValues(logOp).Inc()
	metrics.LedgerSize.Set(float64(t.ledger.Len()))
	t.events.LogTransaction(ctx, logOp, tx.ID, string(tx.Type), string(tx.Category), tx.Amount)
	t.publish(ctx, amqp.NewEvent(op, tx.ID, string(tx.Category)))
}

func (t *Tracker) reject(ctx context.Context, op string, err error) {
	reason := rejectionReason(err)
	metrics.LedgerRejections.WithLabelValues(reason).Inc()
	t.logger.InfoContext(ctx, "Ledger mutation rejected",
		log.FieldOperation, op,
		log.FieldErrorType, reason,
		log.FieldError, err.Error())
}

func (t *Tracker) publish(ctx context.Context, e amqp.Event) {
	if t.publisher == nil {
		t.logger.DebugContext(ctx, "No event publisher configured, skipping", "op", e.Op)
		return
	}
	if err := t.publisher.Publish(ctx, e); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		t.logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "Failed to publish ledger event",
			"op", e.Op,
			log.FieldError, err.Error())
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrInsufficientFunds):
		return log.ErrorTypeInsufficientFunds
	default:
		return log.ErrorTypeInternal
	}
}

func recordWarnings(warnings []budget.Warning) {
	counts := map[budget.Severity]int{budget.OverLimit: 0, budget.ApproachingLimit: 0}
	for _, w := range warnings {
		counts[w.Severity]++
	}
	for sev, n := range counts {
		metrics.BudgetWarnings.WithLabelValues(string(sev)).Set(float64(n))
	}
}
