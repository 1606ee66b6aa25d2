package storage

import (
	"context"
	"fmt"

	"wealthwise/internal/core"
	"wealthwise/internal/log"
)

// Adapter serializes domain state to a KV backend. Reads never fail: a
// missing or corrupt document is logged and treated as empty.
type Adapter struct {
	kv     KV
	logger *log.Logger
}

func NewAdapter(kv KV, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = log.Discard()
	}
	return &Adapter{kv: kv, logger: logger.WithComponent(log.ComponentStorage)}
}

// LoadTransactions implements ledger.Persister.
func (a *Adapter) LoadTransactions(ctx context.Context) []core.Transaction {
	data, ok := a.read(ctx, TransactionsKey)
	if !ok {
		return []core.Transaction{}
	}
	txs, skipped, err := DecodeTransactions(data)
	if err != nil {
		a.warn(ctx, TransactionsKey, log.OpParse, err)
		return []core.Transaction{}
	}
	a.reportSkipped(ctx, TransactionsKey, skipped)
	return txs
}

// SaveTransactions implements ledger.Persister.
func (a *Adapter) SaveTransactions(ctx context.Context, txs []core.Transaction) error {
	data, err := EncodeTransactions(txs)
	if err != nil {
		return fmt.Errorf("encode transactions: %w", err)
	}
	return a.write(ctx, TransactionsKey, data)
}

func (a *Adapter) LoadBudgets(ctx context.Context) []core.Budget {
	data, ok := a.read(ctx, BudgetsKey)
	if !ok {
		return []core.Budget{}
	}
	budgets, skipped, err := DecodeBudgets(data)
	if err != nil {
		a.warn(ctx, BudgetsKey, log.OpParse, err)
		return []core.Budget{}
	}
	a.reportSkipped(ctx, BudgetsKey, skipped)
	return budgets
}

func (a *Adapter) SaveBudgets(ctx context.Context, budgets []core.Budget) error {
	data, err := EncodeBudgets(budgets)
	if err != nil {
		return fmt.Errorf("encode budgets: %w", err)
	}
	return a.write(ctx, BudgetsKey, data)
}

func (a *Adapter) LoadIcons(ctx context.Context) core.IconSet {
	data, ok := a.read(ctx, IconsKey)
	if !ok {
		return core.IconSet{}
	}
	icons, skipped, err := DecodeIcons(data)
	if err != nil {
		a.warn(ctx, IconsKey, log.OpParse, err)
		return core.IconSet{}
	}
	a.reportSkipped(ctx, IconsKey, skipped)
	return icons
}

func (a *Adapter) SaveIcons(ctx context.Context, icons core.IconSet) error {
	data, err := EncodeIcons(icons)
	if err != nil {
		return fmt.Errorf("encode icons: %w", err)
	}
	return a.write(ctx, IconsKey, data)
}

// Ping checks the underlying backend.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.kv.Ping(ctx)
}

func (a *Adapter) read(ctx context.Context, key string) ([]byte, bool) {
	data, ok, err := a.kv.Get(ctx, key)
	if err != nil {
		a.warn(ctx, key, log.OpLoad, err)
		return nil, false
	}
	if !ok || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (a *Adapter) write(ctx context.Context, key string, data []byte) error {
	if err := a.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (a *Adapter) warn(ctx context.Context, key, op string, err error) {
	fields := log.NewFields().
		WithOperation(op).
		WithErrorType(log.ErrorTypeDatabase).
		WithError(err)
	fields[log.FieldStorageKey] = key
	a.logger.WarnContext(ctx, "Falling back to empty state", fields.ToSlice()...)
}

func (a *Adapter) reportSkipped(ctx context.Context, key string, skipped int) {
	if skipped == 0 {
		return
	}
	a.logger.WarnContext(ctx, "Skipped invalid records",
		log.FieldStorageKey, key,
		log.FieldCount, skipped,
		log.FieldErrorType, log.ErrorTypeValidation)
}
