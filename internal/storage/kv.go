// Package storage persists the ledger, budgets and icon overrides as JSON
// documents in a key-value store.
package storage

import (
	"context"
	"errors"
)

// Keys of the persisted documents.
const (
	TransactionsKey = "wealthwise_transactions"
	BudgetsKey      = "wealthwise_budgets"
	IconsKey        = "wealthwise_category_icons"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage: closed")

// KV is the minimal key-value contract every backend implements. Get reports
// ok=false for a missing key.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
