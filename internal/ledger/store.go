// Package ledger keeps the ordered collection of transactions and writes it
// through to a persistence port after every mutation.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"wealthwise/internal/core"
	"wealthwise/internal/log"
)

// Persister is the key-value persistence port seen by the store. Load
// failures must degrade to an empty slice inside the implementation.
type Persister interface {
	LoadTransactions(ctx context.Context) []core.Transaction
	SaveTransactions(ctx context.Context, txs []core.Transaction) error
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used to date drafts without a date.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentLedger) }
}

// Store is the in-memory ledger. The head of the collection is the most
// recent insert. Mutations are serialized; readers get copies.
type Store struct {
	mu      sync.RWMutex
	txs     []core.Transaction
	persist Persister
	now     func() time.Time
	newID   func() string
	logger  *log.Logger
}

// New loads the persisted ledger once and returns a store backed by p.
// A nil persister keeps the ledger in memory only.
func New(ctx context.Context, p Persister, opts ...Option) *Store {
	s := &Store{
		persist: p,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if p != nil {
		s.txs = p.LoadTransactions(ctx)
	}
	return s
}

// Add validates d, assigns a fresh ID and prepends the new transaction.
func (s *Store) Add(ctx context.Context, d core.Draft) (core.Transaction, error) {
	d = s.prepare(d)
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx := core.Transaction{
		ID:          s.newID(),
		Amount:      d.Amount,
		Category:    d.Category,
		Type:        d.Type,
		Description: d.Description,
		Date:        d.Date,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]core.Transaction, 0, len(s.txs)+1)
	next = append(next, tx)
	next = append(next, s.txs...)
	s.txs = next
	s.saveLocked(ctx, log.OpCreate)
	return tx, nil
}

// Update replaces every field of the transaction with the given id except
// the id itself. Its position in the collection is kept.
func (s *Store) Update(ctx context.Context, id string, d core.Draft) (core.Transaction, error) {
	d = s.prepare(d)
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	tx := core.Transaction{
		ID:          id,
		Amount:      d.Amount,
		Category:    d.Category,
		Type:        d.Type,
		Description: d.Description,
		Date:        d.Date,
	}
	s.txs[idx] = tx
	s.saveLocked(ctx, log.OpUpdate)
	return tx, nil
}

// Remove deletes the transaction with the given id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return &core.NotFoundError{ID: id}
	}
	next := make([]core.Transaction, 0, len(s.txs)-1)
	next = append(next, s.txs[:idx]...)
	next = append(next, s.txs[idx+1:]...)
	s.txs = next
	s.saveLocked(ctx, log.OpDelete)
	return nil
}

// Clear empties the ledger.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = nil
	s.saveLocked(ctx, log.OpClear)
	return nil
}

// Get returns the transaction with the given id.
func (s *Store) Get(id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Transaction{}, &core.NotFoundError{ID: id}
	}
	return s.txs[idx], nil
}

// List returns a copy of the ledger in stored order.
func (s *Store) List() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}

// Reload replaces the in-memory ledger with the persisted one.
func (s *Store) Reload(ctx context.Context) {
	if s.persist == nil {
		return
	}
	txs := s.persist.LoadTransactions(ctx)
	s.mu.Lock()
	s.txs = txs
	s.mu.Unlock()
}

func (s *Store) prepare(d core.Draft) core.Draft {
	d = d.Normalize()
	if d.Date.IsZero() {
		d.Date = s.now()
	}
	return d
}

func (s *Store) indexLocked(id string) int {
	for i := range s.txs {
		if s.txs[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []core.Transaction {
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// saveLocked writes the ledger through to the persister while the write
// lock is held, so saves land in mutation order. Failures are logged and
// never roll back the in-memory mutation.
func (s *Store) saveLocked(ctx context.Context, op string) {
	if s.persist == nil {
		return
	}
	txs := s.snapshotLocked()
	if err := s.persist.SaveTransactions(ctx, txs); err != nil {
		fields := log.NewFields().
			WithOperation(op).
			WithErrorType(log.ErrorTypeDatabase).
			WithError(err)
		fields[log.FieldCount] = len(txs)
		s.logger.WarnContext(ctx, "Failed to persist ledger", fields.ToSlice()...)
	}
}
