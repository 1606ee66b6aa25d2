// Package worker keeps the published spreadsheet report in step with the
// ledger. It reacts to ledger events and refreshes on a timer as a backstop
// for lost messages.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wealthwise/internal/amqp"
	"wealthwise/internal/core"
	"wealthwise/internal/log"
	"wealthwise/internal/metrics"
	"wealthwise/internal/report"
)

// Source is the ledger view the worker publishes. *services.Tracker
// satisfies it.
type Source interface {
	Reload(ctx context.Context)
	Snapshot() []core.Transaction
}

type ReportWorker struct {
	source    Source
	publisher report.Publisher
	now       func() time.Time
	logger    *log.Logger

	// syncMu serialises publications so an older snapshot never lands
	// after a newer one.
	syncMu   sync.Mutex
	mu       sync.Mutex
	lastSync time.Time
	lastErr  error
}

func NewReportWorker(source Source, publisher report.Publisher, logger *log.Logger) *ReportWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReportWorker{
		source:    source,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent republishes the report after any ledger change. Publication
// failures are logged, not returned, so the broker does not redeliver in a
// tight loop; the periodic refresh retries them.
func (w *ReportWorker) HandleEvent(ctx context.Context, e amqp.Event) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"op", e.Op,
		log.FieldTxID, e.TransactionID,
		"timestamp", e.Timestamp)

	if err := w.Sync(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Report sync after event failed",
			"op", e.Op,
			log.FieldError, err.Error())
	}
	return nil
}

// Sync reloads the ledger from the shared backend and publishes a fresh
// report.
func (w *ReportWorker) Sync(ctx context.Context) error {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	w.source.Reload(ctx)
	txs := w.source.Snapshot()
	r := report.Build(txs, w.now())

	err := w.publisher.Publish(ctx, r)
	w.mu.Lock()
	w.lastErr = err
	if err == nil {
		w.lastSync = r.GeneratedAt
	}
	w.mu.Unlock()

	if err != nil {
		metrics.ReportSyncs.WithLabelValues("error").Inc()
		return fmt.Errorf("publish report: %w", err)
	}
	metrics.ReportSyncs.WithLabelValues("ok").Inc()
	w.logger.InfoContext(ctx, "Report synced", log.FieldCount, len(txs))
	return nil
}

// Status reports the time of the last successful sync and the most recent
// error, if the last attempt failed.
func (w *ReportWorker) Status() (time.Time, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSync, w.lastErr
}
