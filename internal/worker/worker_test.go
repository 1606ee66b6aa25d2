package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/amqp"
	"wealthwise/internal/core"
	"wealthwise/internal/report"
	"wealthwise/internal/report/sheets/memory"
)

type fakeSource struct {
	mu      sync.Mutex
	reloads int
	txs     []core.Transaction
}

func (f *fakeSource) Reload(context.Context) {
	f.mu.Lock()
	f.reloads++
	f.mu.Unlock()
}

func (f *fakeSource) Snapshot() []core.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.txs
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, report.Report) error {
	return errors.New("sheets unavailable")
}

func sampleSource() *fakeSource {
	return &fakeSource{txs: []core.Transaction{{
		ID: "a", Amount: decimal.NewFromInt(9), Category: core.Fuel, Type: core.Expense,
		Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}}}
}

func TestReportWorker_Sync(t *testing.T) {
	src := sampleSource()
	pub := memory.New()
	w := NewReportWorker(src, pub, nil)
	fixed := time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	if err := w.Sync(context.Background()); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if src.reloads != 1 {
		t.Fatalf("expected one reload, got %d", src.reloads)
	}
	got, ok := pub.Last()
	if !ok || len(got.Rows) != 1 || !got.GeneratedAt.Equal(fixed) {
		t.Fatalf("unexpected published report %+v", got)
	}
	last, err := w.Status()
	if err != nil || !last.Equal(fixed) {
		t.Fatalf("Status() = %v, %v", last, err)
	}
}

func TestReportWorker_SyncFailure(t *testing.T) {
	w := NewReportWorker(sampleSource(), failingPublisher{}, nil)
	if err := w.Sync(context.Background()); err == nil {
		t.Fatal("expected publish error")
	}
	last, err := w.Status()
	if err == nil || !last.IsZero() {
		t.Fatalf("Status() = %v, %v", last, err)
	}
}

func TestReportWorker_HandleEventSwallowsPublishErrors(t *testing.T) {
	w := NewReportWorker(sampleSource(), failingPublisher{}, nil)
	e := amqp.NewEvent(amqp.OpCreate, "a", string(core.Fuel))
	if err := w.HandleEvent(context.Background(), e); err != nil {
		t.Fatalf("HandleEvent must not ask for redelivery, got %v", err)
	}
}

type countingSyncer struct{ n atomic.Int32 }

func (c *countingSyncer) Sync(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestDefaultSchedulerConfig(t *testing.T) {
	if got := DefaultSchedulerConfig().Interval; got != 5*time.Minute {
		t.Errorf("expected Interval 5m, got %v", got)
	}
	s := NewScheduler(&countingSyncer{}, SchedulerConfig{}, nil)
	if s.config.Interval != 5*time.Minute {
		t.Errorf("zero interval should default, got %v", s.config.Interval)
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	target := &countingSyncer{}
	s := NewScheduler(target, SchedulerConfig{Interval: 10 * time.Millisecond}, nil)
	ctx := context.Background()

	if s.IsRunning() {
		t.Fatal("scheduler should not be running initially")
	}
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting twice")
	}

	deadline := time.Now().Add(2 * time.Second)
	for target.n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if target.n.Load() < 3 {
		t.Fatalf("expected at least 3 syncs, got %d", target.n.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.IsRunning() {
		t.Fatal("scheduler should not be running after stop")
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}
