package insight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthwise/internal/cache"
	"wealthwise/internal/core"
)

type stubService struct {
	calls atomic.Int32
	text  string
	err   error
	gate  chan struct{}
}

func (s *stubService) Generate(ctx context.Context, _ []core.Transaction) (string, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

func sample() []core.Transaction {
	return []core.Transaction{{
		ID: "a", Amount: decimal.NewFromInt(20), Category: core.Food, Type: core.Expense,
		Date: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	}}
}

func TestAdvisor_Messages(t *testing.T) {
	tests := []struct {
		name         string
		svc          Service
		txs          []core.Transaction
		wantText     string
		wantFallback bool
	}{
		{"empty ledger", &stubService{text: "unused"}, nil, EmptyMessage, true},
		{"service error", &stubService{err: errors.New("timeout")}, sample(), UnavailableMessage, true},
		{"not configured", Unavailable{}, sample(), UnavailableMessage, true},
		{"blank answer", &stubService{text: "   "}, sample(), BlankMessage, true},
		{"real answer", &stubService{text: " Spend less on food. "}, sample(), "Spend less on food.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewAdvisor(tt.svc).Advise(context.Background(), tt.txs)
			if got.Text != tt.wantText || got.Fallback != tt.wantFallback {
				t.Fatalf("Advise() = %+v, want text %q fallback %v", got, tt.wantText, tt.wantFallback)
			}
		})
	}
}

func TestAdvisor_EmptyDoesNotCallService(t *testing.T) {
	svc := &stubService{text: "x"}
	NewAdvisor(svc).Advise(context.Background(), []core.Transaction{})
	if svc.calls.Load() != 0 {
		t.Fatal("service must not be called for an empty ledger")
	}
}

func TestAdvisor_CachesOnlyRealAnswers(t *testing.T) {
	svc := &stubService{err: errors.New("down")}
	a := NewAdvisor(svc, WithCache(cache.NewLRUCache[string](4, time.Minute)))

	a.Advise(context.Background(), sample())
	a.Advise(context.Background(), sample())
	if svc.calls.Load() != 2 {
		t.Fatalf("errors must not be cached, calls = %d", svc.calls.Load())
	}

	svc.err = nil
	svc.text = "Nice work."
	first := a.Advise(context.Background(), sample())
	second := a.Advise(context.Background(), sample())
	if first.Cached || !second.Cached || second.Text != "Nice work." {
		t.Fatalf("unexpected cache behaviour: %+v then %+v", first, second)
	}
	if svc.calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", svc.calls.Load())
	}
}

func TestAdvisor_CollapsesConcurrentRequests(t *testing.T) {
	svc := &stubService{text: "shared", gate: make(chan struct{})}
	a := NewAdvisor(svc)

	var wg sync.WaitGroup
	results := make([]Advice, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = a.Advise(context.Background(), sample())
		}()
	}
	for svc.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(svc.gate)
	wg.Wait()

	if n := svc.calls.Load(); n > 5 || n < 1 {
		t.Fatalf("unexpected call count %d", n)
	}
	for _, r := range results {
		if r.Text != "shared" {
			t.Fatalf("unexpected result %+v", r)
		}
	}
}

func TestAdvisor_Timeout(t *testing.T) {
	svc := &stubService{text: "late", gate: make(chan struct{})}
	a := NewAdvisor(svc, WithTimeout(20*time.Millisecond))
	got := a.Advise(context.Background(), sample())
	if got.Text != UnavailableMessage {
		t.Fatalf("expected unavailable on timeout, got %+v", got)
	}
}

func TestFingerprint(t *testing.T) {
	a := sample()
	b := sample()
	b[0].ID = "different-id"
	b[0].Description = "ignored"
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("fingerprint must only depend on generator inputs")
	}
	b[0].Amount = decimal.NewFromInt(21)
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatal("fingerprint must change with the amount")
	}
}
