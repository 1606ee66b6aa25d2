// Package insight turns a ledger snapshot into short financial advice from
// an external text generator. The generator is opaque; this package owns the
// fallback messages, caching and request collapsing around it.
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"wealthwise/internal/cache"
	"wealthwise/internal/core"
	"wealthwise/internal/log"
	"wealthwise/internal/metrics"
)

const (
	EmptyMessage       = "Add some transactions to get AI-powered financial insights!"
	UnavailableMessage = "The AI advisor is currently unavailable. Please check your connection or try again later."
	BlankMessage       = "I've analyzed your data but couldn't generate a specific insight right now. Try adding more varied records!"

	DefaultTimeout = 20 * time.Second
)

// ErrNotConfigured is returned by Unavailable.
var ErrNotConfigured = errors.New("insight service not configured")

// Service generates advice text for a snapshot of transactions.
type Service interface {
	Generate(ctx context.Context, txs []core.Transaction) (string, error)
}

// Unavailable stands in when no generator is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, []core.Transaction) (string, error) {
	return "", ErrNotConfigured
}

// Advice is what presentation surfaces show. Fallback marks canned text.
type Advice struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
	Cached   bool   `json:"cached"`
}

type Option func(*Advisor)

func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithCache reuses generated advice for identical snapshots.
func WithCache(c *cache.LRUCache[string]) Option {
	return func(a *Advisor) { a.cache = c }
}

func WithLogger(l *log.Logger) Option {
	return func(a *Advisor) {
		if l != nil {
			a.logger = l.WithComponent(log.ComponentInsight)
		}
	}
}

// Advisor wraps a Service with the user-facing fallback rules.
type Advisor struct {
	svc     Service
	cache   *cache.LRUCache[string]
	group   singleflight.Group
	timeout time.Duration
	logger  *log.Logger
}

func NewAdvisor(svc Service, opts ...Option) *Advisor {
	if svc == nil {
		svc = Unavailable{}
	}
	a := &Advisor{
		svc:     svc,
		timeout: DefaultTimeout,
		logger:  log.Discard().WithComponent(log.ComponentInsight),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Advise never fails: generator errors and blank answers become fallback
// text. Only real answers are cached.
func (a *Advisor) Advise(ctx context.Context, txs []core.Transaction) Advice {
	if len(txs) == 0 {
		metrics.InsightRequests.WithLabelValues("empty").Inc()
		return Advice{Text: EmptyMessage, Fallback: true}
	}

	key := Fingerprint(txs)
	if a.cache != nil {
		if text, ok := a.cache.Get(key); ok {
			metrics.InsightRequests.WithLabelValues("cached").Inc()
			return Advice{Text: text, Cached: true}
		}
	}

	snapshot := slices.Clone(txs)
	v, err, shared := a.group.Do(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		return a.svc.Generate(callCtx, snapshot)
	})
	if err != nil {
		metrics.InsightRequests.WithLabelValues("fallback").Inc()
		if !errors.Is(err, ErrNotConfigured) {
			a.logger.WarnContext(ctx, "Insight generation failed",
				log.FieldError, err.Error(),
				log.FieldCount, len(txs))
		}
		return Advice{Text: UnavailableMessage, Fallback: true}
	}

	text := strings.TrimSpace(v.(string))
	if text == "" {
		metrics.InsightRequests.WithLabelValues("blank").Inc()
		return Advice{Text: BlankMessage, Fallback: true}
	}
	if a.cache != nil {
		a.cache.Set(key, text)
	}
	metrics.InsightRequests.WithLabelValues("generated").Inc()
	a.logger.DebugContext(ctx, "Insight generated", log.FieldCount, len(txs), "shared", shared)
	return Advice{Text: text}
}

// Fingerprint identifies a snapshot by the fields sent to the generator.
// Order matters.
func Fingerprint(txs []core.Transaction) string {
	h := sha256.New()
	for _, tx := range txs {
		h.Write([]byte(string(tx.Type)))
		h.Write([]byte{0})
		h.Write([]byte(tx.Amount.StringFixed(2)))
		h.Write([]byte{0})
		h.Write([]byte(tx.Category))
		h.Write([]byte{0})
		h.Write([]byte(tx.Date.Format(time.DateOnly)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
