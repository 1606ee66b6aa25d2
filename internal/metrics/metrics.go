// Package metrics declares the Prometheus collectors exported at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wealthwise",
	Subsystem: "ledger",
	Name:      "mutations_total",
	Help:      "Ledger mutations applied, by operation.",
}, []string{"op"})

var LedgerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wealthwise",
	Subsystem: "ledger",
	Name:      "rejections_total",
	Help:      "Ledger mutations refused, by error type.",
}, []string{"reason"})

var LedgerSize = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "wealthwise",
	Subsystem: "ledger",
	Name:      "transactions",
	Help:      "Number of transactions currently held by the ledger.",
})

var BudgetWarnings = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "wealthwise",
	Subsystem: "budget",
	Name:      "warnings",
	Help:      "Budget warnings at the last evaluation, by severity.",
}, []string{"severity"})

var InsightRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wealthwise",
	Subsystem: "insight",
	Name:      "requests_total",
	Help:      "Insight requests by outcome (generated, cached, empty, blank, fallback).",
}, []string{"outcome"})

var EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wealthwise",
	Subsystem: "amqp",
	Name:      "events_published_total",
	Help:      "Ledger events handed to the broker, by result.",
}, []string{"result"})

var ReportSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wealthwise",
	Subsystem: "report",
	Name:      "syncs_total",
	Help:      "Report publications to the spreadsheet, by result.",
}, []string{"result"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wealthwise",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route pattern and status code.",
}, []string{"route", "status"})

var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "wealthwise",
	Subsystem: "http",
	Name:      "request_duration_ms",
	Help:      "HTTP request latency in milliseconds.",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
}, []string{"route"})

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
