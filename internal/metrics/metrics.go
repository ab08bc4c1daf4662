// Package metrics exposes Prometheus collectors for the trading loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Snapshots processed per symbol"},
		[]string{"symbol"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders submitted"},
		[]string{"symbol", "side"},
	)
	EmptyBooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "empty_books_total", Help: "Instruments skipped for an empty book"},
		[]string{"symbol"},
	)
	DecisionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "decision_errors_total", Help: "Ticks aborted by a fatal decision error"},
		[]string{"kind"},
	)
	EMA = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "ema_value", Help: "Latest exponential moving average per product"},
		[]string{"product", "series"},
	)
	Position = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "paper_position", Help: "Paper net position per product"},
		[]string{"product"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, OrdersTotal, EmptyBooksTotal, DecisionErrorsTotal, EMA, Position)
}

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
