// Package metrics exposes the Prometheus collectors for the order engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersStarted counts accepted start requests.
	OrdersStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "coffee_orders_started_total",
		Help: "Total orders accepted by the engine",
	})

	// OrdersTerminal counts orders reaching a terminal status, by status.
	OrdersTerminal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_orders_terminal_total",
		Help: "Total orders reaching a terminal status",
	}, []string{"status"})

	// StepAttempts counts executor invocations, by step and outcome.
	StepAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coffee_step_attempts_total",
		Help: "Total step executor attempts",
	}, []string{"step", "outcome"})

	// OrderDuration observes wall-clock time from start to terminal status.
	OrderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "coffee_order_duration_seconds",
		Help:    "Order execution duration from start to terminal status",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})
)

// ObserveTerminal records one finished order.
func ObserveTerminal(status string, duration time.Duration) {
	OrdersTerminal.WithLabelValues(status).Inc()
	OrderDuration.Observe(duration.Seconds())
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
