package utils

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	MatchesComputed  prometheus.Counter
	ReportsRendered  *prometheus.CounterVec
	CreditsSpent     prometheus.Counter
	CheckoutSessions *prometheus.CounterVec
}

var (
	appMetrics  *Metrics
	metricsOnce sync.Once
)

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		MatchesComputed: f.NewCounter(prometheus.CounterOpts{
			Name: "sponsorly_matches_computed_total",
			Help: "Total number of sponsor/creator pairs scored by the matching engine.",
		}),
		ReportsRendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorly_reports_rendered_total",
			Help: "Performance reports rendered, by outcome.",
		}, []string{"outcome"}),
		CreditsSpent: f.NewCounter(prometheus.CounterOpts{
			Name: "sponsorly_credits_spent_total",
			Help: "Credits spent on marketplace purchases.",
		}),
		CheckoutSessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sponsorly_checkout_sessions_total",
			Help: "Stripe checkout sessions created, by kind.",
		}, []string{"kind"}),
	}
}

// GetMetrics returns the process-wide metrics, registering them on first use.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		appMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return appMetrics
}
