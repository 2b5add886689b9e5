package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the recommendation service's Prometheus collectors.
type Metrics struct {
	Requests      *prometheus.CounterVec
	Duration      prometheus.Histogram
	Items         prometheus.Histogram
	StaleResults  *prometheus.CounterVec
	Recommended   *prometheus.CounterVec
	Advice        *prometheus.CounterVec
	FileCache     *prometheus.CounterVec
	PortfolioRows prometheus.Gauge
	MarketRows    prometheus.Gauge
}

// NewMetrics registers the collectors with reg. Pass a fresh registry in
// tests; the server uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_requests_total",
				Help: "Recommendation requests by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Duration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_engine_duration_seconds",
				Help:    "Time spent generating recommendations for one client",
				Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
			},
		),
		Items: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "advisor_recommendation_items",
				Help:    "Number of recommendations returned per request",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
			},
		),
		StaleResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_stale_results_total",
				Help: "Results produced from stale market data, by freshness policy",
			},
			[]string{"policy"},
		),
		Recommended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_recommendations_total",
				Help: "Recommendations returned, by type",
			},
			[]string{"type"},
		),
		Advice: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_advice_total",
				Help: "Rendered advice, by the renderer that produced the text",
			},
			[]string{"renderer"},
		),
		FileCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "advisor_file_cache_total",
				Help: "Data file cache lookups by file kind and result",
			},
			[]string{"file", "result"},
		),
		PortfolioRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_portfolio_records",
				Help: "Client records in the loaded portfolio file",
			},
		),
		MarketRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "advisor_market_quotes",
				Help: "Quotes in the loaded market snapshot",
			},
		),
	}
}
