package planner

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the planner's collectors.
type Metrics struct {
	rangesComputed *prometheus.CounterVec
	errors         *prometheus.CounterVec
	rangeWidth     prometheus.Histogram
}

// NewMetrics creates the planner collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rangesComputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_ranges_computed_total",
				Help: "Number of position ranges computed, by assumption and duration.",
			},
			[]string{"assumption", "duration"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "planner_errors_total",
				Help: "Number of failed planner operations.",
			},
			[]string{"operation"},
		),
		rangeWidth: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "planner_range_width_ticks",
				Help:    "Width in ticks of computed position ranges.",
				Buckets: prometheus.ExponentialBuckets(10, 2, 16),
			},
		),
	}
	reg.MustRegister(m.rangesComputed, m.errors, m.rangeWidth)
	return m
}
