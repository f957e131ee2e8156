package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Placement check outcomes reported by the occupancy layer.
const (
	PlacementValid       = "valid"
	PlacementOutOfBounds = "out_of_bounds"
	PlacementCollision   = "collision"
)

// EditorMetrics records terrain-editor and pricing activity.
type EditorMetrics struct {
	placementChecks *prometheus.CounterVec
	quotes          prometheus.Counter
	pricingDuration prometheus.Histogram
}

// NewEditorMetrics registers the editor metrics on the provided registerer.
func NewEditorMetrics(reg prometheus.Registerer) *EditorMetrics {
	if reg == nil {
		return &EditorMetrics{}
	}
	placementChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "placement_checks_total",
		Help: "Placement validations, by outcome.",
	}, []string{"result"})
	quotes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "basket_quotes_total",
		Help: "Basket pricing quotes computed.",
	})
	pricingDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_quote_duration_seconds",
		Help:    "Duration of basket pricing computations in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(placementChecks, quotes, pricingDuration)
	return &EditorMetrics{
		placementChecks: placementChecks,
		quotes:          quotes,
		pricingDuration: pricingDuration,
	}
}

// ObservePlacement counts one placement validation with its outcome.
func (m *EditorMetrics) ObservePlacement(result string) {
	if m == nil || m.placementChecks == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	m.placementChecks.WithLabelValues(result).Inc()
}

// IncQuote counts one basket quote.
func (m *EditorMetrics) IncQuote() {
	if m == nil || m.quotes == nil {
		return
	}
	m.quotes.Inc()
}

// ObserveQuoteDuration records how long a basket quote took.
func (m *EditorMetrics) ObserveQuoteDuration(d time.Duration) {
	if m == nil || m.pricingDuration == nil {
		return
	}
	m.pricingDuration.Observe(d.Seconds())
}
