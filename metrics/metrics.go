package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ResultsComputed.
const (
	OutcomeValid        = "valid"
	OutcomeExpired      = "expired"
	OutcomeUndetermined = "undetermined"
	OutcomeError        = "error"
)

// Metrics provides observability for the validity pipeline.
type Metrics struct {
	ResultsComputed    *prometheus.CounterVec
	DateParseFailures  *prometheus.CounterVec
	ValidityDefaulted  prometheus.Counter
	ExtractionDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ResultsComputed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docvalidity_results_computed_total",
			Help: "Validity records computed, by schema and outcome",
		}, []string{"schema", "outcome"}),
		DateParseFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docvalidity_date_parse_failures_total",
			Help: "Issuance date mentions that could not be parsed, by schema",
		}, []string{"schema"}),
		ValidityDefaulted: factory.NewCounter(prometheus.CounterOpts{
			Name: "docvalidity_validity_defaulted_total",
			Help: "Records that fell back to the default validity period",
		}),
		ExtractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docvalidity_extraction_duration_seconds",
			Help:    "Duration of entity extraction from an uploaded document, by source",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
	}
}

// ObserveResult records a computed record's outcome.
func (m *Metrics) ObserveResult(schema, outcome string) {
	if m == nil {
		return
	}
	m.ResultsComputed.WithLabelValues(schema, outcome).Inc()
}

// IncDateParseFailure records an unparseable issuance mention.
func (m *Metrics) IncDateParseFailure(schema string) {
	if m == nil {
		return
	}
	m.DateParseFailures.WithLabelValues(schema).Inc()
}

// IncValidityDefaulted records a defaulted validity period.
func (m *Metrics) IncValidityDefaulted() {
	if m == nil {
		return
	}
	m.ValidityDefaulted.Inc()
}

// ObserveExtraction records an extraction duration.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveExtraction(source string, start time.Time) {
	if m == nil {
		return
	}
	m.ExtractionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}
