package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tableContextsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text2sql_table_contexts_total",
			Help: "Per-table context builds by result.",
		},
		[]string{"result"},
	)

	contextBuildSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "text2sql_context_build_seconds",
			Help:    "Latency of a full prompt context build.",
			Buckets: prometheus.DefBuckets,
		},
	)

	referenceLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text2sql_reference_lookups_total",
			Help: "Reference searches by result.",
		},
		[]string{"result"},
	)

	translationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "text2sql_translations_total",
			Help: "LLM translations by result.",
		},
		[]string{"result"},
	)

	translationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "text2sql_translation_seconds",
			Help:    "Latency of LLM translation calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
)

func init() {
	prometheus.MustRegister(
		tableContextsTotal,
		contextBuildSeconds,
		referenceLookupsTotal,
		translationsTotal,
		translationSeconds,
	)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveTableContext(err error) {
	tableContextsTotal.WithLabelValues(resultLabel(err)).Inc()
}

func ObserveContextBuild(duration time.Duration) {
	contextBuildSeconds.Observe(duration.Seconds())
}

// ObserveReferenceLookup records a reference search; hits is ignored on error.
func ObserveReferenceLookup(hits int, err error) {
	switch {
	case err != nil:
		referenceLookupsTotal.WithLabelValues("error").Inc()
	case hits == 0:
		referenceLookupsTotal.WithLabelValues("empty").Inc()
	default:
		referenceLookupsTotal.WithLabelValues("ok").Inc()
	}
}

func ObserveTranslation(duration time.Duration, err error) {
	translationsTotal.WithLabelValues(resultLabel(err)).Inc()
	translationSeconds.Observe(duration.Seconds())
}
