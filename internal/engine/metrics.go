package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports simulation progress to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	steps        prometheus.Counter
	moves        *prometheus.CounterVec
	foldAttempts prometheus.Histogram
	temperature  prometheus.Gauge
	energy       prometheus.Gauge
	compactness  prometheus.Gauge
}

// NewMetrics registers the simulation collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		steps: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hpfold",
			Subsystem: "engine",
			Name:      "steps_total",
			Help:      "Metropolis steps executed.",
		}),
		moves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hpfold",
			Subsystem: "engine",
			Name:      "moves_total",
			Help:      "Proposed folds by outcome.",
		}, []string{"outcome"}),
		foldAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hpfold",
			Subsystem: "engine",
			Name:      "fold_attempts",
			Help:      "Fold draws needed to find one self-avoiding candidate.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		temperature: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hpfold",
			Subsystem: "engine",
			Name:      "temperature",
			Help:      "Temperature of the last step.",
		}),
		energy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hpfold",
			Subsystem: "engine",
			Name:      "energy",
			Help:      "Energy of the current conformation.",
		}),
		compactness: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hpfold",
			Subsystem: "engine",
			Name:      "compactness",
			Help:      "Compactness of the current conformation.",
		}),
	}
}

func (m *Metrics) observeStep(rec StepRecord) {
	if m == nil {
		return
	}
	m.steps.Inc()
	outcome := "rejected"
	if rec.Accepted {
		outcome = "accepted"
	}
	m.moves.WithLabelValues(outcome).Inc()
	m.foldAttempts.Observe(float64(rec.Attempts))
	m.temperature.Set(rec.Temperature)
	m.energy.Set(rec.Energy)
	m.compactness.Set(float64(rec.Compactness))
}
