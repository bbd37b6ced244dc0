package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trumenapp/go-tileguard/pkg/models"
)

// Metrics exposes the engine's evaluation counters. All methods are nil-safe
// so the engine can run without metrics wired.
type Metrics struct {
	samplesEvaluated   prometheus.Counter
	suspiciousVerdicts *prometheus.CounterVec
	tileDiscoveries    prometheus.Counter
	automationChecks   *prometheus.CounterVec
	riskScores         prometheus.Histogram
}

// NewMetrics creates and registers the engine metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		samplesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileguard",
			Subsystem: "engine",
			Name:      "samples_evaluated_total",
			Help:      "Total location samples evaluated.",
		}),
		suspiciousVerdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tileguard",
			Subsystem: "engine",
			Name:      "suspicious_verdicts_total",
			Help:      "Total suspicious verdicts by primary reason.",
		}, []string{"reason"}),
		tileDiscoveries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tileguard",
			Subsystem: "engine",
			Name:      "tile_discoveries_total",
			Help:      "Total tile-discovery events evaluated.",
		}),
		automationChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tileguard",
			Subsystem: "engine",
			Name:      "automation_checks_total",
			Help:      "Total automation analyses by outcome reason.",
		}, []string{"reason"}),
		riskScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tileguard",
			Subsystem: "engine",
			Name:      "risk_score",
			Help:      "Distribution of per-sample verdict risk scores.",
			Buckets:   []float64{0, 10, 30, 50, 70, 85, 95, 100},
		}),
	}
	reg.MustRegister(m.samplesEvaluated, m.suspiciousVerdicts, m.tileDiscoveries, m.automationChecks, m.riskScores)
	return m
}

// ObserveVerdict records a per-sample verdict.
func (m *Metrics) ObserveVerdict(v models.RiskVerdict) {
	if m == nil {
		return
	}
	m.samplesEvaluated.Inc()
	m.riskScores.Observe(float64(v.RiskScore))
	if v.Suspicious {
		m.suspiciousVerdicts.WithLabelValues(string(v.PrimaryReason)).Inc()
	}
}

// ObserveTileDiscovery records a tile-discovery evaluation.
func (m *Metrics) ObserveTileDiscovery(oc models.CheckOutcome) {
	if m == nil {
		return
	}
	m.tileDiscoveries.Inc()
	if oc.Suspicious {
		m.suspiciousVerdicts.WithLabelValues(string(oc.Reason)).Inc()
	}
}

// ObserveAutomationCheck records an automation analysis.
func (m *Metrics) ObserveAutomationCheck(oc models.CheckOutcome) {
	if m == nil {
		return
	}
	m.automationChecks.WithLabelValues(string(oc.Reason)).Inc()
}
