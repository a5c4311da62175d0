// Package metrics provides Prometheus metrics for the prediction ensemble.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Status labels for PredictionsTotal
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Stage labels for StageDuration
const (
	StageExtract = "extract"
	StagePredict = "predict"
)

// Metrics collects ensemble metrics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PredictionsTotal     *prometheus.CounterVec
	StageDuration        *prometheus.HistogramVec
	PredictionConfidence *prometheus.HistogramVec
	UnknownTeamTotal     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		PredictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "matchodds_predictions_total",
				Help: "Predictions produced, by algorithm and outcome",
			},
			[]string{"algorithm", "status"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matchodds_prediction_duration_seconds",
				Help:    "Time spent per stage of a fixture prediction",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
			},
			[]string{"stage"},
		),
		PredictionConfidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "matchodds_prediction_confidence",
				Help:    "Reported confidence of finalized predictions",
				Buckets: prometheus.LinearBuckets(60, 5, 8), // 60 to 95
			},
			[]string{"algorithm"},
		),
		UnknownTeamTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "matchodds_unknown_team_total",
				Help: "Fixture requests naming a team the repository does not know",
			},
		),
	}

	m.registry.MustRegister(
		m.PredictionsTotal,
		m.StageDuration,
		m.PredictionConfidence,
		m.UnknownTeamTotal,
	)
	return m
}

// Registry returns the Prometheus registry for exposition
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordPrediction counts a successful prediction and observes its confidence
func (m *Metrics) RecordPrediction(algorithm string, confidence float64) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(algorithm, StatusOK).Inc()
	m.PredictionConfidence.WithLabelValues(algorithm).Observe(confidence)
}

// RecordFailure counts a predictor that errored or panicked
func (m *Metrics) RecordFailure(algorithm string) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(algorithm, StatusFailed).Inc()
}

// ObserveStage records how long a stage took since start
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordUnknownTeam counts a lookup miss
func (m *Metrics) RecordUnknownTeam() {
	if m == nil {
		return
	}
	m.UnknownTeamTotal.Inc()
}
