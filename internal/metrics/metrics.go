// Package metrics holds the Prometheus collectors for sync runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"
)

// Record outcomes used as the "outcome" label.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

type Metrics struct {
	registry *prometheus.Registry

	RecordsTotal       *prometheus.CounterVec
	ProviderCallsTotal *prometheus.CounterVec
	SearchQueriesTotal *prometheus.CounterVec
	VerdictsTotal      *prometheus.CounterVec
	RunDurationSeconds prometheus.Gauge
	RunLastSuccessTime prometheus.Gauge
	RunStoppedEarly    prometheus.Gauge
}

// New registers the collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RecordsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "factsync_records_total",
			Help: "Records processed, by job and outcome",
		}, []string{"job", "outcome"}),
		ProviderCallsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "factsync_provider_calls_total",
			Help: "Data provider calls, by provider and result",
		}, []string{"provider", "result"}),
		SearchQueriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "factsync_search_queries_total",
			Help: "Search-engine corroboration queries, by result",
		}, []string{"result"}),
		VerdictsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "factsync_verdicts_total",
			Help: "Identity verification verdicts",
		}, []string{"verdict"}),
		RunDurationSeconds: f.NewGauge(prometheus.GaugeOpts{
			Name: "factsync_run_duration_seconds",
			Help: "Wall-clock duration of the last run",
		}),
		RunLastSuccessTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "factsync_run_last_success_timestamp_seconds",
			Help: "Unix time the last run finished without a fatal error",
		}),
		RunStoppedEarly: f.NewGauge(prometheus.GaugeOpts{
			Name: "factsync_run_stopped_early",
			Help: "1 if the last run stopped on the runtime cap or cancellation",
		}),
	}
}

func (m *Metrics) ObserveRecord(job, outcome string) {
	m.RecordsTotal.WithLabelValues(job, outcome).Inc()
}

// ObserveProviderCall counts one adapter call. A nil error is "ok"; errors
// that mean the source had nothing are "no_data"; the rest are "error".
func (m *Metrics) ObserveProviderCall(provider, result string) {
	m.ProviderCallsTotal.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) ObserveSearch(result string) {
	m.SearchQueriesTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveVerdict(verdict string) {
	m.VerdictsTotal.WithLabelValues(verdict).Inc()
}

// ObserveRun records the end of a run.
func (m *Metrics) ObserveRun(elapsed time.Duration, stoppedEarly bool, err error, now time.Time) {
	m.RunDurationSeconds.Set(elapsed.Seconds())
	if stoppedEarly {
		m.RunStoppedEarly.Set(1)
	} else {
		m.RunStoppedEarly.Set(0)
	}
	if err == nil {
		m.RunLastSuccessTime.Set(float64(now.Unix()))
	}
}

// Gatherer exposes the registry for export and tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
