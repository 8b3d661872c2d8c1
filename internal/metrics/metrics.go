// Package metrics holds the Prometheus metrics of the signal service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal    *prometheus.CounterVec
	AnalysisLatency  prometheus.Histogram
	SignalScore      *prometheus.GaugeVec
	SyntheticSeries  prometheus.Counter
	ErrorsTotal      *prometheus.CounterVec
	WSClients        prometheus.Gauge
	NotificationsOut prometheus.Counter
}

// New creates the metrics on a dedicated registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		AnalysesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chainsignal_analyses_total",
			Help: "Total number of completed analyses by ticker and signal",
		}, []string{"ticker", "signal"}),

		AnalysisLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chainsignal_analysis_latency_ms",
			Help:    "Time to run one analysis in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		}),

		SignalScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chainsignal_signal_score",
			Help: "Most recent composite score per ticker",
		}, []string{"ticker"}),

		SyntheticSeries: factory.NewCounter(prometheus.CounterOpts{
			Name: "chainsignal_synthetic_series_total",
			Help: "Analyses that fell back to a synthetic price series",
		}),

		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chainsignal_errors_total",
			Help: "Total number of errors by component and type",
		}, []string{"component", "error_type"}),

		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chainsignal_ws_clients",
			Help: "Connected websocket clients",
		}),

		NotificationsOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "chainsignal_notifications_sent_total",
			Help: "Signal alerts sent",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordAnalysis records one completed analysis.
func (m *Metrics) RecordAnalysis(ticker, signal string, score, latencyMs float64, synthetic bool) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(ticker, signal).Inc()
	m.AnalysisLatency.Observe(latencyMs)
	m.SignalScore.WithLabelValues(ticker).Set(score)
	if synthetic {
		m.SyntheticSeries.Inc()
	}
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(component, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.WSClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.WSClients.Dec()
}

func (m *Metrics) RecordNotification() {
	if m == nil {
		return
	}
	m.NotificationsOut.Inc()
}
