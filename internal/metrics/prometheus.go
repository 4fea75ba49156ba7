// Package metrics records intake and prediction metrics with Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ploidy"

// PrometheusRecorder implements core.Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	validationsTotal   *prometheus.CounterVec
	defectsTotal       *prometheus.CounterVec
	datasetRows        prometheus.Histogram
	predictionsTotal   *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	activeSubmissions  prometheus.Gauge
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the metrics on a fresh registry, together
// with the Go runtime and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newRecorder(reg)
}

func newRecorder(reg *prometheus.Registry) *PrometheusRecorder {
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		validationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Datasets validated, by outcome (accepted or rejected) and final stage",
			},
			[]string{"outcome", "stage"},
		),
		defectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "defects_total",
				Help:      "Validation defects reported, by kind",
			},
			[]string{"kind"},
		),
		datasetRows: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_rows",
				Help:      "Data rows per accepted dataset",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		predictionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Prediction requests sent to the model service, by status",
			},
			[]string{"status"},
		),
		predictionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Duration of prediction requests in seconds",
				Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),
		activeSubmissions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_submissions",
				Help:      "Predictions currently holding a submission slot",
			},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served, by route pattern, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}
}

// ObserveValidation records one validation result.
func (p *PrometheusRecorder) ObserveValidation(res *core.Result) {
	if res == nil {
		return
	}

	outcome := "rejected"
	if res.Accepted() {
		outcome = "accepted"
		p.datasetRows.Observe(float64(len(res.Records)))
	}
	p.validationsTotal.WithLabelValues(outcome, string(res.Stage)).Inc()

	for _, d := range res.Defects {
		p.defectsTotal.WithLabelValues(string(d.Kind)).Inc()
	}
}

// ObservePrediction records a completed prediction request.
func (p *PrometheusRecorder) ObservePrediction(status string, d time.Duration) {
	p.predictionsTotal.WithLabelValues(status).Inc()
	p.predictionDuration.WithLabelValues(status).Observe(d.Seconds())
}

// SetActiveSubmissions updates the active submissions gauge. It matches
// core.SubmissionLimiter.OnActiveChange.
func (p *PrometheusRecorder) SetActiveSubmissions(n int) {
	p.activeSubmissions.Set(float64(n))
}

// ObserveHTTP records a served HTTP request.
func (p *PrometheusRecorder) ObserveHTTP(route, method string, code int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}
