// Package metrics provides Prometheus metrics for dicomtree
package metrics

import (
	"net/http"
	"time"

	"github.com/mrsinham/dicomtree/internal/dicom/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// File results recorded by ScanFilesTotal.
const (
	ResultDecoded = "decoded"
	ResultSkipped = "skipped"
	ResultIgnored = "ignored" // DICOMDIR
)

// Metrics holds all Prometheus metrics for dicomtree. All recording methods
// are safe on a nil *Metrics.
type Metrics struct {
	Registry *prometheus.Registry

	// Scan metrics
	ScansTotal     *prometheus.CounterVec
	ScanFilesTotal *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	ScansInFlight  prometheus.Gauge

	// Size of the last completed collection, by level
	CollectionObjects *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics on a fresh registry, together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ScansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicomtree_scans_total",
				Help: "Total number of scans by final status",
			},
			[]string{"status"},
		),
		ScanFilesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicomtree_scan_files_total",
				Help: "Candidate files considered by scans, by result",
			},
			[]string{"result"},
		),
		ScanDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dicomtree_scan_duration_seconds",
				Help:    "Duration of scans in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
		),
		ScansInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "dicomtree_scans_in_flight",
				Help: "Number of scans currently running",
			},
		),
		CollectionObjects: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dicomtree_collection_objects",
				Help: "Objects in the last completed collection, by level",
			},
			[]string{"level"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dicomtree_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dicomtree_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ScanStarted marks a scan as running.
func (m *Metrics) ScanStarted() {
	if m == nil {
		return
	}
	m.ScansInFlight.Inc()
}

// ScanFinished records the outcome and duration of a scan.
func (m *Metrics) ScanFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScansInFlight.Dec()
	m.ScansTotal.WithLabelValues(status).Inc()
	m.ScanDuration.Observe(d.Seconds())
}

// FileConsidered counts one candidate file.
func (m *Metrics) FileConsidered(result string) {
	if m == nil {
		return
	}
	m.ScanFilesTotal.WithLabelValues(result).Inc()
}

// ObserveCollection publishes the size of a collection.
func (m *Metrics) ObserveCollection(n record.Counts) {
	if m == nil {
		return
	}
	m.CollectionObjects.WithLabelValues("patients").Set(float64(n.Patients))
	m.CollectionObjects.WithLabelValues("studies").Set(float64(n.Studies))
	m.CollectionObjects.WithLabelValues("series").Set(float64(n.Series))
	m.CollectionObjects.WithLabelValues("instances").Set(float64(n.Instances))
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, http.StatusText(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}
