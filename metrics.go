package wsprgo

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
)

// Metrics holds the Prometheus collectors exposed on the /metrics
// endpoint, trimmed from prometheus.go's PrometheusMetrics down to the
// WSPR-relevant subset: decode throughput, candidate search cost, and
// process resource usage.
type Metrics struct {
	decodesTotal     *prometheus.CounterVec
	candidatesTotal  *prometheus.CounterVec
	decodeLatency    *prometheus.HistogramVec
	windowsProcessed *prometheus.CounterVec
	reportFailures   *prometheus.CounterVec

	processRSS *prometheus.GaugeVec
	processCPU *prometheus.GaugeVec

	registry *prometheus.Registry
	proc     *process.Process
}

// NewMetrics registers a fresh set of collectors on their own
// registry, matching NewPrometheusMetrics's promauto construction
// pattern.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		decodesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wsprgo_decodes_total",
			Help: "Total WSPR spots decoded, by band.",
		}, []string{"band"}),
		candidatesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wsprgo_candidates_total",
			Help: "Total candidates surfaced by the frequency/time/drift search, by band.",
		}, []string{"band"}),
		decodeLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wsprgo_decode_seconds",
			Help:    "Wall-clock time to decode one 114 second window.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"band"}),
		windowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wsprgo_windows_processed_total",
			Help: "Total 114 second windows processed, by band.",
		}, []string{"band"}),
		reportFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wsprgo_report_failures_total",
			Help: "Total spot-reporting failures, by sink.",
		}, []string{"sink"}),
		processRSS: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wsprgo_process_rss_bytes",
			Help: "Resident set size of this process.",
		}, []string{}),
		processCPU: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wsprgo_process_cpu_percent",
			Help: "CPU usage percent of this process.",
		}, []string{}),
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		m.proc = p
	}

	return m
}

// RecordWindow records one decode pass over a window: how many
// candidates the search surfaced, how many resolved to a spot, and how long
// the pass took.
func (m *Metrics) RecordWindow(band string, candidates, decodes int, elapsed time.Duration) {
	m.windowsProcessed.WithLabelValues(band).Inc()
	m.candidatesTotal.WithLabelValues(band).Add(float64(candidates))
	m.decodesTotal.WithLabelValues(band).Add(float64(decodes))
	m.decodeLatency.WithLabelValues(band).Observe(elapsed.Seconds())
}

// RecordReportFailure increments the failure counter for a reporting
// sink ("wsprnet" or "mqtt").
func (m *Metrics) RecordReportFailure(sink string) {
	m.reportFailures.WithLabelValues(sink).Inc()
}

// SampleProcess refreshes the RSS/CPU gauges, mirroring admin.go's use
// of gopsutil for process introspection.
func (m *Metrics) SampleProcess() {
	if m.proc == nil {
		return
	}
	if mem, err := m.proc.MemoryInfo(); err == nil && mem != nil {
		m.processRSS.WithLabelValues().Set(float64(mem.RSS))
	}
	if pct, err := m.proc.CPUPercent(); err == nil {
		m.processCPU.WithLabelValues().Set(pct)
	}
}

// StartSampler runs SampleProcess on a ticker until stopCh is closed.
func (m *Metrics) StartSampler(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.SampleProcess()
		case <-stopCh:
			return
		}
	}
}

// Handler returns the HTTP handler to serve at the configured
// /metrics listen address.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ListenAndServe starts an HTTP server exposing the metrics handler at
// addr. It blocks until the server stops.
func ListenAndServe(addr string, m *Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
