package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "port_monitor"

// Metrics holds the Prometheus counters, histograms, and gauges for the port monitor.
type Metrics struct {
	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,empty,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	RecordsDropped   *prometheus.CounterVec   // labels: provider

	// Resilience metrics.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss}
	ServedBy     *prometheus.CounterVec // labels: source={provider,cache,simulated,none}

	// Monitor metrics.
	PortsMonitored   *prometheus.CounterVec // labels: outcome={success,error,cancelled}
	RunDuration      prometheus.Histogram
	VesselsPerPort   *prometheus.GaugeVec // labels: port
	PortCongestion   *prometheus.GaugeVec // labels: port
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
	MonitorRunning   prometheus.Gauge
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Provider fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}, []string{"provider"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Raw AIS records rejected during normalization.",
		}, []string{"provider"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Vessel cache lookups by result.",
		}, []string{"result"}),
		ServedBy: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vessel_lists_served_total",
			Help:      "Vessel lists returned by the resilience layer, by source.",
		}, []string{"source"}),
		PortsMonitored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ports_monitored_total",
			Help:      "Per-port pipeline executions by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete monitoring run across all target ports.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		VesselsPerPort: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "port_vessels",
			Help:      "Vessels reported around each port in the latest run.",
		}, []string{"port"}),
		PortCongestion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "port_potential_congestion",
			Help:      "1 when the latest capacity analysis flags congestion for the port.",
		}, []string{"port"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Port reports written to the report sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_errors_total",
			Help:      "Failed report sink writes.",
		}),
		MonitorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_running",
			Help:      "1 when the monitor loop is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.RecordsDropped,
		m.CacheLookups,
		m.ServedBy,
		m.PortsMonitored,
		m.RunDuration,
		m.VesselsPerPort,
		m.PortCongestion,
		m.ReportsPublished,
		m.PublishErrors,
		m.MonitorRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "provider_requests_total"}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "provider_request_duration_seconds"}, []string{"provider"}),
		RecordsDropped:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "records_dropped_total"}, []string{"provider"}),
		CacheLookups:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "cache_lookups_total"}, []string{"result"}),
		ServedBy:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "vessel_lists_served_total"}, []string{"source"}),
		PortsMonitored:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "ports_monitored_total"}, []string{"outcome"}),
		RunDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "run_duration_seconds"}),
		VesselsPerPort:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "port_vessels"}, []string{"port"}),
		PortCongestion:   prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: "port_potential_congestion"}, []string{"port"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "reports_published_total"}),
		PublishErrors:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "report_publish_errors_total"}),
		MonitorRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "monitor_running"}),
	}
}
