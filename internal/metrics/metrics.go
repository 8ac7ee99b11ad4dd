package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PriceSentinel/internal/model"
)

// Metrics exposes run statistics in the Prometheus format.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	dropsTotal    prometheus.Counter
	itemsFetched  prometheus.Gauge
	baselineSize  prometheus.Gauge
	runDuration   prometheus.Summary
	lastSuccessTS prometheus.Gauge
	notifyErrors  prometheus.Counter
	storeErrors   prometheus.Counter
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "price_sentinel",
		Name:      "runs_total",
		Help:      "Monitoring runs by outcome",
	}, []string{"outcome"})
	m.dropsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "price_sentinel",
		Name:      "drops_detected_total",
		Help:      "Price drops detected across all runs",
	})
	m.itemsFetched = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "price_sentinel",
		Name:      "items_fetched",
		Help:      "Items in the most recent successful fetch",
	})
	m.baselineSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "price_sentinel",
		Name:      "baseline_items",
		Help:      "Items tracked in the baseline at run start",
	})
	m.runDuration = prometheus.NewSummary(prometheus.SummaryOpts{
		Namespace: "price_sentinel",
		Name:      "run_duration_seconds",
		Help:      "Time spent on a full run",
	})
	m.lastSuccessTS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "price_sentinel",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last run that persisted its baseline",
	})
	m.notifyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "price_sentinel",
		Name:      "notify_errors_total",
		Help:      "Failed notification deliveries",
	})
	m.storeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "price_sentinel",
		Name:      "store_errors_total",
		Help:      "Failed baseline writes",
	})
	m.registry.MustRegister(
		m.runsTotal, m.dropsTotal, m.itemsFetched, m.baselineSize,
		m.runDuration, m.lastSuccessTS, m.notifyErrors, m.storeErrors,
	)
	return m
}

// Observe records the outcome of one run.
func (m *Metrics) Observe(r *model.RunReport) {
	m.runsTotal.WithLabelValues(string(r.Outcome)).Inc()
	m.runDuration.Observe(r.Duration().Seconds())
	m.baselineSize.Set(float64(r.BaselineSize))
	m.dropsTotal.Add(float64(len(r.Drops)))
	if r.Outcome != model.OutcomeFetchFailed && r.Outcome != model.OutcomeFailed {
		m.itemsFetched.Set(float64(r.FetchedItems))
	}
	if r.Persisted {
		m.lastSuccessTS.Set(float64(r.FinishedAt.Unix()))
	}
	if r.NotifyErr != nil {
		m.notifyErrors.Inc()
	}
	if r.StoreErr != nil {
		m.storeErrors.Inc()
	}
}

// WriteTextfile writes all metrics for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Handler serves the metrics over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
