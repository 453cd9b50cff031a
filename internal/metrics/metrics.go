package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sales-dashboard/internal/dataset"
)

type Metrics struct {
	PageRenders     *prometheus.CounterVec
	CacheResults    *prometheus.CounterVec
	ComputeDuration *prometheus.HistogramVec
	DatasetRows     prometheus.Gauge
	DatasetRejected prometheus.Gauge
	DatasetVersion  prometheus.Gauge
	Reloads         *prometheus.CounterVec
}

// New registers the dashboard collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PageRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_page_renders_total",
			Help: "Page computations served, by page and transport",
		}, []string{"page", "transport"}),

		CacheResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_cache_results_total",
			Help: "Memoized lookups by outcome",
		}, []string{"page", "status"}),

		ComputeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_compute_duration_seconds",
			Help:    "Time spent deriving a page's tables",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"page"}),

		DatasetRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_dataset_rows",
			Help: "Rows in the current dataset snapshot",
		}),

		DatasetRejected: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_dataset_rejected_rows",
			Help: "Rows rejected while loading the current snapshot",
		}),

		DatasetVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_dataset_version",
			Help: "Version counter of the current snapshot",
		}),

		Reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_dataset_reloads_total",
			Help: "Dataset reload attempts by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) ObserveCompute(page string, d time.Duration) {
	m.ComputeDuration.WithLabelValues(page).Observe(d.Seconds())
}

func (m *Metrics) ObserveSnapshot(snap *dataset.Snapshot) {
	if snap == nil {
		return
	}
	m.DatasetRows.Set(float64(len(snap.Table)))
	m.DatasetRejected.Set(float64(snap.Rejected))
	m.DatasetVersion.Set(float64(snap.Version))
}
