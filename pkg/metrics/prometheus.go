package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements repository.Metrics using Prometheus.
type Recorder struct {
	refreshes      *prometheus.CounterVec
	fetchErrors    *prometheus.CounterVec
	online         prometheus.Gauge
	providerActive *prometheus.GaugeVec
	entities       prometheus.Gauge
	pruned         prometheus.Counter
	latency        *prometheus.HistogramVec
}

// New creates a recorder registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foliopull_refresh_total",
				Help: "Total refresh cycles by outcome",
			},
			[]string{"result"},
		),
		fetchErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foliopull_fetch_errors_total",
				Help: "Total failed calls against the Ghostfolio API",
			},
			[]string{"operation"},
		),
		online: f.NewGauge(prometheus.GaugeOpts{
			Name: "foliopull_server_online",
			Help: "1 when the last refresh reached the server",
		}),
		providerActive: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "foliopull_provider_active",
				Help: "Data provider health as reported by the server",
			},
			[]string{"provider"},
		),
		entities: f.NewGauge(prometheus.GaugeOpts{
			Name: "foliopull_entities",
			Help: "Entities described by the current snapshot",
		}),
		pruned: f.NewCounter(prometheus.CounterOpts{
			Name: "foliopull_pruned_entities_total",
			Help: "Total orphaned entities removed",
		}),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foliopull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRefresh records a finished refresh cycle.
func (r *Recorder) RecordRefresh(online bool, seconds float64) {
	result := "online"
	v := 1.0
	if !online {
		result = "offline"
		v = 0
	}
	r.refreshes.WithLabelValues(result).Inc()
	r.online.Set(v)
	r.latency.WithLabelValues("refresh").Observe(seconds)
}

// RecordFetchError records a failed remote call.
func (r *Recorder) RecordFetchError(op string) {
	r.fetchErrors.WithLabelValues(op).Inc()
}

// RecordProvider records the health of one data provider.
func (r *Recorder) RecordProvider(code string, active bool) {
	v := 0.0
	if active {
		v = 1
	}
	r.providerActive.WithLabelValues(code).Set(v)
}

// RecordEntities records how many entities the snapshot describes.
func (r *Recorder) RecordEntities(n int) {
	r.entities.Set(float64(n))
}

// RecordPruned records removed orphan entities.
func (r *Recorder) RecordPruned(n int) {
	r.pruned.Add(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
