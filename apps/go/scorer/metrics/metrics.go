package metrics

import (
	"net/http"
	"time"

	"roofscore/apps/go/scorer/roofscore"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roofscore"

// Metrics records the score engine activity.
type Metrics struct {
	registry          *prometheus.Registry
	recomputeDuration *prometheus.HistogramVec
	recomputeImages   prometheus.Histogram
	imageErrors       prometheus.Counter
	lockConflicts     prometheus.Counter
}

var _ roofscore.Observer = (*Metrics)(nil)

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recomputeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Duration of mission score recomputes.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"outcome"}),
		recomputeImages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_images",
			Help:      "Images of the missions recomputed.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		imageErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_errors_total",
			Help:      "Images that could not be scored.",
		}),
		lockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lock_conflicts_total",
			Help:      "Score updates refused because the mission was already updating.",
		}),
	}
	m.registry.MustRegister(
		m.recomputeDuration,
		m.recomputeImages,
		m.imageErrors,
		m.lockConflicts,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveRecompute(d time.Duration, images int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.recomputeDuration.WithLabelValues(outcome).Observe(d.Seconds())
	if err == nil {
		m.recomputeImages.Observe(float64(images))
	}
}

func (m *Metrics) ObserveImageError(string) {
	m.imageErrors.Inc()
}

func (m *Metrics) ObserveLockConflict() {
	m.lockConflicts.Inc()
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
