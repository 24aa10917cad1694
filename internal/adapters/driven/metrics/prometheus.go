// Package metrics records ingestion telemetry as Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/cfr-ingest/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IngestMetrics = (*Recorder)(nil)

const namespace = "cfr_ingest"

// Recorder implements driven.IngestMetrics with Prometheus collectors.
type Recorder struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	backoffs        *prometheus.CounterVec
	backoffSeconds  *prometheus.CounterVec
	agencies        prometheus.Counter
	titles          prometheus.Counter
	titleDuration   prometheus.Histogram
	words           prometheus.Counter
	skipped         *prometheus.CounterVec
	referenceErrors prometheus.Counter
}

// NewRecorder creates the collectors and registers them with reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests to the regulation API by endpoint and status code.",
		}, []string{"endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_seconds",
			Help:      "Latency of requests to the regulation API.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint"}),
		backoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backoffs_total",
			Help:      "Backoff sleeps by reason.",
		}, []string{"reason"}),
		backoffSeconds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backoff_seconds_total",
			Help:      "Time spent in backoff sleeps by reason.",
		}, []string{"reason"}),
		agencies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agencies_processed_total",
			Help:      "Agencies fully processed.",
		}),
		titles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "titles_processed_total",
			Help:      "Titles fully processed.",
		}),
		titleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "title_seconds",
			Help:      "Wall time to fetch, parse and persist one title.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		words: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "words_ingested_total",
			Help:      "Words across all persisted versions.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_total",
			Help:      "Units skipped by kind.",
		}, []string{"kind"}),
		referenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reference_errors_total",
			Help:      "Reference rows that failed to persist.",
		}),
	}

	reg.MustRegister(
		r.requests, r.requestDuration,
		r.backoffs, r.backoffSeconds,
		r.agencies, r.titles, r.titleDuration, r.words,
		r.skipped, r.referenceErrors,
	)
	return r
}

// ObserveRequest records one HTTP attempt. Status 0 means a transport error.
func (r *Recorder) ObserveRequest(endpoint string, status int, d time.Duration) {
	r.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

func (r *Recorder) ObserveBackoff(reason string, delay time.Duration) {
	r.backoffs.WithLabelValues(reason).Inc()
	r.backoffSeconds.WithLabelValues(reason).Add(delay.Seconds())
}

func (r *Recorder) AgencyProcessed() {
	r.agencies.Inc()
}

func (r *Recorder) TitleProcessed(d time.Duration, words int) {
	r.titles.Inc()
	r.titleDuration.Observe(d.Seconds())
	r.words.Add(float64(words))
}

func (r *Recorder) UnitSkipped(kind string) {
	r.skipped.WithLabelValues(kind).Inc()
}

func (r *Recorder) ReferenceFailed() {
	r.referenceErrors.Inc()
}
