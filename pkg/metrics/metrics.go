package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Offer outcomes used as the "outcome" label of offers_total.
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeStale     = "stale"
	OutcomeCanceled  = "canceled"
)

// Config configures the Recorder.
type Config struct {
	// Namespace is the metrics namespace (default: "fileupload").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for encode duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the Recorder.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry. When the registry also
// implements prometheus.Gatherer, Handler serves from it.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "fileupload",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Recorder holds the widget metrics.
type Recorder struct {
	gatherer prometheus.Gatherer

	offersTotal       *prometheus.CounterVec
	rejectionsTotal   *prometheus.CounterVec
	encodeDuration    *prometheus.HistogramVec
	filesEncoded      prometheus.Counter
	bytesEncoded      prometheus.Counter
	activeConnections prometheus.Gauge
	wsErrors          *prometheus.CounterVec
}

// NewRecorder registers the metrics and returns a Recorder. Registering two
// Recorders with the same namespace on one registry panics.
func NewRecorder(opts ...Option) *Recorder {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	gatherer := prometheus.DefaultGatherer
	if g, ok := config.Registry.(prometheus.Gatherer); ok {
		gatherer = g
	}

	factory := promauto.With(config.Registry)

	return &Recorder{
		gatherer: gatherer,

		offersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "offers_total",
			Help:        "Total number of file offers by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		rejectionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "rejections_total",
			Help:        "Total number of rejected files by reason",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		encodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "encode_duration_seconds",
			Help:        "Batch base64 encode duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"status"}),

		filesEncoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "files_encoded_total",
			Help:        "Total number of files encoded",
			ConstLabels: config.ConstLabels,
		}),

		bytesEncoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_encoded_total",
			Help:        "Total number of raw bytes encoded",
			ConstLabels: config.ConstLabels,
		}),

		activeConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_connections",
			Help:        "Number of open widget websocket connections",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

// RecordOffer counts one offer with the given outcome.
func (r *Recorder) RecordOffer(outcome string) {
	if r == nil {
		return
	}
	r.offersTotal.WithLabelValues(outcome).Inc()
}

// RecordRejection counts one rejected file for a reason code.
func (r *Recorder) RecordRejection(reason string) {
	if r == nil {
		return
	}
	r.rejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordEncode records a finished batch encode. files and bytes are only
// counted when err is nil.
func (r *Recorder) RecordEncode(d time.Duration, files int, bytes int64, err error) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.encodeDuration.WithLabelValues(status).Observe(d.Seconds())
	if err == nil {
		r.filesEncoded.Add(float64(files))
		r.bytesEncoded.Add(float64(bytes))
	}
}

// ConnectionOpened increments the active connection gauge.
func (r *Recorder) ConnectionOpened() {
	if r == nil {
		return
	}
	r.activeConnections.Inc()
}

// ConnectionClosed decrements the active connection gauge.
func (r *Recorder) ConnectionClosed() {
	if r == nil {
		return
	}
	r.activeConnections.Dec()
}

// RecordWebSocketError records a WebSocket error.
func (r *Recorder) RecordWebSocketError(errorType string) {
	if r == nil {
		return
	}
	r.wsErrors.WithLabelValues(errorType).Inc()
}

// Handler serves the metrics of the Recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
