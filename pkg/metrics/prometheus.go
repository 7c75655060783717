package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
	refreshes    *prometheus.CounterVec
	signalScore  *prometheus.GaugeVec
	degraded     *prometheus.GaugeVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder's collectors with reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_events_published_total",
				Help: "Total number of signal events handed to a publisher backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_last_price",
				Help: "Last close seen for an instrument",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signaldesk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signaldesk_refresh_total",
				Help: "Refresh outcomes per instrument",
			},
			[]string{"symbol", "status"},
		),
		signalScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_signal_score",
				Help: "Latest composite signal score per instrument",
			},
			[]string{"symbol"},
		),
		degraded: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signaldesk_degraded",
				Help: "1 when the instrument is served from placeholder data",
			},
			[]string{"symbol"},
		),
	}
}

// RecordMessageSent records an event handed to a publisher backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordRefresh counts one refresh outcome (ok, partial, failed).
func (r *Recorder) RecordRefresh(symbol, status string) {
	r.refreshes.WithLabelValues(symbol, status).Inc()
}

func (r *Recorder) RecordSignal(symbol string, score float64) {
	r.signalScore.WithLabelValues(symbol).Set(score)
}

func (r *Recorder) RecordDegraded(symbol string, degraded bool) {
	v := 0.0
	if degraded {
		v = 1
	}
	r.degraded.WithLabelValues(symbol).Set(v)
}
