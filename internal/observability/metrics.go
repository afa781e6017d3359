package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveConversations prometheus.Gauge
	CallEvents          *prometheus.CounterVec
	WebhookRequests     *prometheus.CounterVec
	BrainLatency        prometheus.Histogram
	BrainErrors         *prometheus.CounterVec
	Evictions           prometheus.Counter
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveConversations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Number of conversations currently retained in memory.",
		}),
		CallEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_events_total",
			Help:      "Call lifecycle events by type.",
		}, []string{"event"}),
		WebhookRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_requests_total",
			Help:      "Webhook requests by outcome.",
		}, []string{"outcome"}),
		BrainLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "brain_latency_ms",
			Help:      "Latency of reply generation in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 4000, 8000, 15000},
		}),
		BrainErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brain_errors_total",
			Help:      "Reply generation failures by class.",
		}, []string{"class"}),
		Evictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_evictions_total",
			Help:      "Conversations removed by the retention sweep.",
		}),
	}
}

func (m *Metrics) ObserveBrainLatency(d time.Duration) {
	m.BrainLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
