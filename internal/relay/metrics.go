package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка (включая оба синка)
	WebhookDuration *prometheus.HistogramVec

	// Traffic: общее кол-во принятых вебхуков
	WebhookTotal *prometheus.CounterVec

	// Errors: отказы доставки по синкам
	SinkErrors *prometheus.CounterVec

	// Saturation: состояние Circuit Breaker (0 - ок, 1 - выбило)
	CircuitBreakerState *prometheus.GaugeVec

	// Audit: текущая заполненность журнала
	AuditTrailSize prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		WebhookDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "relay_webhook_duration_seconds",
			Help:    "Histogram of webhook processing latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"event_type", "status"}),

		WebhookTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "relay_webhooks_total",
			Help: "Total number of received webhook events.",
		}, []string{"event_type"}),

		SinkErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "relay_sink_errors_total",
			Help: "Total number of delivery failures by sink.",
		}, []string{"sink"}), // синки: email, airtable

		CircuitBreakerState: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "relay_circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=open).",
		}, []string{"connector"}),

		AuditTrailSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "relay_audit_trail_size",
			Help: "Current number of entries in the audit trail.",
		}),
	}
}

// ObserveBreaker — колбэк для transport.NewReliableClient.
func (m *Metrics) ObserveBreaker(name string, state gobreaker.State) {
	value := 0.0
	if state == gobreaker.StateOpen {
		value = 1.0
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(value)
}
