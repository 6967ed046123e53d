package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	webhookEvents   *prometheus.CounterVec
	fulfillments    *prometheus.CounterVec
	gatewayRequests *prometheus.CounterVec
}

var Module = fx.Module("observability.metrics",
	fx.Provide(New),
)

func New() *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_webhook_events_total",
			Help: "Payment webhook notifications by outcome.",
		}, []string{"outcome"}),
		fulfillments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_fulfillments_total",
			Help: "Fulfillment actions triggered by confirmed payments.",
		}, []string{"kind"}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Outbound payment gateway calls by operation and result.",
		}, []string{"operation", "result"}),
	}

	prometheus.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.webhookEvents,
		m.fulfillments,
		m.gatewayRequests,
	)

	return m
}

func (m *Metrics) RecordWebhookEvent(outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordFulfillment(kind string) {
	if m == nil {
		return
	}
	m.fulfillments.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordGatewayRequest(operation, result string) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(operation, result).Inc()
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
