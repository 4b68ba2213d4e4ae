package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat stream service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket subscriptions.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket lifecycle events.",
		},
		[]string{"event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	outboxEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_outbox_enqueued_total",
			Help: "Total number of events enqueued to the notification outbox.",
		},
		[]string{"event"},
	)
	outboxDispatchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_outbox_dispatched_total",
			Help: "Total number of outbox events delivered to all sinks.",
		},
	)
	outboxFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_outbox_failures_total",
			Help: "Total number of outbox sink failures, by sink.",
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
		outboxEnqueuedTotal,
		outboxDispatchedTotal,
		outboxFailuresTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncOutboxEnqueued(event string) {
	outboxEnqueuedTotal.WithLabelValues(event).Inc()
}

func IncOutboxDispatched() {
	outboxDispatchedTotal.Inc()
}

func IncOutboxFailure(sink string) {
	outboxFailuresTotal.WithLabelValues(sink).Inc()
}
