package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "yaycha"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	socialEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "social",
			Name:      "events_total",
			Help:      "Domain events by kind (post, comment, like, follow, ...).",
		},
		[]string{"event"},
	)

	notificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "delivered_total",
			Help:      "Notifications pushed to websocket clients, by outcome.",
		},
		[]string{"outcome"},
	)

	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "ws_connections",
			Help:      "Open notification websocket connections.",
		},
	)
)

// Domain event labels.
const (
	EventUserRegistered = "user_registered"
	EventPostCreated    = "post_created"
	EventPostDeleted    = "post_deleted"
	EventCommentCreated = "comment_created"
	EventCommentDeleted = "comment_deleted"
	EventPostLiked      = "post_liked"
	EventPostUnliked    = "post_unliked"
	EventCommentLiked   = "comment_liked"
	EventCommentUnliked = "comment_unliked"
	EventFollowed       = "followed"
	EventUnfollowed     = "unfollowed"
	EventUploaded       = "image_uploaded"
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		socialEvents,
		notificationsDelivered,
		wsConnections,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per matched route.
// Unmatched routes are grouped under "unmatched" to keep cardinality bounded.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordEvent counts a domain event.
func RecordEvent(event string) {
	socialEvents.WithLabelValues(event).Inc()
}

// RecordDelivery counts a websocket push; ok=false means the client buffer was full.
func RecordDelivery(ok bool) {
	outcome := "sent"
	if !ok {
		outcome = "dropped"
	}
	notificationsDelivered.WithLabelValues(outcome).Inc()
}

// WSConnected adjusts the open websocket gauge by delta.
func WSConnected(delta int) {
	wsConnections.Add(float64(delta))
}
