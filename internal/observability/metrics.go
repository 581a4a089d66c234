package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures, redis.Nil excluded.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_cache_lookups_total",
		Help: "Cache-aside lookups by result",
	}, []string{"result"})

	// GatewayRequests counts AI service calls by endpoint and outcome.
	GatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_gateway_requests_total",
		Help: "AI service requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	// GatewayLatency records AI service latency per endpoint, retries included.
	GatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "murmur_gateway_latency_seconds",
		Help:    "AI service call latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// SpamRejections counts comments rejected by the moderation service.
	SpamRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "murmur_comment_spam_rejections_total",
		Help: "Comments rejected as spam",
	})

	// Interactions counts like/repost/follow state changes.
	Interactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_interactions_total",
		Help: "Interaction state changes by kind and action",
	}, []string{"kind", "action"})

	// TokenRotations counts refresh-token rotations by trigger.
	TokenRotations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "murmur_token_rotations_total",
		Help: "Refresh token rotations by trigger",
	}, []string{"trigger"})

	// ActiveWebSockets is the number of open notification sockets.
	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "murmur_websocket_connections",
		Help: "Open notification websocket connections",
	})

	// WebSocketDrops counts notifications dropped on a full client buffer.
	WebSocketDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "murmur_websocket_dropped_messages_total",
		Help: "Notifications dropped due to backpressure",
	})
)

// ObserveGateway records one finished gateway call.
func ObserveGateway(endpoint, outcome string, start time.Time) {
	GatewayRequests.WithLabelValues(endpoint, outcome).Inc()
	GatewayLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
