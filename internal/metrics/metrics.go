package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Voting and reputation
var (
	// VotesTotal counts every cast vote by post kind and direction.
	VotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackit_votes_total",
			Help: "Votes cast by post kind and direction",
		},
		[]string{"kind", "direction"},
	)

	// ReputationChangesTotal counts applied reputation deltas by reason.
	ReputationChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackit_reputation_changes_total",
			Help: "Reputation deltas applied by reason",
		},
		[]string{"reason"},
	)

	BadgesAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackit_badges_awarded_total",
			Help: "Badges awarded by badge name",
		},
		[]string{"badge"},
	)

	AnswersAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stackit_answers_accepted_total",
			Help: "Accept operations performed",
		},
	)
)

// Notifications
var (
	NotificationsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackit_notifications_created_total",
			Help: "Persisted notifications by type",
		},
		[]string{"type"},
	)

	// NotificationDeliveryFailures counts best-effort deliveries that failed.
	// channel is one of store, push, email.
	NotificationDeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stackit_notification_delivery_failures_total",
			Help: "Failed notification deliveries by channel",
		},
		[]string{"channel"},
	)
)

// Live push
var (
	WebSocketConnectionsCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stackit_websocket_connections_current",
			Help: "Currently connected WebSocket clients",
		},
	)

	WebSocketMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stackit_websocket_messages_dropped_total",
			Help: "Messages dropped because a client's send buffer was full",
		},
	)

	RelayMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stackit_relay_messages_total",
			Help: "Messages received from Redis and forwarded to local clients",
		},
	)
)

// HTTP
var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stackit_http_request_duration_seconds",
			Help:    "HTTP request duration by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
