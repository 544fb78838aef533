package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MembershipTransitions counts section membership operations by action (join|approve|reject|leave|remove) and result.
	MembershipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_membership_transitions_total",
			Help: "Total number of section membership transitions",
		},
		[]string{"action", "result"},
	)

	// RSVPWrites counts RSVP upserts by requested status and result (accepted|capacity|error).
	RSVPWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_rsvp_writes_total",
			Help: "Total number of RSVP writes",
		},
		[]string{"status", "result"},
	)

	// SubscriptionChanges counts group subscription changes by action and result.
	SubscriptionChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_group_subscription_changes_total",
			Help: "Total number of group subscription changes",
		},
		[]string{"action", "result"},
	)

	// ProfileFieldRejections counts rejected section profile answers by validation kind.
	ProfileFieldRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_profile_field_rejections_total",
			Help: "Total number of rejected section profile answers",
		},
		[]string{"kind"},
	)

	// RealtimeConnections tracks open realtime websocket connections.
	RealtimeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_realtime_connections",
			Help: "Number of open realtime connections",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huddle_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPInFlight tracks requests currently being served.
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huddle_http_requests_in_flight",
			Help: "Number of HTTP requests being served",
		},
	)

	// RealtimeBroadcasts counts row-change notifications fanned out per stream.
	RealtimeBroadcasts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_realtime_broadcasts_total",
			Help: "Total number of realtime broadcasts",
		},
		[]string{"stream"},
	)

	// MaintenanceRuns counts scheduled maintenance job executions by job and result.
	MaintenanceRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_maintenance_runs_total",
			Help: "Total number of maintenance job runs",
		},
		[]string{"job", "result"},
	)
)
