package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocketConnectionsTotal is the gauge of active WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "banterbus_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts inbound events by name and outcome.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banterbus_websocket_events_total",
		Help: "Total WebSocket events by event name and outcome",
	}, []string{"event", "outcome"})

	// EventHandlerLatency records handler latency per inbound event.
	EventHandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "banterbus_event_handler_latency_seconds",
		Help:    "Event handler latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"event"})

	// WebSocketBackpressureDrops counts frames dropped due to backpressure.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banterbus_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket frames dropped due to backpressure",
	}, []string{"reason"})

	// RoomMembers is the gauge of attached sessions per room.
	RoomMembers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "banterbus_room_members",
		Help: "Number of WebSocket sessions attached per room",
	}, []string{"room_id"})

	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "banterbus_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CatalogRequestLatency records management-service call latency.
	CatalogRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "banterbus_catalog_request_latency_seconds",
		Help:    "Management service request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// DisconnectSweepRemovals counts players removed by the admin sweep.
	DisconnectSweepRemovals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "banterbus_disconnect_sweep_removals_total",
		Help: "Total number of players removed by the disconnect sweep",
	})
)

// ObserveHandler records the latency of one handler invocation.
func ObserveHandler(event string, start time.Time) {
	EventHandlerLatency.WithLabelValues(event).Observe(time.Since(start).Seconds())
}

// RecordEvent increments the per-event counter with the given outcome.
func RecordEvent(event, outcome string) {
	WebSocketEventsTotal.WithLabelValues(event, outcome).Inc()
}
