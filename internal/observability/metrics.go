package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoomsLive is the number of rooms in the registry.
	RoomsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planebattle_rooms_live",
		Help: "Number of rooms currently held in the registry",
	})

	// MatchesRunning is the number of rooms with a match in progress.
	MatchesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planebattle_matches_running",
		Help: "Number of rooms with a started match",
	})

	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planebattle_websocket_connections",
		Help: "Number of open websocket connections",
	})

	// InboundEvents counts protocol events received by name.
	InboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planebattle_inbound_events_total",
		Help: "Protocol events received from clients",
	}, []string{"event"})

	// RejectedEvents counts events answered with an error, by error kind.
	RejectedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planebattle_rejected_events_total",
		Help: "Protocol events rejected with an error",
	}, []string{"event", "reason"})

	AttackResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planebattle_attack_results_total",
		Help: "Resolved attacks by result",
	}, []string{"result"})

	RoomsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planebattle_rooms_swept_total",
		Help: "Empty rooms deleted after the grace period",
	})

	// BackpressureDrops counts outbound messages dropped because a client buffer was full.
	BackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planebattle_backpressure_drops_total",
		Help: "Outbound messages dropped due to backpressure",
	}, []string{"target"})
)
