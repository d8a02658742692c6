package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 業務指標
	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "p2p_trade_orders_created_total",
			Help: "Total trade orders created",
		},
	)

	ChatMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "p2p_trade_chat_messages_total",
			Help: "Total chat messages accepted",
		},
	)

	UploadsStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "p2p_trade_uploads_staged_total",
			Help: "Total uploads staged via presign",
		},
	)

	RoomsReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "p2p_trade_rooms_reclaimed_total",
			Help: "Total idle rooms reclaimed",
		},
	)

	// 連線指標
	ConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "p2p_trade_connections_active",
			Help: "Currently attached websocket connections",
		},
	)

	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p2p_trade_events_broadcast_total",
			Help: "Events fanned out to rooms",
		},
		[]string{"type"},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p2p_trade_messages_rejected_total",
			Help: "Inbound messages rejected with an error event",
		},
		[]string{"code"},
	)
)
