package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_ws_events_total",
			Help: "Total number of websocket lifecycle events.",
		},
		[]string{"event"},
	)
	activeSubscriptions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_client_active_subscriptions",
			Help: "Number of live conversation subscriptions.",
		},
	)
	reconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_reconnects_total",
			Help: "Total number of automatic reconnect attempts.",
		},
	)
	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_frames_total",
			Help: "Total number of inbound frames routed, by message kind.",
		},
		[]string{"kind"},
	)
	restRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_client_rest_requests_total",
			Help: "Total number of REST requests issued to the backend.",
		},
		[]string{"method", "route", "status"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		wsEventsTotal,
		activeSubscriptions,
		reconnectsTotal,
		framesTotal,
		restRequestsTotal,
		amqpPublishErrorsTotal,
	)
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncSubscriptions() {
	activeSubscriptions.Inc()
}

func DecSubscriptions() {
	activeSubscriptions.Dec()
}

func ResetSubscriptions() {
	activeSubscriptions.Set(0)
}

func IncReconnect() {
	reconnectsTotal.Inc()
}

func IncFrame(kind string) {
	framesTotal.WithLabelValues(kind).Inc()
}

func IncRESTRequest(method, route string, status int) {
	restRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
