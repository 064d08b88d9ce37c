package internal

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsReceived counts every inbound delivery exactly once, whether or
	// not it survives normalization.
	EventsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_notify_events_received_total",
		Help: "Total number of event deliveries received from any transport.",
	})

	// EventsHandled counts dispatched events by type and outcome.
	EventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meet_notify_events_handled_total",
		Help: "Total number of events dispatched, labelled by event type and status.",
	}, []string{"event_type", "status"})

	// EventsDropped counts messages left unacknowledged because their
	// subject belongs to a different space. The transport will redeliver
	// them until they expire.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_notify_events_dropped_total",
		Help: "Total number of events ignored because the subject matched a different space.",
	})

	// ParseErrors counts messages whose event type or subject could not be
	// extracted.
	ParseErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_notify_parse_errors_total",
		Help: "Total number of messages dropped because they could not be normalized.",
	})

	// WebhookErrors counts best-effort chat deliveries that failed.
	WebhookErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meet_notify_webhook_errors_total",
		Help: "Total number of failed chat webhook deliveries.",
	})
)
