// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AppointmentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medivault",
		Name:      "appointment_transitions_total",
		Help:      "Appointment status transition attempts by target status and result.",
	}, []string{"target", "result"})

	AppointmentsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medivault",
		Name:      "appointments_finished_total",
		Help:      "Approved appointments moved to FINISHED by the sweeper.",
	})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medivault",
		Name:      "notifications_total",
		Help:      "Status notifications by kind and delivery result.",
	}, []string{"kind", "result"})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medivault",
		Name:      "chat_messages_sent_total",
		Help:      "Chat messages accepted.",
	})

	MessagesMarkedRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medivault",
		Name:      "chat_messages_marked_read_total",
		Help:      "Chat messages whose readAt was stamped.",
	})

	ConversationPollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medivault",
		Name:      "conversation_poll_failures_total",
		Help:      "Conversation polls that failed and were retried on the next tick.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medivault",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method, route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
