package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Socket metrics
	SocketsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aurasync_sockets_open",
			Help: "Currently open WebSocket connections",
		},
	)

	SocketDialFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_socket_dial_failures_total",
			Help: "Total failed WebSocket dials",
		},
	)

	SendsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_sends_dropped_total",
			Help: "Envelopes dropped because the socket was not ready or the buffer was full",
		},
	)

	// Message store metrics
	MessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_messages_sent_total",
			Help: "Messages appended optimistically",
		},
	)

	MessagesReconciled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_messages_reconciled_total",
			Help: "Pending messages replaced by their server echo",
		},
	)

	DuplicateEchoes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_duplicate_echoes_total",
			Help: "Server echoes ignored because the id was already present",
		},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aurasync_events_dropped_total",
			Help: "Inbound events dropped for referencing unknown state",
		},
		[]string{"reason"}, // "unknown_room", "unknown_message", "bad_frame"
	)

	// Translation metrics
	TranslationBatches = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_translation_batches_total",
			Help: "Batch translation requests issued",
		},
	)

	TranslationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_translation_cache_hits_total",
			Help: "Batch translation requests served from cache",
		},
	)

	// Typing metrics
	TypingExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aurasync_typing_expirations_total",
			Help: "Typing indicators cleared by the receiver-side idle timer",
		},
	)
)
