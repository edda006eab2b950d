// Package telemetry exposes prometheus instrumentation for the sync
// engine and, when enabled, a local debug listener serving /metrics.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"confmatch/pkg/logger"
)

var (
	// EventsReceived counts incoming live-channel events by name.
	EventsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmatch_socket_events_received_total",
		Help: "Incoming live channel events by event name.",
	}, []string{"event"})

	// IntentsSent counts outgoing intents actually written to the wire.
	IntentsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmatch_socket_intents_sent_total",
		Help: "Outgoing live channel intents by event name.",
	}, []string{"event"})

	// SocketReconnects counts unexpected disconnects that triggered the
	// backoff dial loop.
	SocketReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confmatch_socket_reconnects_total",
		Help: "Live channel reconnect attempts after unexpected disconnects.",
	})

	// DuplicatesSuppressed counts messages dropped by the reconciliation
	// policy, labelled by which gate caught them ("id" or "content").
	DuplicatesSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmatch_sync_duplicates_suppressed_total",
		Help: "Incoming messages suppressed as duplicates by dedup gate.",
	}, []string{"gate"})

	// Refreshes counts conversation store refreshes by trigger
	// ("event", "poll", "select", "send", "reconnect").
	Refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "confmatch_sync_conversation_refreshes_total",
		Help: "Conversation store refreshes by trigger.",
	}, []string{"trigger"})

	// StaleLoadsDiscarded counts timeline load responses discarded because
	// the active conversation changed while the fetch was in flight.
	StaleLoadsDiscarded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "confmatch_sync_stale_loads_discarded_total",
		Help: "Timeline loads discarded because their conversation was no longer active.",
	})

	// TimelineSize tracks the open conversation's message count.
	TimelineSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "confmatch_sync_timeline_messages",
		Help: "Messages currently held in the open timeline.",
	})
)

// Serve starts the debug metrics listener on addr. Best effort: failures
// are logged, never fatal to the client.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("metrics_listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics_listener_failed", "addr", addr, "error", err)
		}
	}()
}
