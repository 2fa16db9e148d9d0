// Package metrics exposes process-wide Prometheus counters and gauges for
// the call-list reconciler, the voicecall/SMS filter chains, and the UICC
// retry loop. Metrics are ambient instrumentation, not a modem feature: the
// daemon records them regardless of which filters or sinks are wired up.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReconcileEvents counts calllist.Event deliveries by kind (new,
	// disconnected, modified).
	ReconcileEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ofonod",
		Subsystem: "calllist",
		Name:      "reconcile_events_total",
		Help:      "Call-list reconcile events delivered to the voicecall sink, by kind.",
	}, []string{"kind"})

	// VoicecallFilterOutcomes counts voicecallfilter.Chain verdicts by
	// decision (continue, hangup, ignore).
	VoicecallFilterOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ofonod",
		Subsystem: "voicecallfilter",
		Name:      "outcomes_total",
		Help:      "Voicecall filter chain verdicts, by decision.",
	}, []string{"decision"})

	// SMSFilterOutcomes counts smsfilter.Chain verdicts by outcome
	// (continue, drop).
	SMSFilterOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ofonod",
		Subsystem: "smsfilter",
		Name:      "outcomes_total",
		Help:      "SMS filter chain verdicts, by outcome.",
	}, []string{"outcome"})

	// UICCRetryAttempts counts uicc.Resolver retry attempts issued while
	// waiting for a card status to leave a transitional app_state.
	UICCRetryAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ofonod",
		Subsystem: "uicc",
		Name:      "retry_attempts_total",
		Help:      "UICC card-status resolver retry attempts.",
	})

	// UICCAbandoned counts resolutions that gave up after MaxRetries.
	UICCAbandoned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ofonod",
		Subsystem: "uicc",
		Name:      "resolutions_abandoned_total",
		Help:      "UICC card-status resolutions abandoned after exhausting retries.",
	})

	// ActiveCalls reports the number of calls currently retained by the
	// call-list reconciler.
	ActiveCalls = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ofonod",
		Subsystem: "calllist",
		Name:      "active_calls",
		Help:      "Number of calls currently retained by the reconciler.",
	})

	// TCPRoundTrip reports the most recently sampled TCP_INFO RTT, in
	// seconds, for a transport.TCPDialer connection (emulator/soft-modem
	// backend only; unset for serial/TTY transports).
	TCPRoundTrip = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ofonod",
		Subsystem: "transport",
		Name:      "tcp_rtt_seconds",
		Help:      "Most recently sampled TCP_INFO round-trip time for the AT-over-TCP transport.",
	})
)

// Handler returns the HTTP handler to mount at /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
