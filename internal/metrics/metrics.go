package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CommandsTotal counts MI commands sent, by command name and outcome
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquisitor_commands_total",
			Help: "Total number of MI commands sent to the debugger",
		},
		[]string{"command", "status"},
	)

	// CommandDuration tracks round-trip latency per MI command
	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inquisitor_command_duration_seconds",
			Help:    "MI command round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)

	// EventsPublished counts decoded async events handed to the subscriber
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquisitor_events_published_total",
			Help: "Total number of debugger events published",
		},
		[]string{"type"},
	)

	// EventDrops tracks events dropped because the subscriber fell behind
	EventDrops = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquisitor_event_drops_total",
			Help: "Total number of events dropped due to a full event queue",
		},
	)

	// ParseFailures counts MI lines that could not be parsed into a record
	ParseFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquisitor_parse_failures_total",
			Help: "Total number of unparseable MI output lines",
		},
	)

	// ActiveEngines tracks live debugger processes
	ActiveEngines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "inquisitor_active_engines",
			Help: "Number of live debugger engines",
		},
	)

	// ToolCalls tracks MCP tool invocations
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inquisitor_tool_calls_total",
			Help: "Total number of MCP tool calls",
		},
		[]string{"tool", "status"},
	)
)

// RecordCommand records one MI command round trip
func RecordCommand(command, status string, seconds float64) {
	CommandsTotal.WithLabelValues(command, status).Inc()
	CommandDuration.WithLabelValues(command).Observe(seconds)
}

// RecordEvent records a published event by kind
func RecordEvent(kind string) {
	EventsPublished.WithLabelValues(kind).Inc()
}

// RecordEventDrop records an event dropped on a full queue
func RecordEventDrop() {
	EventDrops.Inc()
}

// RecordParseFailure records an unparseable MI line
func RecordParseFailure() {
	ParseFailures.Inc()
}

// EngineStarted increments the live engine gauge
func EngineStarted() {
	ActiveEngines.Inc()
}

// EngineStopped decrements the live engine gauge
func EngineStopped() {
	ActiveEngines.Dec()
}

// RecordToolCall records an MCP tool invocation
func RecordToolCall(tool, status string) {
	ToolCalls.WithLabelValues(tool, status).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
