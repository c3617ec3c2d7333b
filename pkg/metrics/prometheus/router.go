package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/quillfs/quillfs/pkg/metrics"
)

// routerMetrics is the Prometheus implementation of metrics.RouterMetrics.
type routerMetrics struct {
	commands         *prometheus.CounterVec
	commandDuration  *prometheus.HistogramVec
	commandsInFlight *prometheus.GaugeVec
	authFailures     prometheus.Counter

	activeConnections      prometheus.Gauge
	connectionsAccepted    prometheus.Counter
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter

	registeredServers prometheus.Gauge
	indexedFiles      prometheus.Gauge
	registrations     prometheus.Counter
	evictions         prometheus.Counter

	proxyActive   prometheus.Gauge
	proxySessions prometheus.Counter
	proxyDuration prometheus.Histogram
	proxyBytes    *prometheus.CounterVec
}

// NewRouterMetrics creates a new Prometheus-backed RouterMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRouterMetrics() metrics.RouterMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &routerMetrics{
		commands: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quillfs_router_commands_total",
				Help: "Total number of client commands by verb and outcome",
			},
			[]string{"verb", "status"}, // status: "ok", "error"
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "quillfs_router_command_duration_milliseconds",
				Help: "Duration of command processing in milliseconds",
				Buckets: []float64{
					0.5,   // 500us - index lookups
					1,     // 1ms
					5,     // 5ms
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms
					500,   // 500ms
					1000,  // 1s - fan-out timeout
					5000,  // 5s
					30000, // 30s - interactive write sessions
				},
			},
			[]string{"verb"},
		),
		commandsInFlight: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "quillfs_router_commands_in_flight",
				Help: "Number of commands currently being processed by verb",
			},
			[]string{"verb"},
		),
		authFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_router_auth_failures_total",
				Help: "Total number of rejected credential checks",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "quillfs_router_active_connections",
				Help: "Current number of active client connections",
			},
		),
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_router_connections_accepted_total",
				Help: "Total number of accepted client connections",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_router_connections_closed_total",
				Help: "Total number of closed client connections",
			},
		),
		connectionsForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_router_connections_force_closed_total",
				Help: "Total number of connections forcibly closed after shutdown timeout",
			},
		),
		registeredServers: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "quillfs_registry_servers",
				Help: "Current number of registered storage servers",
			},
		),
		indexedFiles: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "quillfs_registry_indexed_files",
				Help: "Current number of filenames in the file index",
			},
		),
		registrations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_registry_registrations_total",
				Help: "Total number of storage server registrations",
			},
		),
		evictions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_registry_evictions_total",
				Help: "Total number of storage servers evicted by the liveness sweep",
			},
		),
		proxyActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "quillfs_proxy_sessions_active",
				Help: "Current number of active write session bridges",
			},
		),
		proxySessions: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_proxy_sessions_total",
				Help: "Total number of write session bridges opened",
			},
		),
		proxyDuration: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Name: "quillfs_proxy_session_duration_milliseconds",
				Help: "Duration of write session bridges in milliseconds",
				Buckets: []float64{
					100,    // 100ms - immediate abort
					500,    // 500ms
					1000,   // 1s
					5000,   // 5s
					15000,  // 15s
					60000,  // 1m - typical interactive session
					300000, // 5m
				},
			},
		),
		proxyBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quillfs_proxy_bytes_total",
				Help: "Total bytes relayed through write session bridges by direction",
			},
			[]string{"direction"}, // "client_to_server", "server_to_client"
		),
	}
}

func (m *routerMetrics) RecordCommand(verb string, duration time.Duration, errorReply bool) {
	if m == nil {
		return
	}

	status := "ok"
	if errorReply {
		status = "error"
	}

	m.commands.WithLabelValues(verb, status).Inc()
	m.commandDuration.WithLabelValues(verb).Observe(duration.Seconds() * 1000)
}

func (m *routerMetrics) RecordCommandStart(verb string) {
	if m == nil {
		return
	}
	m.commandsInFlight.WithLabelValues(verb).Inc()
}

func (m *routerMetrics) RecordCommandEnd(verb string) {
	if m == nil {
		return
	}
	m.commandsInFlight.WithLabelValues(verb).Dec()
}

func (m *routerMetrics) RecordAuthFailure() {
	if m == nil {
		return
	}
	m.authFailures.Inc()
}

func (m *routerMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(count))
}

func (m *routerMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *routerMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *routerMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connectionsForceClosed.Inc()
}

func (m *routerMetrics) SetRegisteredServers(count int) {
	if m == nil {
		return
	}
	m.registeredServers.Set(float64(count))
}

func (m *routerMetrics) SetIndexedFiles(count int) {
	if m == nil {
		return
	}
	m.indexedFiles.Set(float64(count))
}

func (m *routerMetrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

func (m *routerMetrics) RecordEviction() {
	if m == nil {
		return
	}
	m.evictions.Inc()
}

func (m *routerMetrics) RecordProxySessionStart() {
	if m == nil {
		return
	}
	m.proxySessions.Inc()
	m.proxyActive.Inc()
}

func (m *routerMetrics) RecordProxySessionEnd(duration time.Duration, clientBytes, serverBytes uint64) {
	if m == nil {
		return
	}
	m.proxyActive.Dec()
	m.proxyDuration.Observe(duration.Seconds() * 1000)
	m.proxyBytes.WithLabelValues("client_to_server").Add(float64(clientBytes))
	m.proxyBytes.WithLabelValues("server_to_client").Add(float64(serverBytes))
}
