package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/quillfs/quillfs/pkg/metrics"
)

// storageMetrics is the Prometheus implementation of metrics.StorageMetrics.
type storageMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec

	writeSessions prometheus.Gauge
	lockConflicts prometheus.Counter
	checkpoints   *prometheus.CounterVec
	undoSwaps     prometheus.Counter

	activeConnections      prometheus.Gauge
	connectionsAccepted    prometheus.Counter
	connectionsClosed      prometheus.Counter
	connectionsForceClosed prometheus.Counter
}

// NewStorageMetrics creates a new Prometheus-backed StorageMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewStorageMetrics() metrics.StorageMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &storageMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quillfs_storage_operations_total",
				Help: "Total number of file operations by verb and outcome",
			},
			[]string{"verb", "status"}, // status: "ok", "error"
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "quillfs_storage_operation_duration_milliseconds",
				Help: "Duration of file operations in milliseconds",
				Buckets: []float64{
					0.1,   // 100us - stat-only operations
					0.5,   // 500us
					1,     // 1ms
					5,     // 5ms
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms - STREAM word pacing
					500,   // 500ms
					1000,  // 1s
					10000, // 10s - long streams
				},
			},
			[]string{"verb"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quillfs_storage_bytes_transferred_total",
				Help: "Total bytes served or committed by verb and direction",
			},
			[]string{"verb", "direction"}, // direction: "sent", "received"
		),
		writeSessions: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "quillfs_storage_write_sessions_active",
				Help: "Current number of open write sessions",
			},
		),
		lockConflicts: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_storage_lock_conflicts_total",
				Help: "Total number of write attempts rejected because the sentence was locked",
			},
		),
		checkpoints: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quillfs_storage_checkpoints_total",
				Help: "Total number of checkpoint operations by action",
			},
			[]string{"action"}, // "create", "view", "revert", "list"
		),
		undoSwaps: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_storage_undo_total",
				Help: "Total number of undo swaps applied",
			},
		),
		activeConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "quillfs_storage_active_connections",
				Help: "Current number of active client connections",
			},
		),
		connectionsAccepted: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_storage_connections_accepted_total",
				Help: "Total number of accepted client connections",
			},
		),
		connectionsClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_storage_connections_closed_total",
				Help: "Total number of closed client connections",
			},
		),
		connectionsForceClosed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "quillfs_storage_connections_force_closed_total",
				Help: "Total number of connections forcibly closed after shutdown timeout",
			},
		),
	}
}

func (m *storageMetrics) RecordOperation(verb string, duration time.Duration, errorReply bool) {
	if m == nil {
		return
	}

	status := "ok"
	if errorReply {
		status = "error"
	}

	m.operations.WithLabelValues(verb, status).Inc()
	m.operationDuration.WithLabelValues(verb).Observe(duration.Seconds() * 1000)
}

func (m *storageMetrics) RecordBytesTransferred(verb string, direction string, bytes uint64) {
	if m == nil {
		return
	}
	m.bytesTransferred.WithLabelValues(verb, direction).Add(float64(bytes))
}

func (m *storageMetrics) SetActiveWriteSessions(count int) {
	if m == nil {
		return
	}
	m.writeSessions.Set(float64(count))
}

func (m *storageMetrics) RecordLockConflict() {
	if m == nil {
		return
	}
	m.lockConflicts.Inc()
}

func (m *storageMetrics) RecordCheckpoint(action string) {
	if m == nil {
		return
	}
	m.checkpoints.WithLabelValues(action).Inc()
}

func (m *storageMetrics) RecordUndo() {
	if m == nil {
		return
	}
	m.undoSwaps.Inc()
}

func (m *storageMetrics) SetActiveConnections(count int32) {
	if m == nil {
		return
	}
	m.activeConnections.Set(float64(count))
}

func (m *storageMetrics) RecordConnectionAccepted() {
	if m == nil {
		return
	}
	m.connectionsAccepted.Inc()
}

func (m *storageMetrics) RecordConnectionClosed() {
	if m == nil {
		return
	}
	m.connectionsClosed.Inc()
}

func (m *storageMetrics) RecordConnectionForceClosed() {
	if m == nil {
		return
	}
	m.connectionsForceClosed.Inc()
}
