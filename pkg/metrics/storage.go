package metrics

import (
	"time"
)

// StorageMetrics provides observability for storage server operations.
//
// Implementations can collect metrics about file operations, streaming
// throughput, write sessions, and connection lifecycle. This interface is
// optional - pass nil to disable metrics collection with zero overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	storageMetrics := prometheus.NewStorageMetrics()
//	srv := storage.NewServer(cfg, storageMetrics)
//
//	// Without metrics (pass nil for zero overhead)
//	srv := storage.NewServer(cfg, nil)
type StorageMetrics interface {
	// RecordOperation records a completed file operation with its verb,
	// duration, and outcome.
	//
	// Parameters:
	//   - verb: Operation verb (e.g., "READ", "CREATE", "STREAM")
	//   - duration: Time taken to process the operation
	//   - errorReply: Whether the reply was an error line
	RecordOperation(verb string, duration time.Duration, errorReply bool)

	// RecordBytesTransferred records bytes served or committed.
	//
	// Parameters:
	//   - verb: Operation verb (e.g., "READ", "STREAM", "WRITE")
	//   - direction: "sent" or "received"
	//   - bytes: Number of bytes transferred
	RecordBytesTransferred(verb string, direction string, bytes uint64)

	// SetActiveWriteSessions updates the gauge of open write sessions.
	SetActiveWriteSessions(count int)

	// RecordLockConflict increments the counter of write attempts rejected
	// because the target sentence was already locked.
	RecordLockConflict()

	// RecordCheckpoint increments the checkpoint operation counter.
	//
	// Parameters:
	//   - action: "create", "view", "revert", or "list"
	RecordCheckpoint(action string)

	// RecordUndo increments the undo swap counter.
	RecordUndo()

	// SetActiveConnections updates the current connection count.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the force-closed connections counter.
	// Called when connections are forcibly closed after shutdown timeout.
	RecordConnectionForceClosed()
}
