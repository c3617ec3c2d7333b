package metrics

import (
	"time"
)

// RouterMetrics provides observability for name server command routing.
//
// Implementations can collect metrics about command dispatch, connection
// lifecycle, the storage server registry, and proxied write sessions. This
// interface is optional - pass nil to disable metrics collection with zero
// overhead.
//
// Example usage:
//
//	// With metrics enabled
//	metrics.InitRegistry()
//	routerMetrics := prometheus.NewRouterMetrics()
//	router := nameserver.NewRouter(state, routerMetrics)
//
//	// Without metrics (pass nil for zero overhead)
//	router := nameserver.NewRouter(state, nil)
type RouterMetrics interface {
	// RecordCommand records a completed client command with its verb,
	// duration, and outcome.
	//
	// Parameters:
	//   - verb: Command verb (e.g., "VIEW", "READ", "WRITE")
	//   - duration: Time taken to process the command
	//   - errorReply: Whether the reply was an error line
	RecordCommand(verb string, duration time.Duration, errorReply bool)

	// RecordCommandStart increments the in-flight command counter.
	RecordCommandStart(verb string)

	// RecordCommandEnd decrements the in-flight command counter.
	RecordCommandEnd(verb string)

	// RecordAuthFailure increments the rejected-credential counter.
	RecordAuthFailure()

	// SetActiveConnections updates the current client connection count.
	SetActiveConnections(count int32)

	// RecordConnectionAccepted increments the total accepted connections counter.
	RecordConnectionAccepted()

	// RecordConnectionClosed increments the total closed connections counter.
	RecordConnectionClosed()

	// RecordConnectionForceClosed increments the force-closed connections counter.
	// Called when connections are forcibly closed after shutdown timeout.
	RecordConnectionForceClosed()

	// SetRegisteredServers updates the gauge of live storage servers.
	SetRegisteredServers(count int)

	// SetIndexedFiles updates the gauge of filenames in the file index.
	SetIndexedFiles(count int)

	// RecordRegistration increments the storage server registration counter.
	RecordRegistration()

	// RecordEviction increments the counter of servers removed by the
	// liveness sweep.
	RecordEviction()

	// RecordProxySessionStart increments the active proxy session gauge.
	// Called when a WRITE session bridge to a storage server opens.
	RecordProxySessionStart()

	// RecordProxySessionEnd decrements the active proxy session gauge and
	// records the session duration and bytes relayed in each direction.
	RecordProxySessionEnd(duration time.Duration, clientBytes, serverBytes uint64)
}
