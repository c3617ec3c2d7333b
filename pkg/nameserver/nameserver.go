// Package nameserver implements the central coordinator: the storage
// server registry with liveness sweeps, the in-memory file index, the
// command router (authentication, VIEW fan-out, command forwarding, the
// WRITE proxy bridge, EXEC), the operator audit trail, and the TCP server
// fronting it all.
//
// The name server owns routing and metadata; storage servers own bytes.
// The index is authoritative for ACLs and INFO, and is rebuilt from a
// storage server whenever one registers. Registry and index live in one
// State object guarded by a single mutex.
package nameserver

import "errors"

// Sentinel errors. The router translates these to the wire reply catalog.
var (
	// ErrNotIndexed indicates the filename has no index entry.
	ErrNotIndexed = errors.New("file not in index")

	// ErrNotOwner indicates the requester does not own the file and so
	// cannot change its access lists.
	ErrNotOwner = errors.New("only the owner can change access")

	// ErrRevokeOwner rejects revoking the owner's own access.
	ErrRevokeOwner = errors.New("cannot revoke owner access")

	// ErrNoStorageServers indicates no registered storage server is
	// available to serve the command.
	ErrNoStorageServers = errors.New("no active storage servers")
)
