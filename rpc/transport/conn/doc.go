// Package conn implements the client side of a single connection to a cluster member.
//
// A Connection multiplexes many concurrent request/response exchanges and server pushed
// events over one socket. Requests are correlated with their responses purely by call id.
//
// The package focuses on:
//   - Exactly-once resolution: every registered call is resolved once, by its response or by the close of the connection
//   - A strict lifecycle: a connection goes from open to closed exactly once and is never reopened
//   - Non-blocking callers: Send only enqueues, socket I/O happens on the pumps
//
// Key Components:
//
//   - Connection: Owns the socket, the pending call table and the event subscription table.
//     RegisterCall, ResolveCall, EventHandler and Send are safe for concurrent use.
//
//   - Read Pump: One goroutine per connection that decodes inbound frames and dispatches them
//     to the pending call with the same id, or to the event handler of a subscription.
//
//   - Write Pump: One goroutine per connection that drains the outbound queue in FIFO order and
//     writes every frame through a staging buffer, resuming after partial writes.
//
//   - Future: The completion handle of a call. Callers wait on it with their own timeout.
//
//   - IConnectionManager: The collaborator that allocates ids and is notified when a connection
//     is destroyed. See the transport/base package for the default implementation.
//
// Connection lifecycle:
//
//	NewConnection -> Init (preamble) -> [WriteSync/ReadSync] -> Start -> ... -> Close
//
// Thread Safety:
// All exported methods of Connection are safe for concurrent use, except Init, WriteSync and ReadSync
// which must only be called by the goroutine that set up the connection before Start.
// Event handlers run on the read pump and must not block.
package conn
