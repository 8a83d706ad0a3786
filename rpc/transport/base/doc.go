// Package base provides the default connection manager of the dGrid client transport,
// independent of the specific network protocol (TCP, Unix sockets, WebSocket). It serves
// as a base layer that is extended with protocol-specific connectors.
//
// The package focuses on:
//   - Protocol-agnostic dialing with retries and a jittered backoff
//   - Allocation of connection ids and call ids for all connections of a client
//   - Tracking of live connections, one per endpoint
//   - An orderly shutdown that fails pending calls with conn.ErrClientShuttingDown
//
// Key Components:
//
//   - IClientConnector: Interface for protocol-specific operations that allows
//     extending the manager with different network protocols.
//
//   - Manager: Implements conn.IConnectionManager and transport.IRPCClientTransport.
//     Connect dials the endpoint, applies the socket options of the connector,
//     sizes the connection buffers after SO_RCVBUF and SO_SNDBUF, writes the
//     preamble and starts the pumps.
//
// Thread Safety:
//
//	All public methods are thread-safe. Dialing is serialized so concurrent callers
//	of GetOrConnect share one connection per endpoint.
package base
