// Package transport defines the abstraction the RPC client uses to obtain connections
// to the members of a dGrid cluster.
//
// The package focuses on:
//   - Defining a clear interface between the calling layer and connection management
//   - Enabling multiple transport implementations (TCP, Unix sockets, WebSocket)
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transports that dial, track and
//     shut down connections.
//
// Sub packages:
//
//   - codec: the frame format and its resumable encoder and decoder
//   - conn: a single multiplexed connection with its read and write pump
//   - base: the default connection manager, extended with protocol specific connectors
//   - tcp, unix, websocket: the connectors
//   - transporttest: a scriptable fake member for tests
package transport
