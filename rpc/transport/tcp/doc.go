// Package tcp implements the TCP socket-based transport of the dGrid client.
// It provides the TCP implementation of the base package's connector interface.
//
// This package builds on the base package's connection manager, inheriting its dial
// retries, id allocation and connection tracking. See the base package documentation
// for detailed information on the underlying transport mechanisms.
//
// Key Components:
//
//   - clientConnector: TCP-specific implementation of base.IClientConnector. It applies
//     TCP_NODELAY, the socket buffer sizes, keep-alive and linger from the client config.
package tcp
