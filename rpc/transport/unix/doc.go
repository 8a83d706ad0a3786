// Package unix implements the dGrid client transport over Unix domain sockets.
// It provides optimized communication with a member running on the same machine.
//
// This package extends the base connection manager with a Unix socket-specific connector
// while inheriting dial retries, id allocation and connection tracking from the base package.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets and applies
//     the configured socket buffer sizes
//
// Performance Characteristics:
//
//   - Reduced overhead: Eliminates TCP/IP stack processing for better performance
//   - Lower latency: Direct kernel-mediated IPC avoids network subsystem overhead
package unix
