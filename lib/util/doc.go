// Package util provides small building blocks shared by the transport and client packages.
//
// The package contains:
//   - functions: Hash functions and the key to partition mapping used by the grid clients
//   - lockfreempsc: A lock-free Multi-Producer Single-Consumer (MPSC) queue implementation build for high throughput and low latency
//
// This package is particularly useful for:
//   - Connections that accept outbound frames from many goroutines but write them from a single pump
//   - Clients that need a stable key to partition mapping
package util
