// Package cmd implements the command-line interface of the dGrid client.
// It provides a hierarchical command structure for interacting with a data grid cluster.
//
// The package is organized into several subpackages:
//
//   - maps: Commands for distributed map operations (put, get, remove, listen, bench, etc.)
//   - lock: Commands for locking operations (acquire, release)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dgrid -help for a list of all commands.
package cmd
