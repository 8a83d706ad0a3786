// Package common provides core data structures and utilities shared across
// the dGrid client. It defines the message protocol spoken on top of the frame
// transport, configuration structures and the logging setup.
//
// The package focuses on:
//   - Message protocol definition for the distributed map operations and entry events
//   - Configuration structures for the client and its transport
//   - Custom logging implementation integrated with Dragonboat's logger package
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication with a cluster member,
//     with a flexible structure that adapts to different operation types.
//     Includes factory methods for creating the request, response and event messages.
//
//   - MessageType: Enumeration defining all supported operation types, categorized
//     into map operations, entry events and control messages.
//
//   - ClientConfig: Configuration for client components, controlling endpoints,
//     timeouts, partitioning and the socket options of the transport.
//
//   - Logger: Custom logging implementation that plugs into Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
