// Package rpc provides the client side of the dGrid remote procedure calls.
// It acts as the communication layer between applications and the cluster members,
// multiplexing many concurrent calls and event subscriptions over one connection
// per member.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the RPC system,
//     including the Message protocol, configuration structures, and logging.
//
//   - transport: Connection management with pluggable socket implementations
//     (TCP, Unix sockets, WebSocket), the frame codec and the multiplexed connection.
//
//   - serializer: Message serialization with multiple format options (Binary, JSON, GOB,
//     Protobuf wire format) for converting between Message objects and byte arrays.
//
//   - client: RPC client implementations of the gridmap.IMap interface,
//     allowing applications to use remote maps transparently.
package rpc
