// Package client implements RPC clients for the distributed data grid.
// It provides an implementation of the gridmap.IMap interface that communicates with
// the cluster members through the client transport.
//
// The package focuses on:
//   - Transparent RPC access to distributed maps
//   - Integration with the transport and serialization layers
//   - Conversion of remote failures into RemoteError
//
// Key Components:
//
//   - NewRPCMap: Factory function that creates a client implementing the gridmap.IMap
//     interface. Every operation serializes a request, registers a call on a member
//     connection and waits for the matching response. Keys are hashed onto
//     PartitionCount partitions, the partition id travels in the frame header.
//
//   - Entry listeners: AddEntryListener registers a call that stays subscribed after its
//     response, the member pushes entry events with the call id of that request.
//
// Usage Example:
//
//	// Configure the client
//	config := common.ClientConfig{
//	  Endpoints:      []string{"localhost:5701"},
//	  TimeoutSecond:  5,
//	  PartitionCount: 271,
//	}
//
//	// Create a map client
//	m, _ := client.NewRPCMap("users", config, tcp.NewTCPClientTransport(config), serializer.NewBinarySerializer())
//
//	// Use the map
//	m.Put(ctx, "user:1", []byte("alice"))
//	value, exists, _ := m.Get(ctx, "user:1")
//
// Timeouts:
//
//	A call waits for its response until ctx is done or TimeoutSecond elapsed. A timed out
//	call is removed from its connection, a response that arrives afterwards is dropped.
//	The connection itself stays usable.
//
// Thread Safety:
//
//	All client implementations are thread-safe and can be used concurrently from
//	multiple goroutines without additional synchronization.
package client
