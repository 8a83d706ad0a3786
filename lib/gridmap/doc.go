// Package gridmap defines the IMap interface of a named distributed map together with
// its entry events.
//
// Implementations:
//
//   - rpc/client.NewRPCMap: a map stored on the cluster members, accessed through the
//     client transport. Entry events are pushed by the members over the connection that
//     registered the listener.
//
//   - lmap.NewLocalMap: an in-memory map for a single process. It is used by tests and
//     by components that want to run without a cluster.
//
// The shared test suite in gridmap/testing runs against every implementation, so both
// behave the same from the caller's point of view.
//
// Usage Example:
//
//	m, _ := client.NewRPCMap("sessions", config, tcp.NewTCPClientTransport(config), serializer.NewBinarySerializer())
//
//	id, _ := m.AddEntryListener(ctx, func(e gridmap.EntryEvent) {
//	    fmt.Println(e)
//	})
//	defer m.RemoveEntryListener(ctx, id)
//
//	old, replaced, err := m.Put(ctx, "user:1", []byte("alice"))
package gridmap
