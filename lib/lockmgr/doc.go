// Package lockmgr implements a locking mechanism on top of distributed maps
// that implement the gridmap.IMap interface. It provides a simple way to
// coordinate access to shared resources across multiple processes.
//
// The lockmgr only ever stores in the provided IMap and has no other internal
// state. Therefore it is safe to be created multiple times on the same map.
// As long as the same map is used every time, all locks work as expected.
//
// Implementation Approach:
//
//   - Lock Acquisition: AcquireLock stores a randomly generated owner ID with
//     PutIfAbsent, which guarantees that only one requester can create the
//     entry. The owner ID identifies the lock holder.
//
//   - Waiting: Lock subscribes to the entry events of the map and retries as
//     soon as the lock entry is removed. It also retries with a jittered backoff,
//     in case the removal event got lost.
//
//   - Safe Release: ReleaseLock first verifies that the requester is the owner
//     of the lock by comparing owner IDs before removing the entry.
//
// Locks have no timeout. A lock held by a crashed client has to be removed
// from the map by hand.
//
// Usage Example:
//
//	locks, _ := client.NewRPCMap("locks", config, transport, serializer)
//	lockProvider := lockmgr.NewLockManager(locks)
//
//	ownerID, err := lockProvider.Lock(ctx, "resource:123")
//	if err != nil {
//	    // Handle error
//	}
//	// Use the resource safely
//	released, err := lockProvider.ReleaseLock(ctx, "resource:123", ownerID)
//
// Performance Impact:
//
//   - AcquireLock: One PutIfAbsent
//   - ReleaseLock: One Get followed by a conditional Remove
//   - Lock: One listener registration and removal plus one PutIfAbsent per attempt
package lockmgr
