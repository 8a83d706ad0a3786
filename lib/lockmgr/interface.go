package lockmgr

import (
	"context"
)

// ILockManager defines the interface for a lockmgr provider.
type ILockManager interface {
	// AcquireLock tries to acquire the lock for the given key once.
	// Return a boolean indicating whether the lock was acquired, an owner ID, and an error if any.
	AcquireLock(ctx context.Context, key string) (ok bool, ownerID []byte, err error)

	// Lock blocks until the lock for the given key is acquired or ctx is done.
	// It returns the owner ID needed to release the lock.
	Lock(ctx context.Context, key string) (ownerID []byte, err error)

	// ReleaseLock releases the lock for the given key.
	// Return a boolean indicating whether the lock was released, and an error if any.
	// The method will also return True if the lock did not exist.
	ReleaseLock(ctx context.Context, key string, ownerID []byte) (ok bool, err error)
}
